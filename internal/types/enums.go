package types

type SourceKind string

const (
	SourceKindRegistry SourceKind = "service"
	SourceKindGit      SourceKind = "git"
	SourceKindLocal    SourceKind = "local"
	SourceKindBuiltin  SourceKind = "idf"
)

type VersionScheme string

const (
	VersionSchemeSemver VersionScheme = "semver"
	VersionSchemePep440 VersionScheme = "pep440"
	VersionSchemeDebian VersionScheme = "debian"
)

// DriftOutcome is the result of comparing a lock against the current
// manifest tree and resolution context.
type DriftOutcome string

const (
	DriftUnchanged       DriftOutcome = "unchanged"
	DriftManifestChanged DriftOutcome = "manifest-changed"
	DriftTargetChanged   DriftOutcome = "target-changed"
)

// InjectPolicy controls where the builtin platform component is added
// as an implicit dependency.
type InjectPolicy string

const (
	InjectPolicyRoot   InjectPolicy = "root"
	InjectPolicyAlways InjectPolicy = "always"
	InjectPolicyNever  InjectPolicy = "never"
)

type LockState string

const (
	LockStateNoLock      LockState = "no-lock"
	LockStateLockPresent LockState = "lock-present"
	LockStateComparing   LockState = "comparing"
	LockStateResolving   LockState = "resolving"
	LockStateReused      LockState = "reused"
	LockStateLockWritten LockState = "lock-written"
	LockStateFailed      LockState = "failed"
)

type RuleOp string

const (
	RuleOpEq    RuleOp = "=="
	RuleOpNe    RuleOp = "!="
	RuleOpIn    RuleOp = "in"
	RuleOpNotIn RuleOp = "not in"
	RuleOpSpec  RuleOp = "spec"
)
