package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ErrorKind classifies engine failures. Each kind maps to an errbuilder
// code plus a stable message prefix, so callers can tell kinds apart even
// when two of them share a code.
type ErrorKind string

const (
	KindConfiguration     ErrorKind = "configuration"
	KindConflict          ErrorKind = "resolution-conflict"
	KindSourceUnavailable ErrorKind = "source-unavailable"
	KindLockCorruption    ErrorKind = "lock-corruption"
	KindIntegrity         ErrorKind = "integrity-mismatch"
	KindUnknown           ErrorKind = "unknown"
)

const (
	PrefixConfiguration = "configuration error"
	PrefixConflict      = "version conflict"
	PrefixAmbiguous     = "ambiguous source"
	PrefixCycle         = "dependency cycle"
	PrefixUnavailable   = "source unavailable"
	PrefixCorruption    = "lock file is corrupted"
	PrefixIntegrity     = "component hash mismatch"
)

func ConfigurationError(format string, args ...any) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(PrefixConfiguration + ": " + fmt.Sprintf(format, args...))
}

func ConflictError(prefix string, format string, args ...any) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(prefix + ": " + fmt.Sprintf(format, args...))
}

func SourceUnavailableError(cause error, format string, args ...any) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(PrefixUnavailable + ": " + fmt.Sprintf(format, args...))
	if cause != nil {
		return builder.WithCause(cause)
	}
	return builder
}

func LockCorruptionError(cause error, format string, args ...any) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(PrefixCorruption + ": " + fmt.Sprintf(format, args...))
	if cause != nil {
		return builder.WithCause(cause)
	}
	return builder
}

func IntegrityError(format string, args ...any) error {
	return errbuilder.New().
		WithCode(errbuilder.CodePermissionDenied).
		WithMsg(PrefixIntegrity + ": " + fmt.Sprintf(format, args...))
}

// KindOf reports the engine error kind of err, KindUnknown for anything
// that was not produced by one of the constructors above.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	message := ErrorMessage(err)
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		if strings.HasPrefix(message, PrefixConfiguration) {
			return KindConfiguration
		}
	case errbuilder.CodeFailedPrecondition:
		for _, prefix := range []string{PrefixConflict, PrefixAmbiguous, PrefixCycle} {
			if strings.HasPrefix(message, prefix) {
				return KindConflict
			}
		}
	case errbuilder.CodeInternal:
		if strings.HasPrefix(message, PrefixUnavailable) {
			return KindSourceUnavailable
		}
		if strings.HasPrefix(message, PrefixCorruption) {
			return KindLockCorruption
		}
	case errbuilder.CodePermissionDenied:
		if strings.HasPrefix(message, PrefixIntegrity) {
			return KindIntegrity
		}
	}
	return KindUnknown
}

// IsKind is shorthand for KindOf(err) == kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// ErrorMessage returns the builder message of err without its cause chain.
func ErrorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
