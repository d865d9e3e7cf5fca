package ports

// HasherPort computes the content hash of a fetched component.
type HasherPort interface {
	HashDir(dir string) (string, error)
}

// HashRecordPort keeps the hash of an installed component next to its
// content.
type HashRecordPort interface {
	WriteHash(dir string, hash string) error
	// ReadHash returns found=false when dir holds no recorded hash.
	ReadHash(dir string) (hash string, found bool, err error)
}
