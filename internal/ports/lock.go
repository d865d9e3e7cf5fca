package ports

// LockStorePort reads and atomically replaces lock documents.
type LockStorePort interface {
	// Read returns found=false when no lock exists at path.
	Read(path string) (data []byte, found bool, err error)
	WriteAtomic(path string, data []byte) error
}
