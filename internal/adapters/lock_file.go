package adapters

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"component-manager/internal/ports"
)

// LockFileAdapter stores lock documents on the local filesystem.
type LockFileAdapter struct{}

func NewLockFileAdapter() LockFileAdapter {
	return LockFileAdapter{}
}

func (a LockFileAdapter) Read(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read lock file").
			WithCause(err)
	}
	return data, true, nil
}

// WriteAtomic writes data to a temporary file in the lock's directory and
// renames it over path. Readers see the old document or the new one,
// never a mix; the temporary file is removed on any failure.
func (a LockFileAdapter) WriteAtomic(path string, data []byte) (err error) {
	if path == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("lock path is empty")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create lock directory").
			WithCause(err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create temporary lock file").
			WithCause(err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return lockWriteError(err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return lockWriteError(err)
	}
	if err = tmp.Close(); err != nil {
		return lockWriteError(err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return lockWriteError(err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return lockWriteError(err)
	}
	return nil
}

func lockWriteError(cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to write lock file").
		WithCause(cause)
}

var _ ports.LockStorePort = LockFileAdapter{}
