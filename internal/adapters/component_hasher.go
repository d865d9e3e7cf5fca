package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"component-manager/internal/ports"
)

// ComponentHashFile caches the hash of an installed component next to its
// content. It is never part of the hash itself.
const ComponentHashFile = ".component_hash"

// ComponentHasher digests a component directory: SHA-256 over the sorted
// relative paths, each followed by NUL, the file bytes and NUL.
type ComponentHasher struct{}

func NewComponentHasher() ComponentHasher {
	return ComponentHasher{}
}

func (h ComponentHasher) HashDir(dir string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || d.Name() == ComponentHashFile {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan component directory").
			WithCause(err)
	}
	sort.Strings(files)

	digest := sha256.New()
	for _, rel := range files {
		digest.Write([]byte(rel))
		digest.Write([]byte{0})
		if err := copyFileInto(digest, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to hash component file").
				WithCause(err)
		}
		digest.Write([]byte{0})
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

func copyFileInto(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(w, file)
	return err
}

func (h ComponentHasher) WriteHash(dir string, hash string) error {
	if err := os.WriteFile(filepath.Join(dir, ComponentHashFile), []byte(hash+"\n"), 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to record component hash").
			WithCause(err)
	}
	return nil
}

func (h ComponentHasher) ReadHash(dir string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(dir, ComponentHashFile))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read recorded component hash").
			WithCause(err)
	}
	return strings.TrimSpace(string(data)), true, nil
}

var (
	_ ports.HasherPort     = ComponentHasher{}
	_ ports.HashRecordPort = ComponentHasher{}
)
