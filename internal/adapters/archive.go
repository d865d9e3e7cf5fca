package adapters

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// extractTarGz unpacks a gzip compressed tarball into dest.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("archive is not gzip compressed").
			WithCause(err)
	}
	defer gz.Close()
	return extractTar(gz, dest, "")
}

// extractTar unpacks a tar stream into dest. Entries outside prefix are
// skipped and prefix is stripped from the rest. Entries that would land
// outside dest are rejected.
func extractTar(r io.Reader, dest string, prefix string) error {
	prefix = strings.Trim(path.Clean("/"+prefix), "/")
	reader := tar.NewReader(r)
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		// Insecure names are cleaned below instead of rejected.
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid archive").
				WithCause(err)
		}
		rel, ok := stripArchivePrefix(header.Name, prefix)
		if !ok {
			continue
		}
		target, err := archiveTarget(dest, rel)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeArchiveFile(target, reader, header.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			// Links and devices are not part of component artifacts.
			continue
		}
	}
}

func stripArchivePrefix(name string, prefix string) (string, bool) {
	cleaned := strings.Trim(path.Clean("/"+name), "/")
	if prefix == "" {
		return cleaned, cleaned != ""
	}
	if cleaned == prefix {
		return "", false
	}
	rel, found := strings.CutPrefix(cleaned, prefix+"/")
	return rel, found
}

func archiveTarget(dest string, rel string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	within, err := filepath.Rel(dest, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodePermissionDenied).
			WithMsg(fmt.Sprintf("archive entry %q escapes the destination", rel))
	}
	return target, nil
}

func writeArchiveFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0644
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
