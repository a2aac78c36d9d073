package installer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	selferrors "github.com/flanksource/selfupdate/pkg/errors"
)

// extractTarGz extracts a gzip-compressed tar archive into destDir,
// recreating directories, regular files (with their original mode),
// and symlinks. Entries that would escape destDir via ".." are
// rejected.
func extractTarGz(data []byte, destDir string) error {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return selferrors.Wrap(selferrors.Extract, "failed to open gzip stream", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return selferrors.Wrap(selferrors.Extract, "failed to read tar entry", err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to create directory %s", target), err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to create parent directory for %s", target), err)
			}
			if err := writeTarFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to create symlink %s", target), err)
			}
		}
	}
}

func writeTarFile(target string, r io.Reader, mode os.FileMode) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to create file %s", target), err)
	}
	defer func() { _ = f.Close() }()
	if _, err := io.Copy(f, r); err != nil {
		return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to write file %s", target), err)
	}
	return nil
}

// extractZip extracts a zip archive into destDir. Used for the NSIS
// and MSI strategies, whose artifacts are a single installer file
// wrapped in a zip.
func extractZip(data []byte, destDir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return selferrors.Wrap(selferrors.Extract, "failed to open zip archive", err)
	}

	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to create directory %s", target), err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to create parent directory for %s", target), err)
		}
		rc, err := f.Open()
		if err != nil {
			return selferrors.Wrap(selferrors.Extract, fmt.Sprintf("failed to open zip entry %s", f.Name), err)
		}
		werr := writeTarFile(target, rc, f.Mode())
		_ = rc.Close()
		if werr != nil {
			return werr
		}
	}
	return nil
}

// safeJoin joins name onto base, rejecting any path that would escape
// base via ".." components or an absolute path.
func safeJoin(base, name string) (string, error) {
	cleanBase := filepath.Clean(base)
	joined := filepath.Join(cleanBase, name)
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") ||
		(!strings.HasPrefix(joined, cleanBase+string(os.PathSeparator)) && joined != cleanBase) {
		return "", selferrors.New(selferrors.Extract, fmt.Sprintf("archive entry %q escapes extraction directory", name))
	}
	return joined, nil
}

// findSingleFile returns the single regular file with the given
// extension found directly under dir.
func findSingleFile(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", selferrors.Wrap(selferrors.Io, "failed to list extracted contents", err)
	}
	var found string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			if found != "" {
				return "", selferrors.New(selferrors.Extract, fmt.Sprintf("archive contains more than one %s file", ext))
			}
			found = filepath.Join(dir, e.Name())
		}
	}
	if found == "" {
		return "", selferrors.New(selferrors.Extract, fmt.Sprintf("archive does not contain a %s file", ext))
	}
	return found, nil
}
