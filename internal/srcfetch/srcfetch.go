// Copyright 2026 The perlmacrogen Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package srcfetch extracts a downloaded Perl source release (the
// perl-5.x.y.tar.gz/.tar.xz distributions CPAN publishes) so its core
// headers and embed.fnc can be handed to the rest of the pipeline without
// the caller needing perl's own source checked out locally.
package srcfetch

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// ExtractArchive extracts the tar archive at archivePath (gzip- or
// xz-compressed, or uncompressed) into outDir, preserving its internal
// directory structure. Perl releases switched from .tar.gz to .tar.xz
// around 5.24, so both must be supported to fetch an arbitrary version.
func ExtractArchive(archivePath, outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("srcfetch: creating %s: %w", outDir, err)
	}
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("srcfetch: opening %s: %w", archivePath, err)
	}
	defer f.Close()

	name := strings.ToLower(filepath.Base(archivePath))
	switch {
	case strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("srcfetch: %s: %w", archivePath, err)
		}
		defer gzr.Close()
		return untar(gzr, outDir)
	case strings.HasSuffix(name, ".tar.xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("srcfetch: %s: %w", archivePath, err)
		}
		return untar(xzr, outDir)
	case strings.HasSuffix(name, ".tar"):
		return untar(f, outDir)
	default:
		return fmt.Errorf("srcfetch: unsupported archive format: %s", archivePath)
	}
}

// untar writes every regular file and directory in r to outDir, rejecting
// any entry whose name would escape outDir via ".." path segments.
func untar(r io.Reader, outDir string) error {
	tr := tar.NewReader(r)
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		dst, err := safeJoin(outDir, h.Name)
		if err != nil {
			return err
		}
		switch h.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			out, err := os.Create(dst)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

// safeJoin joins outDir and name, rejecting a name that would resolve
// outside outDir (a malicious or corrupt archive entry using "../").
func safeJoin(outDir, name string) (string, error) {
	dst := filepath.Join(outDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(outDir, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("srcfetch: archive entry %q escapes output directory", name)
	}
	return dst, nil
}

// CoreDir returns the single top-level directory an archive like
// perl-5.40.0.tar.xz extracts into (CPAN tarballs always have exactly
// one); it does not descend further, e.g. into a CORE subdirectory. It
// returns outDir itself if no single top-level
// directory is found, on the assumption the archive was already unwrapped
// one level.
func CoreDir(outDir string) (string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return "", err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	if len(dirs) == 1 {
		return filepath.Join(outDir, dirs[0]), nil
	}
	return outDir, nil
}
