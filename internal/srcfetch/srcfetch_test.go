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

package srcfetch

import (
	"archive/tar"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestExtractArchiveTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "perl-5.40.0.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"perl-5.40.0/embed.fnc":      "Es  |void   |foo",
		"perl-5.40.0/CORE/perl.h":    "#define X 1\n",
	})

	outDir := filepath.Join(dir, "out")
	require.NoError(t, ExtractArchive(archive, outDir))

	data, err := os.ReadFile(filepath.Join(outDir, "perl-5.40.0", "embed.fnc"))
	require.NoError(t, err)
	assert.Equal(t, "Es  |void   |foo", string(data))
}

func TestExtractArchiveRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")

	f, err := os.Create(archive)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	content := "pwned"
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "../../etc/passwd",
		Mode: 0o644,
		Size: int64(len(content)),
	}))
	_, err = tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	outDir := filepath.Join(dir, "out")
	err = ExtractArchive(archive, outDir)
	assert.Error(t, err)
}

func TestExtractArchiveUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive.rar")
	require.NoError(t, os.WriteFile(archive, []byte("x"), 0o644))
	err := ExtractArchive(archive, filepath.Join(dir, "out"))
	assert.Error(t, err)
}

func TestCoreDirSingleTopLevel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "perl-5.40.0", "CORE"), 0o755))
	got, err := CoreDir(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "perl-5.40.0"), got)
}

func TestCoreDirFallsBackWhenAmbiguous(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	got, err := CoreDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}
