package extract

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ralt/ghfetch/internal/models"
)

func TestFormatFor(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"myapp-linux-x86_64.tar.gz", FormatTarGz},
		{"myapp.tgz", FormatTarGz},
		{"myapp.tar.bz2", FormatTarBz2},
		{"myapp.tbz", FormatTarBz2},
		{"myapp-windows.zip", FormatZip},
		{"myapp.tar.zst", FormatTarZst},
		{"myapp.tar.xz", FormatTarXz},
		{"myapp.txz", FormatTarXz},
		// Longest suffix wins: .tar.gz must not be mistaken for a bare
		// .gz even though .gz is a substring
		{"release-v1.2.3.tar.gz", FormatTarGz},
	}

	for _, tt := range tests {
		got, err := FormatFor(tt.filename)
		if err != nil {
			t.Errorf("FormatFor(%s): %v", tt.filename, err)
			continue
		}
		if got != tt.want {
			t.Errorf("FormatFor(%s) = %s, want %s", tt.filename, got, tt.want)
		}
	}
}

func TestFormatForUnsupported(t *testing.T) {
	for _, filename := range []string{"myapp.rar", "myapp.gz", "myapp.7z", "myapp", "myapp.tar"} {
		_, err := FormatFor(filename)
		if err == nil {
			t.Errorf("FormatFor(%s): expected error", filename)
			continue
		}
		var fe *models.FetchError
		if !errors.As(err, &fe) || fe.Type != models.ErrUnsupportedFormat {
			t.Errorf("FormatFor(%s): expected UnsupportedFormat error, got %v", filename, err)
		}
	}
}

func TestSuffixTableOrderedLongestFirst(t *testing.T) {
	for i := 1; i < len(suffixes); i++ {
		if len(suffixes[i-1].suffix) < len(suffixes[i].suffix) {
			t.Fatalf("suffix table not sorted: %s before %s",
				suffixes[i-1].suffix, suffixes[i].suffix)
		}
	}
}

func TestExtractUnsupportedSuffix(t *testing.T) {
	err := Extract(context.Background(), "/nonexistent/file.rar", t.TempDir())
	if err == nil {
		t.Fatal("expected error for unsupported suffix")
	}
	var fe *models.FetchError
	if !errors.As(err, &fe) || fe.Type != models.ErrUnsupportedFormat {
		t.Errorf("expected UnsupportedFormat error, got %v", err)
	}
}

// writeTar writes entries as name -> content pairs into w
func writeTar(t *testing.T, w io.Writer, entries map[string]string) {
	t.Helper()
	tw := tar.NewWriter(w)
	for name, content := range entries {
		if err := tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func checkExtracted(t *testing.T, dir string, entries map[string]string) {
	t.Helper()
	for name, content := range entries {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("missing extracted file %s: %v", name, err)
			continue
		}
		if string(got) != content {
			t.Errorf("content mismatch for %s: %q", name, got)
		}
	}
}

var testEntries = map[string]string{
	"bin/myapp":  "#!/bin/sh\necho myapp\n",
	"bin/helper": "#!/bin/sh\necho helper\n",
	"README.md":  "readme\n",
}

func TestNativeExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "myapp.tar.gz")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	writeTar(t, gw, testEntries)
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := t.TempDir()
	if err := extractTarGz(archive, dest); err != nil {
		t.Fatalf("extractTarGz: %v", err)
	}
	checkExtracted(t, dest, testEntries)
}

func TestNativeExtractTarZst(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "myapp.tar.zst")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	writeTar(t, zw, testEntries)
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := t.TempDir()
	if err := extractTarZst(archive, dest); err != nil {
		t.Fatalf("extractTarZst: %v", err)
	}
	checkExtracted(t, dest, testEntries)
}

func TestNativeExtractZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "myapp.zip")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, content := range testEntries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := t.TempDir()
	if err := extractZip(archive, dest); err != nil {
		t.Fatalf("extractZip: %v", err)
	}
	checkExtracted(t, dest, testEntries)
}

func TestUntarRejectsEscapingEntry(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	writeTar(t, gw, map[string]string{"../evil.sh": "rm -rf /\n"})
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := t.TempDir()
	if err := extractTarGz(archive, dest); err == nil {
		t.Fatal("expected error for escaping entry")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "evil.sh")); err == nil {
		t.Error("escaping entry was written outside the extraction directory")
	}
}

func TestUntarRejectsEscapingSymlink(t *testing.T) {
	tests := []struct {
		name     string
		linkname string
	}{
		{"absolute target", "/etc/passwd"},
		{"relative target above root", "../../outside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, "evil.tar.gz")

			f, err := os.Create(archive)
			if err != nil {
				t.Fatal(err)
			}
			gw := gzip.NewWriter(f)
			tw := tar.NewWriter(gw)
			if err := tw.WriteHeader(&tar.Header{
				Name:     "link",
				Typeflag: tar.TypeSymlink,
				Linkname: tt.linkname,
				Mode:     0777,
			}); err != nil {
				t.Fatal(err)
			}
			if err := tw.Close(); err != nil {
				t.Fatal(err)
			}
			if err := gw.Close(); err != nil {
				t.Fatal(err)
			}
			f.Close()

			dest := t.TempDir()
			if err := extractTarGz(archive, dest); err == nil {
				t.Fatal("expected error for escaping symlink")
			}
			if _, err := os.Lstat(filepath.Join(dest, "link")); err == nil {
				t.Error("escaping symlink was created")
			}
		})
	}
}

func TestExtractExternalTarGz(t *testing.T) {
	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available")
	}

	dir := t.TempDir()
	archive := filepath.Join(dir, "myapp.tar.gz")

	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	writeTar(t, gw, testEntries)
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	dest := t.TempDir()
	if err := Extract(context.Background(), archive, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	checkExtracted(t, dest, testEntries)
}

func TestExtractCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "broken.tar.gz")
	if err := os.WriteFile(archive, []byte("this is not a gzip stream"), 0644); err != nil {
		t.Fatal(err)
	}

	err := Extract(context.Background(), archive, t.TempDir())
	if err == nil {
		t.Fatal("expected error for corrupt archive")
	}
	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Type != models.ErrSubprocess && fe.Type != models.ErrFileOp {
		t.Errorf("unexpected error type %s", fe.Type)
	}
}
