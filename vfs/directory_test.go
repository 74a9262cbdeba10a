package vfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirectoryDriver(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "crate.mdl"), []byte("IDST"), 0666); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), os.ModePerm); err != nil {
		t.Fatal(err)
	}

	d := NewDirectoryDriver(dir)
	if !d.IsDirectory() {
		t.Error("driver should report directory")
	}

	names, err := d.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v", names)
	}

	e, err := d.GetElement("sub")
	if err != nil {
		t.Fatal(err)
	}
	if !e.IsDirectory() {
		t.Error("sub should be a directory")
	}

	data, err := DirectoryReadFile(d, "crate.mdl")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "IDST" {
		t.Errorf("data = %q", data)
	}

	if _, err := DirectoryReadFile(d, "sub"); err == nil {
		t.Error("reading a directory as file should fail")
	}
	if _, err := DirectoryReadFile(d, "missing.mdl"); err == nil {
		t.Error("missing file should fail")
	}
}

func TestDirectoryDriverFileReader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.vvd"), []byte("IDSV data"), 0666); err != nil {
		t.Fatal(err)
	}

	f, err := DirectoryGetFile(NewDirectoryDriver(dir), "a.vvd")
	if err != nil {
		t.Fatal(err)
	}
	if f.Size() != 9 {
		t.Errorf("size = %d", f.Size())
	}
	if _, err := f.Reader(); err == nil {
		t.Error("reader before open should fail")
	}
	if err := f.Open(); err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.Open(); err == nil {
		t.Error("double open should fail")
	}

	r, err := f.Reader()
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 4)
	if _, err := r.ReadAt(buf, 0); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "IDSV" {
		t.Errorf("buf = %q", buf)
	}
}
