package vfs

import (
	"io"
	"os"
	"path"

	"github.com/pkg/errors"
)

// DirectoryDriver exposes an os directory through the Directory
// interface. Model files are never written back, so the driver is read
// only.
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(p string) *DirectoryDriver {
	return &DirectoryDriver{path: p}
}

func (dd *DirectoryDriver) Name() string {
	return path.Base(dd.path)
}

func (dd *DirectoryDriver) IsDirectory() bool {
	return true
}

func (dd *DirectoryDriver) Path() string {
	return dd.path
}

func (dd *DirectoryDriver) List() ([]string, error) {
	dirents, err := os.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to list directory %q", dd.path)
	}
	result := make([]string, 0, len(dirents))
	for _, d := range dirents {
		result = append(result, d.Name())
	}
	return result, nil
}

func (dd *DirectoryDriver) GetElement(name string) (Element, error) {
	p := path.Join(dd.path, name)
	s, err := os.Stat(p)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to stat %q", p)
	}
	if s.IsDir() {
		return NewDirectoryDriver(p), nil
	}
	return NewDirectoryDriverFile(p), nil
}

type DirectoryDriverFile struct {
	path string
	f    *os.File
}

func NewDirectoryDriverFile(p string) *DirectoryDriverFile {
	return &DirectoryDriverFile{path: p}
}

func (ddf *DirectoryDriverFile) Name() string {
	return path.Base(ddf.path)
}

func (ddf *DirectoryDriverFile) IsDirectory() bool {
	return false
}

func (ddf *DirectoryDriverFile) Size() int64 {
	stat, err := os.Stat(ddf.path)
	if err != nil {
		return 0
	}
	return stat.Size()
}

func (ddf *DirectoryDriverFile) Open() error {
	if ddf.f != nil {
		return errors.Errorf("File %q already opened", ddf.path)
	}
	f, err := os.Open(ddf.path)
	if err != nil {
		return errors.Wrapf(err, "Failed to open %q", ddf.path)
	}
	ddf.f = f
	return nil
}

func (ddf *DirectoryDriverFile) Close() error {
	if ddf.f == nil {
		return nil
	}
	err := ddf.f.Close()
	ddf.f = nil
	return err
}

func (ddf *DirectoryDriverFile) Reader() (*io.SectionReader, error) {
	if ddf.f == nil {
		return nil, errors.Errorf("File %q is not opened", ddf.path)
	}
	return io.NewSectionReader(ddf.f, 0, ddf.Size()), nil
}

func (ddf *DirectoryDriverFile) ReadAt(b []byte, off int64) (n int, err error) {
	if ddf.f == nil {
		return 0, errors.Errorf("File %q is not opened", ddf.path)
	}
	return ddf.f.ReadAt(b, off)
}
