package spool

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store holds uploaded bytes on local disk for the lifetime of a single
// request. Files are acquired on request arrival and must be removed once
// the remote upload completes or fails; leaking them exhausts disk under
// sustained traffic.
type Store struct {
	dir string
}

// New creates the spool directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// File is one spooled upload. Remove must run on every exit path.
type File struct {
	Path string
	Name string
	Size int64
}

// Save writes r to a uniquely named file in the spool directory. The original
// filename is kept only as metadata; it never becomes part of the path.
func (s *Store) Save(r io.Reader, originalName string) (*File, error) {
	path := filepath.Join(s.dir, uuid.New().String()+filepath.Ext(originalName))

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write spool file: %w", err)
	}

	return &File{Path: path, Name: filepath.Base(originalName), Size: size}, nil
}

// Bytes reads the spooled content back.
func (f *File) Bytes() ([]byte, error) {
	return os.ReadFile(f.Path)
}

// Remove deletes the spooled file. Removing an already removed file is not
// an error.
func (f *File) Remove() error {
	err := os.Remove(f.Path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}
