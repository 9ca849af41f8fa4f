// Package fsops exposes thin interfaces over os helpers so the rest of the
// project can be tested without touching the real filesystem.
package fsops

//go:generate mockgen -destination=mocks/fsops.go -package=mocks github.com/0xa1bed0/dimg/internal/fsops OSOps,FileOps

import (
	"io"
	"io/fs"
	"os"
)

// OSOps abstracts filesystem metadata queries and removal.
type OSOps interface {
	Stat(name string) (fs.FileInfo, error)
	Remove(name string) error
}

// FileOps abstracts opening files for streaming reads and writes.
type FileOps interface {
	// Open opens an existing file for reading.
	Open(name string) (io.ReadCloser, error)
	// Create creates or truncates a file for writing.
	Create(name string) (io.WriteCloser, error)
}

// Ops groups together the filesystem dependencies.
type Ops struct {
	OS    OSOps
	Files FileOps
}

// DefaultOps returns an Ops configured with the standard library implementations.
func DefaultOps() Ops {
	return Ops{
		OS:    stdOSOps{},
		Files: stdFileOps{},
	}
}

type stdOSOps struct{}

func (stdOSOps) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (stdOSOps) Remove(name string) error              { return os.Remove(name) }

type stdFileOps struct{}

func (stdFileOps) Open(name string) (io.ReadCloser, error) { return os.Open(name) }
func (stdFileOps) Create(name string) (io.WriteCloser, error) {
	return os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
}

// FileExists reports whether name exists and is a regular file.
func FileExists(ops OSOps, name string) (bool, error) {
	fi, err := ops.Stat(name)
	if err == nil {
		return !fi.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
