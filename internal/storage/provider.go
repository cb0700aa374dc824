// Package storage is the file layer under the Markdown vault.
package storage

import "time"

// File describes one Markdown file in the vault.
type File struct {
	Path     string // relative to the vault root, slash separated
	Checksum string
	ModTime  time.Time
}

// Provider reads and writes vault files by relative path.
type Provider interface {
	List(dir string) ([]File, error)
	Read(path string) ([]byte, error)
	// Write replaces path atomically, creating parent directories.
	Write(path string, content []byte) error
	// Abs resolves a relative path inside the vault.
	Abs(path string) (string, error)
}
