// Package home manages the fieldlens home directory layout: uploaded
// documents and the config file.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the fieldlens home directory.
	DefaultDirName = ".fieldlens"

	// UploadsDirName is the subdirectory for uploaded documents.
	UploadsDirName = "uploads"

	// ExportsDirName is the subdirectory for exported workbooks.
	ExportsDirName = "exports"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the fieldlens home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.fieldlens).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// UploadsPath returns the path to the uploads directory.
func (d *Dir) UploadsPath() string {
	return filepath.Join(d.path, UploadsDirName)
}

// ExportsPath returns the path to the exports directory.
func (d *Dir) ExportsPath() string {
	return filepath.Join(d.path, ExportsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// DocumentPath returns the stored path for a session's uploaded PDF.
func (d *Dir) DocumentPath(sessionID string) string {
	return filepath.Join(d.UploadsPath(), sessionID+".pdf")
}

// ExportPath returns the path for a session's exported workbook.
func (d *Dir) ExportPath(sessionID string) string {
	return filepath.Join(d.ExportsPath(), sessionID+".xlsx")
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.UploadsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory: %w", err)
	}
	if err := os.MkdirAll(d.ExportsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create exports directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// RemoveDocument deletes a session's stored PDF. Missing files are not an
// error; session expiry may race a delete.
func (d *Dir) RemoveDocument(sessionID string) error {
	err := os.Remove(d.DocumentPath(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
