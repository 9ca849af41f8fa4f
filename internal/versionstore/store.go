// Package versionstore keeps the last version each image was built with in a
// YAML document and hands out the next one.
package versionstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/versions"
	"gopkg.in/yaml.v3"
)

// document is the on-disk layout. Unknown top-level fields are ignored.
type document struct {
	Versions map[string]string `yaml:"versions"`
}

// Record is one image and the last version it was built with.
type Record struct {
	ImageName string
	Version   string
}

// Store is not safe for concurrent use; one run owns it.
type Store struct {
	path     string
	versions map[string]string
}

// Open loads the document at path. A missing, empty or unreadable document
// yields an empty store; only the latter is reported, as a warning.
func Open(path string) *Store {
	s := &Store{
		path:     path,
		versions: map[string]string{},
	}

	loaded, err := load(path)
	if err != nil {
		logs.Warnf("ignoring version store %s: %v", path, err)
		return s
	}
	s.versions = loaded
	logs.Debugf("loaded %d image version(s) from %s", len(loaded), path)
	return s
}

func load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.Versions == nil {
		doc.Versions = map[string]string{}
	}
	return doc.Versions, nil
}

// Path is the location of the backing document.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the stored version of imageName.
func (s *Store) Lookup(imageName string) (string, bool) {
	v, ok := s.versions[imageName]
	return v, ok
}

// Versions lists every record sorted by image name.
func (s *Store) Versions() []Record {
	out := make([]Record, 0, len(s.versions))
	for name, v := range s.versions {
		out = append(out, Record{ImageName: name, Version: v})
	}
	slices.SortFunc(out, func(a, b Record) int {
		return strings.Compare(a.ImageName, b.ImageName)
	})
	return out
}

// Resolve picks the version imageName is built with and persists it.
//
// A non-empty explicitVersion is used verbatim. Otherwise a known image gets
// its patch component bumped and an unknown one starts at versions.Seed. A
// stored value that is not MAJOR.MINOR.PATCH is reset to versions.Seed.
//
// The returned version is always usable; a non-nil error only reports that
// the store could not be saved.
func (s *Store) Resolve(imageName, explicitVersion string) (string, error) {
	next := s.nextVersion(imageName, explicitVersion)
	s.versions[imageName] = next

	if err := s.Save(); err != nil {
		return next, err
	}
	return next, nil
}

// isDowngrade reports whether explicit is a well-formed version below a
// well-formed previous one. Free-form versions are never compared.
func isDowngrade(explicit, previous string) bool {
	if _, err := versions.Parse(explicit); err != nil {
		return false
	}
	if _, err := versions.Parse(previous); err != nil {
		return false
	}
	return versions.Less(explicit, previous)
}

func (s *Store) nextVersion(imageName, explicitVersion string) string {
	previous, known := s.versions[imageName]

	if explicitVersion != "" {
		if known && isDowngrade(explicitVersion, previous) {
			logs.Warnf("version %s of '%s' is lower than the last built %s", explicitVersion, imageName, previous)
		}
		return explicitVersion
	}

	if !known {
		return versions.Seed
	}

	next, err := versions.NextPatch(previous)
	if err != nil {
		logs.Warnf("Invalid version detected for '%s' (%v). Resetting to '%s'.", imageName, err, versions.Seed)
		return versions.Seed
	}
	return next
}

// Save writes the whole store back to its document. The write goes through a
// temporary file in the same directory so a failed save never truncates the
// previous document.
func (s *Store) Save() error {
	data, err := yaml.Marshal(document{Versions: s.versions})
	if err != nil {
		return fmt.Errorf("versionstore: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("versionstore: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("versionstore: save %s: %w", s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("versionstore: save %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("versionstore: save %s: %w", s.path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("versionstore: save %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("versionstore: save %s: %w", s.path, err)
	}
	return nil
}
