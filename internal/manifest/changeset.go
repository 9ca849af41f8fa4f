package manifest

import (
	"errors"
	"fmt"
	"slices"

	"github.com/0xa1bed0/dimg/internal/fsops"
	"github.com/0xa1bed0/dimg/internal/logs"
)

// ChangeSet records every file a patch created so they can be removed once
// the patched manifest is no longer needed.
//
// A zero ChangeSet is valid and unmodified.
type ChangeSet struct {
	generatedManifest string
	createdFiles      []string
	os                fsops.OSOps
}

func newChangeSet(os fsops.OSOps) *ChangeSet {
	return &ChangeSet{os: os}
}

// Unmodified returns an empty ChangeSet, used when nothing is patched.
func Unmodified() *ChangeSet {
	return &ChangeSet{}
}

// IsModified reports whether a patched manifest was produced.
func (c *ChangeSet) IsModified() bool {
	return c != nil && c.generatedManifest != ""
}

// GeneratedManifest is the file name (not path) of the patched manifest,
// empty when the ChangeSet is unmodified.
func (c *ChangeSet) GeneratedManifest() string {
	if c == nil {
		return ""
	}
	return c.generatedManifest
}

// CreatedFiles returns the tracked paths in creation order.
func (c *ChangeSet) CreatedFiles() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.createdFiles)
}

// track must be called before the file is written so a partial write is
// still removed by Cleanup.
func (c *ChangeSet) track(path string) {
	c.createdFiles = append(c.createdFiles, path)
}

// Cleanup removes every tracked file that still exists, in the order they
// were recorded, then forgets them. Failures are logged and do not stop the
// remaining removals; they are returned joined. A second call is a no-op.
func (c *ChangeSet) Cleanup() error {
	if c == nil || len(c.createdFiles) == 0 {
		return nil
	}

	ops := c.os
	if ops == nil {
		ops = fsops.DefaultOps().OS
	}

	var errs []error
	for _, file := range c.createdFiles {
		exists, err := fsops.FileExists(ops, file)
		if err != nil {
			logs.Warnf("Failed to delete %s: %v", file, err)
			errs = append(errs, fmt.Errorf("stat %s: %w", file, err))
			continue
		}
		if !exists {
			continue
		}
		if err := ops.Remove(file); err != nil {
			logs.Warnf("Failed to delete %s: %v", file, err)
			errs = append(errs, fmt.Errorf("remove %s: %w", file, err))
			continue
		}
		logs.Debugf("removed %s", file)
	}

	c.createdFiles = nil
	return errors.Join(errs...)
}
