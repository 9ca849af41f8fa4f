package dimgconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	appName = "dimg"

	// DefaultVersionsFile is resolved against the working directory so every
	// project folder keeps its own version history.
	DefaultVersionsFile = "dimg-versions.yaml"

	// DefaultManifestName is the manifest looked up in the folder being built.
	DefaultManifestName = "Dockerfile"

	// DefaultGeneratedManifestName is the patched manifest written next to
	// the original one.
	DefaultGeneratedManifestName = "Dockerfile.dimg"

	// DefaultStagedEmbedName is the copy of the embedded file placed into
	// the build context.
	DefaultStagedEmbedName = "embed.dimg"
)

// ensureFile ensures that the parent folder exists and the file exists.
// If the file already exists, it does nothing.
func ensureFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create/open file: %w", err)
	}
	defer f.Close()

	return nil
}

// StateBasePath is the per-user directory holding the build history and logs.
//
//	Linux:   $XDG_STATE_HOME/dimg or ~/.local/state/dimg
//	macOS:   ~/Library/Application Support/dimg
func StateBasePath() string {
	return filepath.Join(xdg.StateHome, appName)
}

func StateDBFile() string {
	return filepath.Join(StateBasePath(), "state.db")
}

func logsPath() string {
	return filepath.Join(StateBasePath(), "logs")
}

func RunLogPath(runID string) (string, error) {
	p := filepath.Join(logsPath(), "run-"+runID+".log")
	if err := ensureFile(p); err != nil {
		return "", err
	}
	return p, nil
}
