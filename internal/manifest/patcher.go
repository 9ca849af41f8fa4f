// Package manifest produces a patched copy of a build manifest that embeds an
// extra file into the image, leaving the user's manifest untouched.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	dimgconfig "github.com/0xa1bed0/dimg/internal/apps/dimg/config"
	"github.com/0xa1bed0/dimg/internal/fsops"
	"github.com/0xa1bed0/dimg/internal/logs"
)

// WorkdirKeyword anchors the embed directive. Matching is case-sensitive and
// at the start of the line.
const WorkdirKeyword = "WORKDIR"

var (
	// ErrManifestNotFound means the manifest directory has no manifest to patch.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrEmbedNotFound means the file to embed does not exist or is a directory.
	ErrEmbedNotFound = errors.New("embed file not found")
	// ErrEmbedIsGenerated means the file to embed is one of the files Apply
	// writes, which would truncate it before it is read.
	ErrEmbedIsGenerated = errors.New("embed file is overwritten by the patch")
)

// Options configures a Patcher. Empty names fall back to the dimg defaults.
type Options struct {
	ManifestName  string
	GeneratedName string
	StagedName    string
	Ops           fsops.Ops
}

type Patcher struct {
	manifestName  string
	generatedName string
	stagedName    string
	ops           fsops.Ops
}

func NewPatcher(opts Options) *Patcher {
	if opts.ManifestName == "" {
		opts.ManifestName = dimgconfig.DefaultManifestName
	}
	if opts.GeneratedName == "" {
		opts.GeneratedName = dimgconfig.DefaultGeneratedManifestName
	}
	if opts.StagedName == "" {
		opts.StagedName = dimgconfig.DefaultStagedEmbedName
	}
	defaults := fsops.DefaultOps()
	if opts.Ops.OS == nil {
		opts.Ops.OS = defaults.OS
	}
	if opts.Ops.Files == nil {
		opts.Ops.Files = defaults.Files
	}

	return &Patcher{
		manifestName:  opts.ManifestName,
		generatedName: opts.GeneratedName,
		stagedName:    opts.StagedName,
		ops:           opts.Ops,
	}
}

// EmbedDirective is the line inserted after each workdir line.
func (p *Patcher) EmbedDirective(embedPath string) string {
	base := path.Base(filepath.ToSlash(embedPath))
	return fmt.Sprintf("ADD ./%s ./%s", p.stagedName, base)
}

// Apply stages embedPath into manifestDir and writes a patched manifest next
// to the original one.
//
// The returned ChangeSet is never nil. When err is non-nil the ChangeSet is
// unmodified and every file created along the way has already been removed.
func (p *Patcher) Apply(manifestDir, embedPath string) (*ChangeSet, error) {
	changes := newChangeSet(p.ops.OS)

	if err := p.apply(changes, manifestDir, embedPath); err != nil {
		logs.Errorf("%v", err)
		if cleanupErr := changes.Cleanup(); cleanupErr != nil {
			logs.Warnf("rollback left files behind: %v", cleanupErr)
		}
		return changes, err
	}

	changes.generatedManifest = p.generatedName
	return changes, nil
}

func (p *Patcher) apply(changes *ChangeSet, manifestDir, embedPath string) error {
	originalPath := filepath.Join(manifestDir, p.manifestName)
	ok, err := fsops.FileExists(p.ops.OS, originalPath)
	if err != nil {
		return fmt.Errorf("check manifest %s: %w", originalPath, err)
	}
	if !ok {
		return fmt.Errorf("%w: unable to find %s in '%s'", ErrManifestNotFound, p.manifestName, manifestDir)
	}

	ok, err = fsops.FileExists(p.ops.OS, embedPath)
	if err != nil {
		return fmt.Errorf("check embed file %s: %w", embedPath, err)
	}
	if !ok {
		return fmt.Errorf("%w: unable to find file '%s'", ErrEmbedNotFound, embedPath)
	}

	stagedPath := filepath.Join(manifestDir, p.stagedName)
	generatedPath := filepath.Join(manifestDir, p.generatedName)
	if err := p.checkNotGenerated(embedPath, stagedPath, generatedPath); err != nil {
		return err
	}

	changes.track(stagedPath)
	if err := p.copyFile(embedPath, stagedPath); err != nil {
		return fmt.Errorf("failed to copy embed: %w", err)
	}
	logs.Debugf("staged %s as %s", embedPath, stagedPath)

	changes.track(generatedPath)
	n, err := p.writePatched(originalPath, generatedPath, p.EmbedDirective(embedPath))
	if err != nil {
		return fmt.Errorf("failed to create temp embed manifest: %w", err)
	}
	logs.Debugf("wrote %s with %d embed directive(s)", generatedPath, n)

	return nil
}

// checkNotGenerated rejects an embed file that is, by path or by identity,
// one of the outputs.
func (p *Patcher) checkNotGenerated(embedPath string, outputs ...string) error {
	embedAbs, absErr := filepath.Abs(embedPath)
	embedInfo, statErr := p.ops.OS.Stat(embedPath)

	for _, out := range outputs {
		if absErr == nil {
			if outAbs, err := filepath.Abs(out); err == nil && outAbs == embedAbs {
				return fmt.Errorf("%w: '%s'", ErrEmbedIsGenerated, embedPath)
			}
		}
		if statErr != nil {
			continue
		}
		if outInfo, err := p.ops.OS.Stat(out); err == nil && os.SameFile(embedInfo, outInfo) {
			return fmt.Errorf("%w: '%s' is the same file as '%s'", ErrEmbedIsGenerated, embedPath, out)
		}
	}
	return nil
}

func (p *Patcher) copyFile(src, dst string) (err error) {
	in, err := p.ops.Files.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := p.ops.Files.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, in)
	return err
}

// writePatched copies src to dst line by line, emitting directive after every
// workdir line. Line terminators of the original are kept. It returns the
// number of directives written.
func (p *Patcher) writePatched(src, dst, directive string) (n int, err error) {
	in, err := p.ops.Files.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := p.ops.Files.Create(dst)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	r := bufio.NewReader(in)
	w := bufio.NewWriter(out)
	for {
		line, readErr := r.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return n, readErr
		}
		if line == "" && readErr == io.EOF {
			break
		}

		if _, err := w.WriteString(line); err != nil {
			return n, err
		}

		if strings.HasPrefix(line, WorkdirKeyword) {
			eol := lineEnding(line)
			if eol == "" {
				// last line without terminator
				eol = "\n"
				if _, err := w.WriteString(eol); err != nil {
					return n, err
				}
			}
			if _, err := w.WriteString(directive + eol); err != nil {
				return n, err
			}
			n++
		}

		if readErr == io.EOF {
			break
		}
	}

	return n, w.Flush()
}

func lineEnding(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return ""
	}
}
