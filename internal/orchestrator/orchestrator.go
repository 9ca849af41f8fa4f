// Package orchestrator runs one dimg build: patch, version, build, then the
// optional export, upload and removal steps.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	dimgconfig "github.com/0xa1bed0/dimg/internal/apps/dimg/config"
	"github.com/0xa1bed0/dimg/internal/archive"
	"github.com/0xa1bed0/dimg/internal/dockercli"
	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/manifest"
	"github.com/0xa1bed0/dimg/internal/state"
)

type Step string

const (
	StepValidate Step = "validate"
	StepEmbed    Step = "embed"
	StepVersion  Step = "version"
	StepBuild    Step = "build"
	StepExport   Step = "export"
	StepCompress Step = "compress"
	StepLogin    Step = "login"
	StepPush     Step = "push"
	StepRemove   Step = "remove"
	StepHistory  Step = "history"
)

// StepError ties a failure to the step that produced it.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Docker is the subset of the docker tooling a build needs.
type Docker interface {
	Build(ctx context.Context, imageTag, manifestPath, contextDir string) error
	Save(ctx context.Context, imageTag, outPath string) error
	Push(ctx context.Context, imageTag string) error
	Remove(ctx context.Context, imageTag string) error
	Login(ctx context.Context, login dockercli.Login) error
}

type VersionResolver interface {
	Resolve(imageName, explicitVersion string) (string, error)
}

type ManifestPatcher interface {
	Apply(manifestDir, embedPath string) (*manifest.ChangeSet, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, rec state.BuildRecord) (int64, error)
}

// Request is one build as asked for on the command line.
type Request struct {
	Name            string
	Registry        string
	FolderPath      string
	ExplicitVersion string
	// Embed is a file to bake into the image next to every WORKDIR.
	Embed           string

	Upload   bool
	Export   bool
	Compress bool
	Cleanup  bool
}

// Result describes a finished run. Failures lists every step that failed,
// in order, including the build itself.
type Result struct {
	Reference  string
	Version    string
	Tag        string
	// ExportPath is the exported archive, empty when nothing was exported.
	ExportPath string
	Failures   []*StepError
}

// Succeeded reports whether the image was built.
func (r *Result) Succeeded() bool {
	return r.Tag != ""
}

func (r *Result) fail(step Step, err error) *StepError {
	se := &StepError{Step: step, Err: err}
	r.Failures = append(r.Failures, se)
	return se
}

type Options struct {
	Docker   Docker
	Versions VersionResolver
	Patcher  ManifestPatcher

	// History is optional.
	History   HistoryRecorder
	// ExportDir receives exported archives.
	ExportDir string
	Now       func() time.Time
	// Compress turns a tarball into its .gz next to it. Defaults to
	// archive.GzipFile.
	Compress  func(src, dst string) error
}

type Orchestrator struct {
	docker    Docker
	versions  VersionResolver
	patcher   ManifestPatcher
	history   HistoryRecorder
	exportDir string
	now       func() time.Time
	compress  func(src, dst string) error
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Docker == nil {
		return nil, errors.New("orchestrator: docker is required")
	}
	if opts.Versions == nil {
		return nil, errors.New("orchestrator: version resolver is required")
	}
	if opts.Patcher == nil {
		opts.Patcher = manifest.NewPatcher(manifest.Options{})
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Compress == nil {
		opts.Compress = archive.GzipFile
	}

	return &Orchestrator{
		docker:    opts.Docker,
		versions:  opts.Versions,
		patcher:   opts.Patcher,
		history:   opts.History,
		exportDir: opts.ExportDir,
		now:       opts.Now,
		compress:  opts.Compress,
	}, nil
}

// Run executes req. The returned error is non-nil only when no image was
// built; failures of the optional steps are reported in the Result.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	folder := NormalizeFolder(req.FolderPath)
	registry := NormalizePath(req.Registry)
	ref := Reference(registry, req.Name)
	res := &Result{Reference: ref}

	named, err := parseName(ref)
	if err != nil {
		return res, res.fail(StepValidate, err)
	}

	changes := manifest.Unmodified()
	if req.Embed != "" {
		logs.Infof("Embedding %s into the image", req.Embed)
		patched, err := o.patcher.Apply(folder, NormalizePath(req.Embed))
		if err != nil {
			logs.Errorf("Failed to embed file: %v", err)
			res.fail(StepEmbed, err)
		} else {
			changes = patched
		}
	}

	version, err := o.versions.Resolve(ref, req.ExplicitVersion)
	if err != nil {
		logs.Warnf("could not save image version: %v", err)
		res.fail(StepVersion, err)
	}
	res.Version = version

	tag, err := tagFor(named, ref, version)
	if err != nil {
		cleanupChanges(changes)
		return res, res.fail(StepValidate, err)
	}

	manifestName := dimgconfig.DefaultManifestName
	manifestPath := ""
	if changes.IsModified() {
		manifestName = changes.GeneratedManifest()
		manifestPath = filepath.Join(folder, manifestName)
	}

	embedded := changes.IsModified()

	logs.Banner("Building " + tag)
	started := o.now()
	buildErr := o.docker.Build(ctx, tag, manifestPath, folder)
	finished := o.now()

	cleanupChanges(changes)
	o.record(ctx, res, state.BuildRecord{
		Reference:  ref,
		Version:    version,
		Manifest:   manifestName,
		Embedded:   embedded,
		Outcome:    outcomeOf(buildErr),
		StartedAt:  started,
		FinishedAt: finished,
	})

	if buildErr != nil {
		logs.Errorf("Build of %s failed: %v", tag, buildErr)
		se := res.fail(StepBuild, buildErr)
		o.summarize(res)
		return res, se
	}
	res.Tag = tag
	logs.Successf("Built %s", tag)

	if req.Export {
		o.export(ctx, res, req.Compress)
	}
	if req.Upload {
		o.upload(ctx, res, registry, named)
	}
	if req.Cleanup {
		logs.Infof("Removing local image %s", tag)
		if err := o.docker.Remove(ctx, tag); err != nil {
			logs.Errorf("Failed to remove %s: %v", tag, err)
			res.fail(StepRemove, err)
		}
	}

	o.summarize(res)
	return res, nil
}

func (o *Orchestrator) export(ctx context.Context, res *Result, compress bool) {
	tarPath := filepath.Join(o.exportDir, ExportFileName(res.Reference, res.Version))
	logs.Infof("Exporting %s to %s", res.Tag, tarPath)

	if err := o.docker.Save(ctx, res.Tag, tarPath); err != nil {
		logs.Errorf("Failed to export %s: %v", res.Tag, err)
		res.fail(StepExport, err)
		return
	}
	res.ExportPath = tarPath

	if !compress {
		return
	}

	gzPath := tarPath + ".gz"
	logs.Infof("Compressing %s", tarPath)
	if err := o.compress(tarPath, gzPath); err != nil {
		logs.Errorf("Failed to compress %s, keeping the tarball: %v", tarPath, err)
		res.fail(StepCompress, err)
		return
	}
	res.ExportPath = gzPath

	if err := os.Remove(tarPath); err != nil {
		logs.Warnf("could not remove %s: %v", tarPath, err)
	}
}

func (o *Orchestrator) upload(ctx context.Context, res *Result, registry string, named namedRef) {
	if registry == "" {
		logs.Noticef("No registry given, skipping upload of %s", res.Tag)
		return
	}

	login := dockercli.LoginFor(registry, named.domain)
	logs.Infof("Logging in to %s (%s)", registry, login.Provider)
	if err := o.docker.Login(ctx, login); err != nil {
		logs.Errorf("Login to %s failed, skipping upload: %v", registry, err)
		res.fail(StepLogin, err)
		return
	}

	logs.Infof("Pushing %s", res.Tag)
	if err := o.docker.Push(ctx, res.Tag); err != nil {
		logs.Errorf("Failed to push %s: %v", res.Tag, err)
		res.fail(StepPush, err)
		return
	}
	logs.Successf("Pushed %s", res.Tag)
}

func (o *Orchestrator) record(ctx context.Context, res *Result, rec state.BuildRecord) {
	if o.history == nil {
		return
	}
	if _, err := o.history.Record(ctx, rec); err != nil {
		logs.Warnf("could not record build history: %v", err)
		res.fail(StepHistory, err)
	}
}

func (o *Orchestrator) summarize(res *Result) {
	if len(res.Failures) == 0 {
		return
	}
	logs.Spacer()
	logs.Warnf("%d step(s) did not complete:", len(res.Failures))
	for _, f := range res.Failures {
		logs.Warnf("  - %v", f)
	}
}

func cleanupChanges(changes *manifest.ChangeSet) {
	if !changes.IsModified() {
		return
	}
	if err := changes.Cleanup(); err != nil {
		logs.Warnf("could not remove generated files: %v", err)
	}
}

func outcomeOf(err error) state.Outcome {
	if err != nil {
		return state.OutcomeFailed
	}
	return state.OutcomeSucceeded
}
