package dimg

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	dimgconfig "github.com/0xa1bed0/dimg/internal/apps/dimg/config"
	"github.com/0xa1bed0/dimg/internal/dockercli"
	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/orchestrator"
	"github.com/0xa1bed0/dimg/internal/process"
	"github.com/0xa1bed0/dimg/internal/runtime"
	"github.com/0xa1bed0/dimg/internal/state"
	"github.com/0xa1bed0/dimg/internal/versionstore"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	Name         string
	Registry     string
	FolderPath   string
	Version      string
	Embed        string
	VersionsFile string
	Upload       bool
	Cleanup      bool
	Export       bool
	Compress     bool
	NoHistory    bool
}

// attachBuildCmdFlags attaches the "build" flags to the given command and
// injects a buildOptions instance into the command's context via PreRun.
func attachBuildCmdFlags(cmd *cobra.Command) {
	opts := &buildOptions{}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Name, "name", "n", "", "Image name (e.g. 'api')")
	flags.StringVarP(&opts.Registry, "registry", "r", "", "Registry prefix (e.g. 'registry.digitalocean.com/team')")
	flags.StringVarP(&opts.FolderPath, "folderpath", "f", ".", "Folder holding the Dockerfile; also the build context")
	flags.StringVar(&opts.Version, "version", "", "Use this version instead of incrementing the stored one")
	flags.StringVarP(&opts.Embed, "embed", "e", "", "File to add to the image after every WORKDIR")
	flags.StringVar(&opts.VersionsFile, "versions-file", "", "Version store (default: "+dimgconfig.DefaultVersionsFile+" in the working directory)")
	flags.BoolVar(&opts.Upload, "upload", false, "Push the image to the registry")
	flags.BoolVar(&opts.Cleanup, "cleanup", false, "Remove the local image when done")
	flags.BoolVar(&opts.Export, "export", false, "Save the image as a tarball in the working directory")
	flags.BoolVar(&opts.Compress, "compress", false, "Gzip the exported tarball")
	flags.BoolVar(&opts.NoHistory, "no-history", false, "Do not record the build in the history database")

	// Store opts in command context before running
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		cmd.SetContext(withBuildOptions(cmd.Context(), opts))
	}
}

func (bo *buildOptions) request() orchestrator.Request {
	return orchestrator.Request{
		Name:            bo.Name,
		Registry:        bo.Registry,
		FolderPath:      bo.FolderPath,
		ExplicitVersion: bo.Version,
		Embed:           bo.Embed,
		Upload:          bo.Upload,
		Export:          bo.Export,
		Compress:        bo.Compress,
		Cleanup:         bo.Cleanup,
	}
}

func (bo *buildOptions) versionsFile(cwd string) string {
	if bo.VersionsFile != "" {
		return bo.VersionsFile
	}
	return filepath.Join(cwd, dimgconfig.DefaultVersionsFile)
}

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build, version and optionally ship an image",
		Long: `Build the Dockerfile in --folderpath as <registry>/<name>:<version>.

The version is the one given with --version, or the last stored version of
the image with its patch number incremented (0.0.1 for a new image).`,
		Args: cobra.NoArgs,
		RunE: buildCmdRunE,
	}

	attachBuildCmdFlags(cmd)

	return cmd
}

// buildCmdRunE is a separate function so root can reuse it (default command)
func buildCmdRunE(cmd *cobra.Command, args []string) error {
	logs.Debugf("running build...")

	opts := getBuildOptions(cmd.Context())
	if opts == nil {
		opts = &buildOptions{}
	}
	if opts.Name == "" {
		return errors.New("an image name is required (--name)")
	}

	rt := runtime.FromContextOrPanic(cmd.Context())

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	signalsCtx, stopSignalsCtx := signal.NotifyContext(rt.Ctx(), os.Interrupt, syscall.SIGTERM)
	defer stopSignalsCtx()

	orchOpts := orchestrator.Options{
		Docker:    dockercli.New(process.NewExecRunner()),
		Versions:  versionstore.Open(opts.versionsFile(cwd)),
		ExportDir: cwd,
	}
	if !opts.NoHistory {
		if history := openHistory(signalsCtx); history != nil {
			orchOpts.History = history
		}
	}

	orch, err := orchestrator.New(orchOpts)
	if err != nil {
		return err
	}

	res, err := orch.Run(signalsCtx, opts.request())
	if err != nil {
		return err
	}

	logs.Spacer()
	if res.ExportPath != "" {
		logs.Infof("Image archive: %s", res.ExportPath)
	}
	logs.Successf("dimg has finished successfully.")
	return nil
}

// openHistory returns nil when the history database is unavailable; builds
// do not depend on it.
func openHistory(ctx context.Context) *state.History {
	db, err := state.OpenDefault(ctx)
	if err != nil {
		logs.Warnf("build history disabled: %v", err)
		return nil
	}
	history, err := state.NewHistory(ctx, db)
	if err != nil {
		logs.Warnf("build history disabled: %v", err)
		db.Close()
		return nil
	}
	return history
}

type ctxKeyBuildOptions struct{}

func withBuildOptions(ctx context.Context, opts *buildOptions) context.Context {
	return context.WithValue(ctx, ctxKeyBuildOptions{}, opts)
}

func getBuildOptions(ctx context.Context) *buildOptions {
	v := ctx.Value(ctxKeyBuildOptions{})
	if v == nil {
		return nil
	}
	return v.(*buildOptions)
}
