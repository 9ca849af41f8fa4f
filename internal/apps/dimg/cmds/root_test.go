package dimg

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildFlags(t *testing.T) {
	t.Parallel()

	cmd := newBuildCmd()
	shorthands := map[string]string{
		"name":          "n",
		"registry":      "r",
		"folderpath":    "f",
		"embed":         "e",
		"version":       "",
		"upload":        "",
		"cleanup":       "",
		"export":        "",
		"compress":      "",
		"versions-file": "",
		"no-history":    "",
	}
	for name, short := range shorthands {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("flag --%s is missing", name)
		}
		if f.Shorthand != short {
			t.Fatalf("flag --%s shorthand = %q, want %q", name, f.Shorthand, short)
		}
	}
	if def := cmd.Flags().Lookup("folderpath").DefValue; def != "." {
		t.Fatalf("--folderpath default = %q, want .", def)
	}
}

func TestRootRequiresName(t *testing.T) {
	t.Parallel()

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--upload"})

	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "--name") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestBuildOptionsRequest(t *testing.T) {
	t.Parallel()

	opts := &buildOptions{
		Name:       "api",
		Registry:   "registry.example.com/team",
		FolderPath: "services/api",
		Version:    "1.2.3",
		Embed:      "config.json",
		Upload:     true,
		Compress:   true,
	}
	req := opts.request()
	if req.ExplicitVersion != "1.2.3" || req.Name != "api" || !req.Upload || !req.Compress || req.Export {
		t.Fatalf("unexpected request %+v", req)
	}

	if got := opts.versionsFile("/work"); got != filepath.Join("/work", "dimg-versions.yaml") {
		t.Fatalf("versionsFile = %q", got)
	}
	opts.VersionsFile = "/elsewhere/v.yaml"
	if got := opts.versionsFile("/work"); got != "/elsewhere/v.yaml" {
		t.Fatalf("versionsFile = %q", got)
	}
}

func TestVersionsCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "versions.yaml")
	if err := os.WriteFile(path, []byte("versions:\n  web: 1.2.3\n  api: 0.0.4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"versions", "--versions-file", path})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("versions returned error: %v", err)
	}

	got := out.String()
	api := strings.Index(got, "api    0.0.4")
	web := strings.Index(got, "web    1.2.3")
	if api < 0 || web < 0 {
		t.Fatalf("expected api and web rows, got:\n%s", got)
	}
	if api > web {
		t.Fatalf("rows must be sorted by image name, got:\n%s", got)
	}
}

func TestVersionsCommandEmptyStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.yaml")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"versions", "--versions-file", path})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("versions returned error: %v", err)
	}
	if got := out.String(); got != "No versions recorded in "+path+"\n" {
		t.Fatalf("unexpected output %q", got)
	}
}
