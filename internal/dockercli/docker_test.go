package dockercli

import (
	"context"
	"errors"
	"slices"
	"testing"

	processMocks "github.com/0xa1bed0/dimg/internal/process/mocks"
	"go.uber.org/mock/gomock"
)

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	runner := processMocks.NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Run(ctx, "docker", "build", "-t", "img:0.0.1", "proj").Return(nil),
		runner.EXPECT().Run(ctx, "docker", "build", "-t", "img:0.0.2", "-f", "proj/Dockerfile.dimg", "proj").Return(nil),
	)

	c := New(runner)
	if err := c.Build(ctx, "img:0.0.1", "", "proj"); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if err := c.Build(ctx, "img:0.0.2", "proj/Dockerfile.dimg", "proj"); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
}

func TestSavePushRemoveArgs(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	pushErr := errors.New("denied")
	runner := processMocks.NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Run(ctx, "docker", "save", "--output", "/out/img (v1.0.0).tar", "img:1.0.0").Return(nil),
		runner.EXPECT().Run(ctx, "docker", "push", "img:1.0.0").Return(pushErr),
		runner.EXPECT().Run(ctx, "docker", "rmi", "img:1.0.0").Return(nil),
	)

	c := New(runner)
	if err := c.Save(ctx, "img:1.0.0", "/out/img (v1.0.0).tar"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := c.Push(ctx, "img:1.0.0"); !errors.Is(err, pushErr) {
		t.Fatalf("Push error = %v, want %v", err, pushErr)
	}
	if err := c.Remove(ctx, "img:1.0.0"); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
}

func TestLoginFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		registry, domain string
		provider         string
		command          []string
	}{
		{"registry.digitalocean.com/me", "registry.digitalocean.com", "digitalocean", []string{"doctl", "registry", "login"}},
		{"myuser", "docker.io", "dockerhub", []string{"docker", "login"}},
		{"ghcr.io/org", "ghcr.io", "ghcr.io", []string{"docker", "login", "ghcr.io"}},
		{"localhost:5000", "localhost:5000", "localhost:5000", []string{"docker", "login", "localhost:5000"}},
	}
	for _, tc := range cases {
		got := LoginFor(tc.registry, tc.domain)
		if got.Provider != tc.provider || !slices.Equal(got.Command, tc.command) {
			t.Fatalf("LoginFor(%q, %q) = %+v, want provider %q command %v", tc.registry, tc.domain, got, tc.provider, tc.command)
		}
	}
}

func TestLoginRunsCommand(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	runner := processMocks.NewMockRunner(ctrl)
	runner.EXPECT().Run(ctx, "doctl", "registry", "login").Return(nil)

	if err := New(runner).Login(ctx, LoginFor("registry.digitalocean.com/me", "registry.digitalocean.com")); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
}
