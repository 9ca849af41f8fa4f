// Package dockercli drives the docker and doctl command line tools.
package dockercli

import (
	"context"
	"strings"

	"github.com/0xa1bed0/dimg/internal/process"
)

const (
	dockerBin = "docker"
	doctlBin  = "doctl"

	// DigitalOceanRegistry is the host of the DigitalOcean container registry.
	DigitalOceanRegistry = "registry.digitalocean.com"
	// DockerHubDomain is what image references without a registry resolve to.
	DockerHubDomain = "docker.io"
)

// Client issues one docker invocation per method. Every call blocks until the
// tool exits; a nil error means exit status 0.
type Client struct {
	runner process.Runner
}

func New(runner process.Runner) *Client {
	return &Client{runner: runner}
}

// Build runs docker build in contextDir. An empty manifestPath lets docker
// pick the default manifest of the context.
func (c *Client) Build(ctx context.Context, imageTag, manifestPath, contextDir string) error {
	args := []string{"build", "-t", imageTag}
	if manifestPath != "" {
		args = append(args, "-f", manifestPath)
	}
	args = append(args, contextDir)
	return c.runner.Run(ctx, dockerBin, args...)
}

func (c *Client) Save(ctx context.Context, imageTag, outPath string) error {
	return c.runner.Run(ctx, dockerBin, "save", "--output", outPath, imageTag)
}

func (c *Client) Push(ctx context.Context, imageTag string) error {
	return c.runner.Run(ctx, dockerBin, "push", imageTag)
}

func (c *Client) Remove(ctx context.Context, imageTag string) error {
	return c.runner.Run(ctx, dockerBin, "rmi", imageTag)
}

// Login authenticates against the registry with the command returned by
// LoginFor.
func (c *Client) Login(ctx context.Context, login Login) error {
	return c.runner.Run(ctx, login.Command[0], login.Command[1:]...)
}

// Login is the authentication command for one registry.
type Login struct {
	// Provider names the detected registry kind for messages.
	Provider string
	Command  []string
}

// LoginFor picks how to authenticate for registry (as given on the command
// line) whose reference domain is domain. DigitalOcean registries go through
// doctl, anything else through docker login.
func LoginFor(registry, domain string) Login {
	switch {
	case strings.HasPrefix(registry, DigitalOceanRegistry):
		return Login{Provider: "digitalocean", Command: []string{doctlBin, "registry", "login"}}
	case domain == "" || domain == DockerHubDomain:
		return Login{Provider: "dockerhub", Command: []string{dockerBin, "login"}}
	default:
		return Login{Provider: domain, Command: []string{dockerBin, "login", domain}}
	}
}
