package orchestrator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/distribution/reference"
)

var ErrInvalidReference = errors.New("invalid image reference")

// NormalizePath turns Windows separators into forward slashes.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, `\\`, "/")
	return strings.ReplaceAll(p, `\`, "/")
}

// NormalizeFolder is NormalizePath with one trailing slash removed. An empty
// folder is the working directory.
func NormalizeFolder(p string) string {
	p = NormalizePath(p)
	if p == "" {
		return "."
	}
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// Reference joins registry and name the way they are pushed.
func Reference(registry, name string) string {
	switch {
	case registry == "":
		return name
	case strings.HasSuffix(registry, "/"):
		return registry + name
	default:
		return registry + "/" + name
	}
}

// ExportFileName is the tarball name of an exported image.
func ExportFileName(ref, version string) string {
	return fmt.Sprintf("%s (v%s).tar", strings.ReplaceAll(ref, "/", "_"), version)
}

type namedRef struct {
	named  reference.Named
	domain string
}

// parseName checks that ref is a repository name without tag or digest.
func parseName(ref string) (namedRef, error) {
	if ref == "" {
		return namedRef{}, fmt.Errorf("%w: image name is empty", ErrInvalidReference)
	}
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return namedRef{}, fmt.Errorf("%w %q: %v", ErrInvalidReference, ref, err)
	}
	if !reference.IsNameOnly(named) {
		return namedRef{}, fmt.Errorf("%w %q: tags and digests are assigned by dimg", ErrInvalidReference, ref)
	}
	return namedRef{named: named, domain: reference.Domain(named)}, nil
}

// tagFor validates version as a tag of n and returns "ref:version" as typed
// by the user.
func tagFor(n namedRef, ref, version string) (string, error) {
	if _, err := reference.WithTag(n.named, version); err != nil {
		return "", fmt.Errorf("%w %s:%s: %v", ErrInvalidReference, ref, version, err)
	}
	return ref + ":" + version, nil
}
