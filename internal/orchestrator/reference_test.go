package orchestrator

import (
	"errors"
	"testing"
)

func TestNormalizeFolder(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"", "."},
		{"/", "/"},
		{"proj/", "proj"},
		{"proj//", "proj/"},
		{`C:\\work\\proj\\`, "C:/work/proj"},
		{`C:\work\proj`, "C:/work/proj"},
		{"./services/api", "./services/api"},
		{`services\api\`, "services/api"},
	}
	for _, tc := range cases {
		if got := NormalizeFolder(tc.in); got != tc.want {
			t.Fatalf("NormalizeFolder(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestReference(t *testing.T) {
	t.Parallel()

	cases := []struct {
		registry, name, want string
	}{
		{"", "app", "app"},
		{"registry.example.com/team/", "app", "registry.example.com/team/app"},
		{"registry.example.com/team", "app", "registry.example.com/team/app"},
		{NormalizePath(`registry.example.com\team\`), "app", "registry.example.com/team/app"},
	}
	for _, tc := range cases {
		if got := Reference(tc.registry, tc.name); got != tc.want {
			t.Fatalf("Reference(%q, %q) = %q, want %q", tc.registry, tc.name, got, tc.want)
		}
	}
}

func TestExportFileName(t *testing.T) {
	t.Parallel()

	if got := ExportFileName("registry.example.com/team/app", "1.2.3"); got != "registry.example.com_team_app (v1.2.3).tar" {
		t.Fatalf("unexpected export file name %q", got)
	}
	if got := ExportFileName("app", "0.0.1"); got != "app (v0.0.1).tar" {
		t.Fatalf("unexpected export file name %q", got)
	}
}

func TestParseName(t *testing.T) {
	t.Parallel()

	valid := []struct{ ref, domain string }{
		{"app", "docker.io"},
		{"user/app", "docker.io"},
		{"registry.example.com/team/app", "registry.example.com"},
		{"localhost:5000/app", "localhost:5000"},
		{"registry.digitalocean.com/t/a", "registry.digitalocean.com"},
	}
	for _, tc := range valid {
		n, err := parseName(tc.ref)
		if err != nil {
			t.Fatalf("parseName(%q) returned error: %v", tc.ref, err)
		}
		if n.domain != tc.domain {
			t.Fatalf("parseName(%q).domain = %q, want %q", tc.ref, n.domain, tc.domain)
		}
	}

	for _, ref := range []string{"", "Bad Name", "UPPER", "app:1.0.0", "app@sha256:" + "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"} {
		if _, err := parseName(ref); !errors.Is(err, ErrInvalidReference) {
			t.Fatalf("parseName(%q) error = %v, want ErrInvalidReference", ref, err)
		}
	}
}

func TestTagFor(t *testing.T) {
	t.Parallel()

	n, err := parseName("registry.example.com/app")
	if err != nil {
		t.Fatal(err)
	}
	tag, err := tagFor(n, "registry.example.com/app", "0.0.1")
	if err != nil {
		t.Fatalf("tagFor returned error: %v", err)
	}
	if tag != "registry.example.com/app:0.0.1" {
		t.Fatalf("tag = %q", tag)
	}

	if _, err := tagFor(n, "registry.example.com/app", "not a tag"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}
