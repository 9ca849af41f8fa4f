// Tests in this file exercise version parsing and bumping.
package versions

import (
	"errors"
	"testing"
)

func TestNextPatchWellFormed(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"0.0.1":      "0.0.2",
		"1.2.3":      "1.2.4",
		"1.2.9":      "1.2.10",
		"10.20.99":   "10.20.100",
		"0.0.0":      "0.0.1",
		"01.002.003": "1.2.4",
	}
	for in, want := range cases {
		got, err := NextPatch(in)
		if err != nil {
			t.Fatalf("NextPatch(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("NextPatch(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNextPatchMalformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"1",
		"1.2",
		"1.2.3.4",
		"1.2.x",
		"a.b.c",
		"1..3",
		"-1.2.3",
		"1.2.3-rc.1",
		"v1.2.3",
		" 1.2.3",
	} {
		if _, err := NextPatch(in); !errors.Is(err, ErrInvalidVersion) {
			t.Fatalf("NextPatch(%q) error = %v, want ErrInvalidVersion", in, err)
		}
	}
}

func TestParseKeepsComponents(t *testing.T) {
	t.Parallel()

	v, err := Parse("4.5.6")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if v.Major() != 4 || v.Minor() != 5 || v.Patch() != 6 {
		t.Fatalf("Parse(4.5.6) = %d.%d.%d", v.Major(), v.Minor(), v.Patch())
	}
}

func TestLess(t *testing.T) {
	t.Parallel()

	if !Less("1.2.3", "1.10.0") {
		t.Fatal("1.2.3 should sort before 1.10.0")
	}
	if Less("2.0.0", "1.99.99") {
		t.Fatal("2.0.0 should not sort before 1.99.99")
	}
	if !Less("garbage", "0.0.1") {
		t.Fatal("malformed versions should sort first")
	}
}
