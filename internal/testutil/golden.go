// Package testutil holds helpers shared by pebblectl package tests.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files with current output")

// GoldenPath returns the path of name under the calling package's testdata.
func GoldenPath(name string) string {
	return filepath.Join("testdata", name)
}

// AssertGolden compares got with testdata/<name>. With -update it writes got
// instead. Line endings are normalized so checkouts with CRLF still match.
func AssertGolden(t testing.TB, got, name string) {
	t.Helper()

	path := GoldenPath(name)

	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("create testdata: %v", err)
		}

		if err := os.WriteFile(path, []byte(got), 0o644); err != nil { //nolint:gosec // G306: golden files are checked in
			t.Fatalf("update golden %s: %v", path, err)
		}

		return
	}

	want, err := os.ReadFile(path) //nolint:gosec // G304: path is under testdata
	if err != nil {
		t.Fatalf("read golden %s: %v (run with -update to create it)", path, err)
	}

	if normalize(got) != normalize(string(want)) {
		t.Errorf("output mismatch for %s\n\ngot:\n%s\nwant:\n%s", path, got, want)
	}
}

func normalize(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
