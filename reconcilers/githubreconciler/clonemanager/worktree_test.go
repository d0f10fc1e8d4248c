/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chainguard.dev/codeagent/agents/proposal"
	"github.com/google/go-cmp/cmp"
)

func writeTestFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readTestFile(t *testing.T, dir, relPath string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(relPath)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestApplyEdits(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "app.py", "print('old')\n")
	writeTestFile(t, dir, "obsolete.py", "x = 1\n")

	edits := []proposal.FileEdit{
		{Path: "src/pkg/new.py", Action: proposal.ActionCreate, Content: "def f():\n    return 1\n"},
		{Path: "app.py", Action: proposal.ActionUpdate, Content: "print('new')\n"},
		{Path: "obsolete.py", Action: proposal.ActionDelete},
		{Path: "never-existed.py", Action: proposal.ActionDelete},
		{Path: "./app.py", Action: proposal.ActionUpdate, Content: "print('newer')\n"},
	}

	paths, err := ApplyEdits(dir, edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}

	want := []string{"src/pkg/new.py", "app.py", "obsolete.py", "never-existed.py"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("touched paths (-want, +got):\n%s", diff)
	}
	if got := readTestFile(t, dir, "app.py"); got != "print('newer')\n" {
		t.Errorf("app.py = %q", got)
	}
	if got := readTestFile(t, dir, "src/pkg/new.py"); !strings.HasPrefix(got, "def f()") {
		t.Errorf("src/pkg/new.py = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "obsolete.py")); !os.IsNotExist(err) {
		t.Errorf("obsolete.py still present: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "src", "pkg", "new.py"))
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got&0o644 != 0o644 {
		t.Errorf("mode = %v, want at least 0644", got)
	}

	// Applying the same batch again is a no-op.
	again, err := ApplyEdits(dir, edits)
	if err != nil {
		t.Fatalf("ApplyEdits again: %v", err)
	}
	if diff := cmp.Diff(paths, again); diff != "" {
		t.Errorf("second application paths (-first, +second):\n%s", diff)
	}
	if got := readTestFile(t, dir, "app.py"); got != "print('newer')\n" {
		t.Errorf("app.py after reapply = %q", got)
	}
}

func TestApplyEditsStopsAtFirstError(t *testing.T) {
	// outside is a directory beyond the worktree that a symlink may target.
	outside := t.TempDir()

	tests := []struct {
		name    string
		badPath string
		symlink string
		wantErr string
	}{
		{name: "parent traversal", badPath: "../outside.txt", wantErr: "escapes worktree"},
		{name: "nested traversal", badPath: "a/../../outside.txt", wantErr: "escapes worktree"},
		{name: "root itself", badPath: ".", wantErr: "does not name a file"},
		{name: "symlinked directory", badPath: "vendor/pwned.txt", symlink: "vendor", wantErr: "vendor/pwned.txt"},
		{name: "symlinked file", badPath: "linked.txt", symlink: "linked.txt", wantErr: "linked.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.symlink != "" {
				target := outside
				if tt.symlink == "linked.txt" {
					target = filepath.Join(outside, "target.txt")
					writeTestFile(t, outside, "target.txt", "untouched")
				}
				if err := os.Symlink(target, filepath.Join(dir, tt.symlink)); err != nil {
					t.Fatal(err)
				}
			}
			paths, err := ApplyEdits(dir, []proposal.FileEdit{
				{Path: "first.txt", Action: proposal.ActionCreate, Content: "1"},
				{Path: tt.badPath, Action: proposal.ActionCreate, Content: "2"},
				{Path: "third.txt", Action: proposal.ActionCreate, Content: "3"},
			})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("ApplyEdits error = %v, want %q", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), "edit 2:") {
				t.Errorf("error %q does not name the failing edit", err)
			}
			if diff := cmp.Diff([]string{"first.txt"}, paths); diff != "" {
				t.Errorf("touched paths (-want, +got):\n%s", diff)
			}
			if got := readTestFile(t, dir, "first.txt"); got != "1" {
				t.Errorf("first.txt = %q, want the earlier edit to remain", got)
			}
			if _, err := os.Stat(filepath.Join(dir, "third.txt")); !os.IsNotExist(err) {
				t.Errorf("third.txt should not have been written: %v", err)
			}
			if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "outside.txt")); !os.IsNotExist(err) {
				t.Errorf("file written outside the root: %v", err)
			}
			if _, err := os.Stat(filepath.Join(outside, "pwned.txt")); !os.IsNotExist(err) {
				t.Errorf("file written through a symlink: %v", err)
			}
			if tt.symlink == "linked.txt" {
				if got := readTestFile(t, outside, "target.txt"); got != "untouched" {
					t.Errorf("symlink target = %q, want it untouched", got)
				}
			}
		})
	}
}

func TestApplyEditsUnknownAction(t *testing.T) {
	_, err := ApplyEdits(t.TempDir(), []proposal.FileEdit{{Path: "a.txt", Action: "rename"}})
	if err == nil || !strings.Contains(err.Error(), `unknown action "rename"`) {
		t.Fatalf("ApplyEdits error = %v", err)
	}
}
