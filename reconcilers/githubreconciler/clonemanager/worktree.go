/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chainguard.dev/codeagent/agents/proposal"
)

// ApplyEdits applies edits under root in order. Deleting a missing file is
// not an error. Creates and updates write the full content, creating parent
// directories as needed. On the first failing edit the earlier edits remain
// applied and the error is returned. The touched paths are returned in
// first-touch order without duplicates.
//
// All file operations go through an os.Root, so symlinks inside the
// worktree cannot redirect an edit outside of it.
func ApplyEdits(root string, edits []proposal.FileEdit) ([]string, error) {
	r, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	defer r.Close()

	var (
		touched []string
		seen    = make(map[string]struct{}, len(edits))
	)

	for i, edit := range edits {
		name, rel, err := validatePath(edit.Path)
		if err != nil {
			return touched, fmt.Errorf("edit %d: %w", i+1, err)
		}

		switch edit.Action {
		case proposal.ActionDelete:
			if err := r.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
				return touched, fmt.Errorf("edit %d: deleting %s: %w", i+1, rel, err)
			}
		case proposal.ActionCreate, proposal.ActionUpdate:
			if dir := filepath.Dir(name); dir != "." {
				if err := r.MkdirAll(dir, 0o755); err != nil {
					return touched, fmt.Errorf("edit %d: creating parent of %s: %w", i+1, rel, err)
				}
			}
			if err := r.WriteFile(name, []byte(edit.Content), 0o644); err != nil {
				return touched, fmt.Errorf("edit %d: writing %s: %w", i+1, rel, err)
			}
		default:
			return touched, fmt.Errorf("edit %d: unknown action %q for %s", i+1, edit.Action, rel)
		}

		if _, ok := seen[rel]; !ok {
			seen[rel] = struct{}{}
			touched = append(touched, rel)
		}
	}
	return touched, nil
}

// validatePath cleans path and returns it in native and slash-separated
// form, both relative to the worktree. Paths that escape the worktree or
// name the worktree itself are rejected.
func validatePath(path string) (string, string, error) {
	name := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(name) {
		name = filepath.Clean(strings.TrimLeft(name, string(filepath.Separator)))
	}
	if name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("path %q escapes worktree", path)
	}
	if name == "." {
		return "", "", fmt.Errorf("path %q does not name a file", path)
	}
	return name, filepath.ToSlash(name), nil
}
