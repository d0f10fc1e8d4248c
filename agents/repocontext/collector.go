/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repocontext

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/chainguard-dev/clog"
)

const (
	// MaxFileSize caps each included file, in characters.
	MaxFileSize = 10_000
	// MaxContextSize caps the whole snapshot, in characters.
	MaxContextSize = 50_000

	fileTruncated    = "\n\n[...file truncated...]"
	contextTruncated = "\n\n[...context truncated...]"
)

// DefaultIgnore lists names skipped in the tree and in the file search.
// Entries may be glob patterns.
var DefaultIgnore = []string{
	".git", ".venv", "venv", "node_modules", "__pycache__",
	".idea", ".vscode", "dist", "build", ".eggs", "*.egg-info",
}

// DefaultProjectFiles are always included when present.
var DefaultProjectFiles = []string{"README.md", "pyproject.toml", "package.json", "setup.py"}

// DefaultSourceExtensions are searched for files matching issue keywords.
var DefaultSourceExtensions = []string{".py", ".go", ".js", ".ts"}

var keywordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\w/]+\.(?:py|js|ts|json|yaml|yml|md)`),
	regexp.MustCompile(`\b[A-Z][a-z]+(?:[A-Z][a-z]+)+\b`),
	regexp.MustCompile(`\b[a-z]+_[a-z_]+\b`),
}

// Collector builds repository snapshots.
type Collector struct {
	maxDepth     int
	maxRelevant  int
	ignore       []string
	projectFiles []string
	extensions   []string
}

// Option configures a Collector.
type Option func(*Collector)

// WithMaxDepth bounds the rendered directory tree.
func WithMaxDepth(depth int) Option {
	return func(c *Collector) { c.maxDepth = depth }
}

// WithMaxRelevantFiles bounds how many keyword matches are included.
func WithMaxRelevantFiles(n int) Option {
	return func(c *Collector) { c.maxRelevant = n }
}

// WithSourceExtensions replaces the extensions searched for keyword matches.
func WithSourceExtensions(exts ...string) Option {
	return func(c *Collector) { c.extensions = exts }
}

// New returns a Collector with the default limits.
func New(opts ...Option) *Collector {
	c := &Collector{
		maxDepth:     3,
		maxRelevant:  5,
		ignore:       DefaultIgnore,
		projectFiles: DefaultProjectFiles,
		extensions:   DefaultSourceExtensions,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect renders the snapshot of the repository at root for the given
// issue text. The result never exceeds MaxContextSize characters plus the
// truncation marker.
func (c *Collector) Collect(ctx context.Context, root, issueText string) (string, error) {
	log := clog.FromContext(ctx)

	// Files are read through r so that settings entries and symlinks cannot
	// reach outside the repository.
	r, err := os.OpenRoot(root)
	if err != nil {
		return "", fmt.Errorf("opening repository: %w", err)
	}
	defer r.Close()

	settings, err := loadSettings(r)
	if err != nil {
		// A broken settings file should not block the run.
		log.Warnf("Ignoring repository settings: %v", err)
		settings = &Settings{}
	}
	ignore := slices.Concat(c.ignore, settings.Context.Ignore)
	projectFiles := slices.Concat(c.projectFiles, settings.Context.Files)

	tree, err := c.tree(root, ignore)
	if err != nil {
		return "", fmt.Errorf("rendering tree: %w", err)
	}
	parts := []string{fmt.Sprintf("## Project structure\n```\n%s\n```", tree)}

	seen := make(map[string]bool)
	add := func(rel string) {
		if seen[rel] {
			return
		}
		seen[rel] = true
		if content, ok := readFile(r, rel); ok {
			parts = append(parts, fmt.Sprintf("## %s\n```\n%s\n```", rel, content))
		}
	}
	for _, f := range projectFiles {
		add(filepath.ToSlash(f))
	}

	keywords := Keywords(issueText)
	relevant, err := c.relevant(root, ignore, keywords)
	if err != nil {
		return "", fmt.Errorf("searching relevant files: %w", err)
	}
	for _, rel := range relevant {
		add(rel)
	}

	out := strings.Join(parts, "\n\n")
	if utf8.RuneCountInString(out) > MaxContextSize {
		out = truncate(out, MaxContextSize) + contextTruncated
	}
	log.With("keywords", len(keywords)).
		With("relevant_files", len(relevant)).
		With("size", len(out)).
		Debug("Collected repository context")
	return out, nil
}

// Keywords extracts file-path-like tokens, CamelCase and snake_case
// identifiers from text, deduplicated and sorted.
func Keywords(text string) []string {
	var out []string
	for _, re := range keywordPatterns {
		out = append(out, re.FindAllString(text, -1)...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func ignored(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok || p == name {
			return true
		}
	}
	return false
}

func (c *Collector) tree(root string, ignore []string) (string, error) {
	var lines []string
	var walk func(dir, prefix string, depth int) error
	walk = func(dir, prefix string, depth int) error {
		if depth >= c.maxDepth {
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			if depth == 0 {
				return err
			}
			return nil
		}
		entries = slices.DeleteFunc(entries, func(e fs.DirEntry) bool { return ignored(e.Name(), ignore) })
		// Directories first, then files, each by name.
		slices.SortStableFunc(entries, func(a, b fs.DirEntry) int {
			if a.IsDir() != b.IsDir() {
				if a.IsDir() {
					return -1
				}
				return 1
			}
			return strings.Compare(a.Name(), b.Name())
		})
		for i, e := range entries {
			last := i == len(entries)-1
			connector, extension := "├── ", "│   "
			if last {
				connector, extension = "└── ", "    "
			}
			lines = append(lines, prefix+connector+e.Name())
			if e.IsDir() {
				if err := walk(filepath.Join(dir, e.Name()), prefix+extension, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(root, "", 0); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Collector) relevant(root string, ignore, keywords []string) ([]string, error) {
	if len(keywords) == 0 || c.maxRelevant <= 0 {
		return nil, nil
	}
	lower := make([]string, len(keywords))
	for i, k := range keywords {
		lower[i] = strings.ToLower(k)
	}

	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != root && ignored(d.Name(), ignore) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !slices.Contains(c.extensions, filepath.Ext(path)) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		name, relLower := strings.ToLower(d.Name()), strings.ToLower(rel)
		for _, k := range lower {
			if strings.Contains(name, k) || strings.Contains(relLower, k) {
				out = append(out, rel)
				break
			}
		}
		if len(out) >= c.maxRelevant {
			return filepath.SkipAll
		}
		return nil
	})
	return out, err
}

// readFile returns the file's content, truncated to MaxFileSize characters.
// Missing, unreadable and non-UTF-8 files are skipped, as are paths and
// symlinks that resolve outside r.
func readFile(r *os.Root, rel string) (string, bool) {
	name := filepath.FromSlash(rel)
	if filepath.IsAbs(name) {
		return "", false
	}
	info, err := r.Stat(name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	data, err := r.ReadFile(name)
	if err != nil || !utf8.Valid(data) {
		return "", false
	}
	content := string(data)
	if utf8.RuneCountInString(content) > MaxFileSize {
		content = truncate(content, MaxFileSize) + fileTruncated
	}
	return content, true
}

// truncate keeps the first n characters of s.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
