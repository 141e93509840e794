package filesystem

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/ftp4you/f4y/filesystem/options"
)

// ScanItem is one entry discovered by a tree scan, ordered parents-first.
type ScanItem struct {
	Path    string // absolute local path
	RelPath string // slash-separated path relative to the scan root
	IsDir   bool
	Size    int64
}

// TreeScanner walks a local directory tree with a bounded worker pool,
// producing the item list a bulk transfer will process. Directories on one
// level are read concurrently; the result is sorted so parents always precede
// their children.
type TreeScanner struct {
	opts   options.ScanOptions
	logger *slog.Logger
}

// NewTreeScanner creates a scanner with the given options.
func NewTreeScanner(opts options.ScanOptions) *TreeScanner {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = options.DefaultScanOptions().WorkerCount
	}
	return &TreeScanner{opts: opts, logger: slog.Default()}
}

// Scan walks root and returns every entry beneath it that survives the
// ignore patterns. Symbolic links are reported but never descended into. The
// root itself is not part of the result.
func (s *TreeScanner) Scan(ctx context.Context, root string) ([]ScanItem, error) {
	matcher := s.buildMatcher(root)

	var (
		mu    sync.Mutex
		items []ScanItem
	)
	level := []string{root}
	for len(level) > 0 {
		var next []string
		p := pool.New().WithMaxGoroutines(s.opts.WorkerCount).WithContext(ctx)
		for _, dir := range level {
			p.Go(func(context.Context) error {
				found, subdirs, err := s.readDir(root, dir, matcher)
				if err != nil {
					return err
				}
				mu.Lock()
				items = append(items, found...)
				next = append(next, subdirs...)
				mu.Unlock()
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, err
		}
		level = next
	}

	sort.Slice(items, func(i, j int) bool { return items[i].RelPath < items[j].RelPath })
	s.logger.Debug("tree scan complete", "root", root, "items", len(items))
	return items, nil
}

func (s *TreeScanner) readDir(root, dir string, matcher *ignore.GitIgnore) ([]ScanItem, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	var (
		items   []ScanItem
		subdirs []string
	)
	for _, entry := range entries {
		name := entry.Name()
		if !s.opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if s.opts.IgnoreFile != "" && name == s.opts.IgnoreFile {
			continue
		}
		abs := filepath.Join(dir, name)
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return nil, nil, err
		}
		rel = filepath.ToSlash(rel)
		if matcher != nil && matcher.MatchesPath(rel) {
			continue
		}
		item := ScanItem{Path: abs, RelPath: rel, IsDir: entry.IsDir()}
		if info, err := entry.Info(); err == nil && !entry.IsDir() {
			item.Size = info.Size()
		}
		items = append(items, item)
		// Links are reported as leaves even when they point at directories.
		if entry.IsDir() && entry.Type()&os.ModeSymlink == 0 {
			subdirs = append(subdirs, abs)
		}
	}
	return items, subdirs, nil
}

// buildMatcher combines explicit ignore patterns with the per-tree ignore
// file, when one exists at the scan root.
func (s *TreeScanner) buildMatcher(root string) *ignore.GitIgnore {
	lines := append([]string(nil), s.opts.IgnorePatterns...)
	if s.opts.IgnoreFile != "" {
		ignorePath := filepath.Join(root, s.opts.IgnoreFile)
		if data, err := os.ReadFile(ignorePath); err == nil {
			lines = append(lines, strings.Split(string(data), "\n")...)
		}
	}
	if len(lines) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(lines...)
}
