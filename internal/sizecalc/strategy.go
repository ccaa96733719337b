// Package sizecalc computes recursive directory sizes in the background.
package sizecalc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tw93/probe/internal/fsread"
)

var (
	ErrToolUnavailable = errors.New("sizecalc: external tool unavailable")
	ErrBadOutput       = errors.New("sizecalc: unparsable tool output")
)

const defaultToolTimeout = 60 * time.Second

// Strategy measures the recursive byte total of a directory. Every strategy
// must agree with a plain traversal given the same tree; accelerated
// strategies fall back to traversal when their tool fails.
type Strategy interface {
	Name() string
	Size(ctx context.Context, path string) (int64, error)
}

// Select returns the strategy for name. "auto" picks du on macOS and the
// parallel walk everywhere else.
func Select(name string, timeout time.Duration, workers int) Strategy {
	switch name {
	case "du":
		return &DuStrategy{Timeout: timeout}
	case "mdfind":
		return &MdfindStrategy{Timeout: timeout}
	case "walk":
		return &WalkStrategy{Workers: workers}
	}
	if runtime.GOOS == "darwin" {
		return &DuStrategy{Timeout: timeout}
	}
	return &WalkStrategy{Workers: workers}
}

// runCommand runs name with a timeout and returns its stdout.
func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrToolUnavailable, name)
	}
	if timeout <= 0 {
		timeout = defaultToolTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s timeout after %v", name, timeout)
		}
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%s failed: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// DuStrategy asks `du -sk` for the total and converts kilobytes to bytes.
type DuStrategy struct {
	Tool    string // defaults to "du"
	Timeout time.Duration
}

func (s *DuStrategy) Name() string { return "du" }

func (s *DuStrategy) Size(ctx context.Context, path string) (int64, error) {
	tool := s.Tool
	if tool == "" {
		tool = "du"
	}
	out, err := runCommand(ctx, s.Timeout, tool, "-sk", path)
	if err == nil {
		var size int64
		if size, err = parseDuOutput(string(out)); err == nil {
			return size, nil
		}
	}
	return traverse(ctx, path)
}

// parseDuOutput reads the leading kilobyte count from "12345\t/path".
func parseDuOutput(out string) (int64, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: du output empty", ErrBadOutput)
	}
	kb, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadOutput, err)
	}
	return kb * 1024, nil
}

// MdfindStrategy sums per-file sizes from the Spotlight index.
type MdfindStrategy struct {
	Tool    string // defaults to "mdfind"
	Timeout time.Duration
}

func (s *MdfindStrategy) Name() string { return "mdfind" }

func (s *MdfindStrategy) Size(ctx context.Context, path string) (int64, error) {
	tool := s.Tool
	if tool == "" {
		tool = "mdfind"
	}
	out, err := runCommand(ctx, s.Timeout, tool, "-onlyin", path, "kMDItemFSSize >= 0", "-attr", "kMDItemFSSize")
	if err != nil {
		return traverse(ctx, path)
	}
	return parseMdfindOutput(string(out)), nil
}

// parseMdfindOutput adds up every "kMDItemFSSize = N" value. Missing and
// (null) sizes count as zero. Depending on the macOS release the attribute
// is printed on its own line or after the file path.
func parseMdfindOutput(out string) int64 {
	const attr = "kMDItemFSSize"
	var total int64
	for _, line := range strings.Split(out, "\n") {
		idx := strings.LastIndex(line, attr)
		if idx < 0 {
			continue
		}
		_, value, ok := strings.Cut(line[idx+len(attr):], "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" || value == "(null)" {
			continue
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			total += n
		}
	}
	return total
}

// WalkStrategy walks the tree in parallel and sums regular-file sizes.
type WalkStrategy struct {
	Workers int // 0 means GOMAXPROCS
}

func (s *WalkStrategy) Name() string { return "walk" }

func (s *WalkStrategy) Size(ctx context.Context, path string) (int64, error) {
	root, err := os.ReadDir(path)
	if err != nil && len(root) == 0 {
		return 0, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var walk func(dir string, children []os.DirEntry)
	walk = func(dir string, children []os.DirEntry) {
		for _, child := range children {
			if gctx.Err() != nil {
				return
			}
			full := filepath.Join(dir, child.Name())
			if child.IsDir() {
				visit := func() {
					sub, _ := os.ReadDir(full)
					walk(full, sub)
				}
				// Run inline when the pool is saturated so a deep tree can't
				// starve on its own workers.
				if !g.TryGo(func() error { visit(); return nil }) {
					visit()
				}
				continue
			}
			if !child.Type().IsRegular() {
				continue
			}
			info, err := child.Info()
			if err != nil {
				continue
			}
			total.Add(info.Size())
		}
	}

	walk(path, root)
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return total.Load(), nil
}

// traverse is the shared fallback: a plain recursive walk.
func traverse(ctx context.Context, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return fsread.CalculateSize(path), nil
}
