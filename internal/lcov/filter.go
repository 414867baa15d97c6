// Package lcov filters exclusion-marked coverage data out of lcov tracefiles.
// Records are dropped when the named source file marks their line with
// LCOV_EXCL_LINE or an LCOV_EXCL_START/LCOV_EXCL_STOP region, or when the
// whole source file matches an exclusion glob. Everything else passes through
// byte-identical.
package lcov

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	e "leash/pkg/errors"
)

// Record prefixes of the lcov tracefile format.
const (
	prefixSourceFile = "SF:"
	prefixLineData   = "DA:"
	prefixBranchData = "BRDA:"
	endOfRecord      = "end_of_record"
)

// Options configures a filter pass.
type Options struct {
	// ExcludePaths drops entire SF: sections whose path matches any pattern.
	ExcludePaths []glob.Glob
}

// CompileExcludes parses glob patterns for Options.ExcludePaths.
func CompileExcludes(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, e.Wrap(err, e.ErrCoveragePattern, "Invalid exclude pattern").
				WithContext("pattern", p)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// Filter reads an lcov tracefile from r and writes the filtered form to w.
// Source files named by SF: records are read from disk to find their
// exclusion markers.
func Filter(r io.Reader, w io.Writer, opts Options) error {
	out := bufio.NewWriter(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	excluded := map[int]bool{}
	skipSection := false

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, prefixSourceFile):
			path := strings.TrimSpace(line[len(prefixSourceFile):])
			skipSection = matchesAny(opts.ExcludePaths, path)
			if skipSection {
				excluded = map[int]bool{}
				continue
			}
			excluded = ExcludedLines(path)

		case skipSection:
			if strings.TrimSpace(line) == endOfRecord {
				skipSection = false
			}
			continue

		case strings.HasPrefix(line, prefixLineData):
			if dropRecord(line, prefixLineData, excluded) {
				continue
			}

		case strings.HasPrefix(line, prefixBranchData):
			if dropRecord(line, prefixBranchData, excluded) {
				continue
			}
		}

		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return e.Wrap(err, e.ErrCoverageParse, "Failed to read tracefile")
	}
	return out.Flush()
}

// FilterFile filters the tracefile at inputPath into outputPath.
func FilterFile(inputPath, outputPath string, opts Options) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return e.Wrap(err, e.ErrFileNotFound, "Cannot open tracefile").
			WithContext("path", inputPath)
	}
	defer in.Close()

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return e.Wrap(err, e.ErrPermissionDenied, "Cannot create output directory").
				WithContext("path", dir)
		}
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return e.Wrap(err, e.ErrPermissionDenied, "Cannot create filtered tracefile").
			WithContext("path", outputPath)
	}
	defer out.Close()

	return Filter(in, out, opts)
}

// dropRecord reports whether a DA:/BRDA: record's line number falls in the
// excluded set. Malformed records are kept, matching lcov's own leniency.
func dropRecord(line, prefix string, excluded map[int]bool) bool {
	if len(excluded) == 0 {
		return false
	}
	rest := line[len(prefix):]
	comma := strings.IndexByte(rest, ',')
	if comma <= 0 {
		return false
	}
	lineNum, err := strconv.Atoi(rest[:comma])
	if err != nil {
		return false
	}
	return excluded[lineNum]
}

func matchesAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}
	return false
}
