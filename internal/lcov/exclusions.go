package lcov

import (
	"bufio"
	"os"
	"strings"
)

// Exclusion markers recognized inside source files. A line containing
// MarkerLine is excluded on its own; MarkerStart and MarkerStop bracket an
// excluded region inclusive of both marker lines.
const (
	MarkerLine  = "LCOV_EXCL_LINE"
	MarkerStart = "LCOV_EXCL_START"
	MarkerStop  = "LCOV_EXCL_STOP"
)

// ExcludedLines scans the source file for exclusion markers and returns the
// set of 1-based line numbers whose coverage records should be dropped.
// A missing or unreadable source file yields an empty set: records for files
// that cannot be inspected pass through untouched.
func ExcludedLines(sourcePath string) map[int]bool {
	excluded := make(map[int]bool)

	f, err := os.Open(sourcePath)
	if err != nil {
		return excluded
	}
	defer f.Close()

	inBlock := false
	lineNum := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.Contains(line, MarkerLine) {
			excluded[lineNum] = true
		}

		switch {
		case strings.Contains(line, MarkerStart):
			inBlock = true
			excluded[lineNum] = true
		case strings.Contains(line, MarkerStop):
			excluded[lineNum] = true
			inBlock = false
		case inBlock:
			excluded[lineNum] = true
		}
	}
	return excluded
}
