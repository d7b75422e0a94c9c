package fsio

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"

	"github.com/bjaus/crunch"
)

// maxLineSize bounds a single line.
const maxLineSize = 16 << 20

var _ crunch.PartitionedSource = (*Source)(nil)

// Source reads records from every file matching a glob pattern, in lexical
// file order. Blank lines are skipped.
//
// With several workers each worker reads whole files: worker index of total
// reads the matched files whose position modulo total equals index.
type Source struct {
	pattern string
	format  Format
	total   int
	index   int
}

// NewSource creates a source over the files matching pattern. A pattern
// without glob metacharacters names a single file that must exist.
func NewSource(pattern string, format Format) *Source {
	if format == "" {
		format = JSONLines
	}
	return &Source{pattern: pattern, format: format, total: 1}
}

// Files returns the files this source reads, after partitioning.
func (s *Source) Files() ([]string, error) {
	matches, err := filepath.Glob(s.pattern)
	if err != nil {
		return nil, fmt.Errorf("crunch/fsio: glob %q: %w", s.pattern, err)
	}
	if len(matches) == 0 && !hasMeta(s.pattern) {
		matches = []string{s.pattern}
	}
	sort.Strings(matches)

	files := make([]string, 0, len(matches))
	for i, m := range matches {
		if i%s.total == s.index {
			files = append(files, m)
		}
	}
	return files, nil
}

func (s *Source) Records(ctx context.Context) iter.Seq2[crunch.Record, error] {
	return func(yield func(crunch.Record, error) bool) {
		files, err := s.Files()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, path := range files {
			if !s.readFile(path, yield) {
				return
			}
		}
	}
}

// readFile yields the records of one file and reports whether to continue.
func (s *Source) readFile(path string, yield func(crunch.Record, error) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		yield(nil, fmt.Errorf("crunch/fsio: %w", err))
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		v, err := s.format.decode(scanner.Bytes())
		if err != nil {
			yield(nil, fmt.Errorf("crunch/fsio: %s:%d: %w", path, line, err))
			return false
		}
		if !yield(v, nil) {
			return false
		}
	}
	if err := scanner.Err(); err != nil {
		yield(nil, fmt.Errorf("crunch/fsio: read %s: %w", path, err))
		return false
	}
	return true
}

// Partition restricts the source to worker index of total.
func (s *Source) Partition(total, index int) error {
	if err := crunch.ValidatePartition(total, index); err != nil {
		return err
	}
	s.total, s.index = total, index
	return nil
}

func (s *Source) Name() string { return "file(" + s.pattern + ")" }

func hasMeta(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[', '\\':
			return true
		}
	}
	return false
}
