package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const maxLineBytes = 1024 * 1024

// Filter reports whether a line should be emitted. A nil Filter keeps all.
type Filter func(line string) bool

// Contains keeps lines that include every non-empty needle.
func Contains(needles ...string) Filter {
	var kept []string
	for _, n := range needles {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return func(line string) bool {
		for _, n := range kept {
			if !strings.Contains(line, n) {
				return false
			}
		}
		return true
	}
}

// Last returns up to limit trailing lines of path that pass filter, plus
// the offset of the end of the file. A missing file yields no lines and a
// zero offset.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	offset, err := scanLines(file, 0, func(line string) {
		if filter != nil && !filter(line) {
			return
		}
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// Follow polls path every interval and passes lines written after offset
// to emit until ctx is done. A file that shrinks below offset is treated as
// rotated and read from the start.
func Follow(ctx context.Context, path string, offset int64, interval time.Duration, filter Filter, emit func(string)) error {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, filter, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, filter Filter, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}
	return scanLines(file, offset, func(line string) {
		if filter == nil || filter(line) {
			emit(line)
		}
	})
}

// scanLines reads complete lines from offset and returns the offset just past
// the last newline, so a partially written line is picked up on the next read.
func scanLines(file *os.File, offset int64, fn func(string)) (int64, error) {
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	pos := offset
	for {
		raw, err := reader.ReadString('\n')
		if len(raw) > maxLineBytes {
			raw = raw[:maxLineBytes]
		}
		if err == nil {
			pos += int64(len(raw))
			fn(strings.TrimRight(raw, "\r\n"))
			continue
		}
		if errors.Is(err, io.EOF) {
			return pos, nil
		}
		return pos, fmt.Errorf("read log file: %w", err)
	}
}
