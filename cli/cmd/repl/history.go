package repl

import (
	"os"
	"strings"
)

// history is the repl's line history with optional file persistence.
type history struct {
	path    string
	entries []string
	cursor  int
}

func newHistory(path string) *history {
	h := &history{path: path}

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					h.entries = append(h.entries, line)
				}
			}
		}
	}

	h.cursor = len(h.entries)

	return h
}

// add appends a line, skipping consecutive duplicates, and persists it.
func (h *history) add(line string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		h.cursor = len(h.entries)

		return
	}

	h.entries = append(h.entries, line)
	h.cursor = len(h.entries)

	if h.path != "" {
		f, err := os.OpenFile(
			h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600,
		)
		if err == nil {
			_, _ = f.WriteString(line + "\n")
			_ = f.Close()
		}
	}
}

// prev moves the cursor backward and returns the entry there.
func (h *history) prev() (string, bool) {
	if h.cursor == 0 {
		return "", false
	}

	h.cursor--

	return h.entries[h.cursor], true
}

// next moves the cursor forward; past the newest entry it returns an
// empty line.
func (h *history) next() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}

	h.cursor++

	if h.cursor == len(h.entries) {
		return "", true
	}

	return h.entries[h.cursor], true
}
