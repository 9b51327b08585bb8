package prompts

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmpty is returned when a prompt file contains no usable lines.
var ErrEmpty = errors.New("no messages found")

// Parse splits text into prompts, one per line. Lines are trimmed and blank
// lines are dropped; order and duplicates are kept.
func Parse(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// LoadFile reads and parses the prompt file at path.
func LoadFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	list := Parse(string(content))
	if len(list) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmpty, path)
	}
	return list, nil
}
