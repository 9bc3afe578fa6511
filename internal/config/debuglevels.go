package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/brettski74/milton/internal/milerr"
)

// DebugLevels is a namespace-scoped verbosity table loaded from
// milton-debug.cfg. Each line has the form `Namespace::Path = level`;
// lookups resolve to the longest matching ancestor namespace, falling
// back to 0 (silent) when nothing matches.
type DebugLevels struct {
	levels map[string]int
}

// ParseDebugLevels reads a milton-debug.cfg-format file. Blank lines and
// lines beginning with '#' are ignored.
func ParseDebugLevels(path string) (*DebugLevels, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &DebugLevels{levels: map[string]int{}}, nil
		}
		return nil, milerr.Wrap(milerr.ConfigParse, path, err)
	}
	defer f.Close()

	levels := map[string]int{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, milerr.New(milerr.ConfigParse, "malformed debug level line: "+line)
		}

		namespace := strings.TrimSpace(parts[0])
		level, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, milerr.Wrap(milerr.ConfigParse, "malformed debug level value: "+line, err)
		}

		levels[namespace] = level
	}
	if err := scanner.Err(); err != nil {
		return nil, milerr.Wrap(milerr.ConfigParse, path, err)
	}

	return &DebugLevels{levels: levels}, nil
}

// Level returns the verbosity configured for namespace, resolved to the
// longest matching ancestor entry (segments split on "::"). Returns 0 if
// no entry matches any ancestor.
func (d *DebugLevels) Level(namespace string) int {
	segments := strings.Split(namespace, "::")

	for i := len(segments); i > 0; i-- {
		candidate := strings.Join(segments[:i], "::")
		if level, ok := d.levels[candidate]; ok {
			return level
		}
	}

	return 0
}
