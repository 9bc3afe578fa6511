package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brettski74/milton/internal/milerr"
	"github.com/brettski74/milton/internal/status"
)

// Column is one `--log <key[:fmt]>` spec.md §6 flag: a dotted status
// path plus an optional printf-style format (default "%s").
type Column struct {
	Key    string
	Format string
}

// ParseColumn splits a "key" or "key:fmt" flag value into a Column.
func ParseColumn(spec string) Column {
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		return Column{Key: spec[:idx], Format: spec[idx+1:]}
	}
	return Column{Key: spec, Format: "%s"}
}

// csvLogger writes one newline-terminated CSV line per tick, with a
// header row of column keys written once at construction (spec.md §6).
type csvLogger struct {
	file     *os.File
	columns  []Column
	accessors []accessor
}

// ExpandFilename resolves the `%c`/`%d` template placeholders spec.md §6
// defines: %c is the invoking command name, %d is a YYYYMMDD-HHMMSS run
// timestamp.
func ExpandFilename(template, command string, runStart time.Time) string {
	replacer := strings.NewReplacer(
		"%c", command,
		"%d", runStart.Format("20060102-150405"),
	)
	return replacer.Replace(template)
}

// NewCSV opens (creating or truncating) path and writes the header row
// for columns.
func NewCSV(path string, columns []Column) (Logger, error) {
	if len(columns) == 0 {
		return nil, milerr.New(milerr.Empty, "csv logger requires at least one column")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, milerr.Wrap(milerr.ConfigNotFound, path, err)
	}

	accessors := make([]accessor, len(columns))
	headers := make([]string, len(columns))
	for i, col := range columns {
		accessors[i] = compileAccessor(col.Key)
		headers[i] = col.Key
	}

	if _, err := fmt.Fprintln(f, strings.Join(headers, ",")); err != nil {
		f.Close()
		return nil, err
	}

	return &csvLogger{file: f, columns: columns, accessors: accessors}, nil
}

func (l *csvLogger) Log(s *status.Status) error {
	fields := make([]string, len(l.columns))
	for i, col := range l.columns {
		value := l.accessors[i](s)
		if col.Format == "" || col.Format == "%s" {
			fields[i] = fmt.Sprint(value)
		} else {
			fields[i] = fmt.Sprintf(col.Format, value)
		}
	}

	_, err := fmt.Fprintln(l.file, strings.Join(fields, ","))
	return err
}

// LogWarning writes to stderr rather than the CSV file: the file's
// column schema is fixed at construction (the header row), so a
// free-text warning has nowhere to go in it.
func (l *csvLogger) LogWarning(message string) error {
	_, err := fmt.Fprintf(os.Stderr, "[%s] WARNING: %s\n", time.Now().Format(time.StampMilli), message)
	return err
}

func (l *csvLogger) Close() error {
	return l.file.Close()
}
