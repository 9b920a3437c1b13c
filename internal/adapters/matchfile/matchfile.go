// Package matchfile reads and writes two-column match lists.
//
// Each non-empty line holds a winner and a loser, separated by a comma or by
// whitespace. Lines starting with '#' are comments. The first comma
// separated row is a header and is always skipped, whatever its column
// names; whitespace separated lists carry no header unless the first row
// reads "winner loser".
package matchfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/standings/internal/domain/model"
)

// Header is the first row written by Write.
var Header = []string{"winner", "loser"}

// Read parses a match list from r.
func Read(r io.Reader) ([]model.Match, error) {
	var (
		out   []model.Match
		line  int
		first = true
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields, err := split(text)
		if err != nil || len(fields) != 2 {
			return nil, &LineError{Line: line, Text: text}
		}
		if first {
			first = false
			if strings.Contains(text, ",") || isHeader(fields) {
				continue
			}
		}
		out = append(out, model.Match{
			Winner: strings.TrimSpace(fields[0]),
			Loser:  strings.TrimSpace(fields[1]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return out, nil
}

// ReadFile parses the match list stored at path.
func ReadFile(path string) ([]model.Match, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() { _ = f.Close() }()

	matches, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return matches, nil
}

// split tokenises one line: CSV when it contains a comma, whitespace otherwise.
func split(text string) ([]string, error) {
	if !strings.Contains(text, ",") {
		return strings.Fields(text), nil
	}
	cr := csv.NewReader(strings.NewReader(text))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr.Read()
}

func isHeader(fields []string) bool {
	return strings.EqualFold(strings.TrimSpace(fields[0]), Header[0]) &&
		strings.EqualFold(strings.TrimSpace(fields[1]), Header[1])
}

// Write emits matches as CSV with a header row.
func Write(w io.Writer, matches []model.Match) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, m := range matches {
		if err := cw.Write([]string{m.Winner, m.Loser}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes matches to path, replacing any existing file.
func WriteFile(path string, matches []model.Match) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, matches); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
