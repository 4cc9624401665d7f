package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// sniffSampleSize is how much leading text the sniffer inspects.
const sniffSampleSize = 1024

// candidateDelimiters are tried in order; earlier wins ties.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// ErrUndetectedDialect is returned when no candidate delimiter splits the
// sample into a consistent table.
var ErrUndetectedDialect = errors.New("could not detect CSV dialect")

// Dialect describes the delimiter convention of a CSV file. Quoting is
// always '"' with lazy quote handling.
type Dialect struct {
	Delimiter rune
	Sniffed   bool // false when DefaultDialect was used as a fallback
}

// DefaultDialect is the comma-delimited, double-quoted fallback.
var DefaultDialect = Dialect{Delimiter: ','}

// String renders the delimiter for logs.
func (d Dialect) String() string {
	switch d.Delimiter {
	case '\t':
		return "tab"
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	}
	return string(d.Delimiter)
}

// Sniff picks the delimiter that splits the leading sample of text into
// rows of equal width, preferring the widest table.
func Sniff(text string) (Dialect, error) {
	sample := text
	if len(sample) > sniffSampleSize {
		sample = sample[:sniffSampleSize]
		// Drop the trailing partial line.
		if i := strings.LastIndexByte(sample, '\n'); i > 0 {
			sample = sample[:i]
		}
	}

	best := Dialect{}
	bestWidth := 0
	for _, d := range candidateDelimiters {
		width, ok := consistentWidth(sample, d)
		if !ok || width < 2 {
			continue
		}
		if width > bestWidth {
			best = Dialect{Delimiter: d, Sniffed: true}
			bestWidth = width
		}
	}
	if bestWidth == 0 {
		return DefaultDialect, ErrUndetectedDialect
	}
	return best, nil
}

// consistentWidth returns the field count shared by every record in sample.
func consistentWidth(sample string, delim rune) (int, bool) {
	cr := newReader(strings.NewReader(sample), delim)

	width := -1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, false
		}
		if width == -1 {
			width = len(rec)
			continue
		}
		if len(rec) != width {
			return 0, false
		}
	}
	return width, width > 0
}

func newReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}
