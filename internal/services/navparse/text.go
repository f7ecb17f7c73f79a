package navparse

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// candidateDelimiters are considered when auto-detecting, ties resolved in this order.
var candidateDelimiters = []rune{';', ',', '\t', '|'}

// detectDelimiter picks the candidate occurring most often in the header line.
// The header is the first non-blank, non-comment line.
func detectDelimiter(text []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		best, bestCount := candidateDelimiters[0], 0
		for _, d := range candidateDelimiters {
			if n := strings.Count(line, string(d)); n > bestCount {
				best, bestCount = d, n
			}
		}
		if bestCount > 0 {
			return best
		}
	}
	return ','
}

// readDelimited splits a text payload into records. Lines with a single field
// (fund house names and category headings in the NAVAll dump) are left out.
func readDelimited(text []byte, delimiter rune) ([][]string, error) {
	text = bytes.TrimPrefix(text, []byte("\xef\xbb\xbf"))
	if delimiter == 0 {
		delimiter = detectDelimiter(text)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delimiter
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = !unicode.IsSpace(delimiter)
	r.ReuseRecord = false

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// A malformed line costs that line only.
				continue
			}
			return nil, fmt.Errorf("read delimited text: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
