// Package search finds evaluation records in sorted JSONL shard data.
package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound indicates the position is not in the shard.
var ErrNotFound = errors.New("search: position not found")

// Record is one line of a shard, in the Lichess evaluation database format.
type Record struct {
	FEN   string `json:"fen"`
	Evals []Eval `json:"evals"`
}

// Eval is one engine evaluation of a record's position.
type Eval struct {
	PVs    []PV `json:"pvs"`
	Knodes int  `json:"knodes"`
	Depth  int  `json:"depth"`
}

// PV is a principal variation. Exactly one of CP and Mate is set.
type PV struct {
	CP   *int   `json:"cp,omitempty"`
	Mate *int   `json:"mate,omitempty"`
	Line string `json:"line"`
}

// Moves splits the line into coordinate moves.
func (pv PV) Moves() []string {
	return strings.Fields(pv.Line)
}

// Best returns the deepest evaluation with at least one line.
func (r *Record) Best() (Eval, bool) {
	var best Eval
	found := false
	for _, e := range r.Evals {
		if len(e.PVs) == 0 {
			continue
		}
		if !found || e.Depth > best.Depth || (e.Depth == best.Depth && e.Knodes > best.Knodes) {
			best = e
			found = true
		}
	}
	return best, found
}

// Search binary-searches data, JSONL sorted by FEN, for key.
func Search(data []byte, key string) (*Record, error) {
	lines := SplitLines(data)

	idx := sort.Search(len(lines), func(i int) bool {
		return ExtractFEN(lines[i]) >= key
	})
	if idx >= len(lines) || ExtractFEN(lines[idx]) != key {
		return nil, ErrNotFound
	}

	var record Record
	if err := json.Unmarshal(lines[idx], &record); err != nil {
		return nil, fmt.Errorf("search: parsing record: %w", err)
	}
	return &record, nil
}

// Sort orders JSONL lines by FEN in place, ready for Search.
func Sort(lines [][]byte) {
	sort.SliceStable(lines, func(i, j int) bool {
		return ExtractFEN(lines[i]) < ExtractFEN(lines[j])
	})
}

// SplitLines splits data into lines, skipping empty ones.
func SplitLines(data []byte) [][]byte {
	lines := make([][]byte, 0, bytes.Count(data, []byte{'\n'})+1)
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			data = nil
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

// ExtractFEN pulls the "fen" value out of a JSON line without decoding the
// rest of it. It returns "" when the field is missing.
func ExtractFEN(line []byte) string {
	const prefix = `"fen":"`
	i := bytes.Index(line, []byte(prefix))
	if i < 0 {
		return ""
	}
	start := i + len(prefix)
	end := bytes.IndexByte(line[start:], '"')
	if end < 0 {
		return ""
	}
	return string(line[start : start+end])
}
