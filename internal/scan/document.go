// Package scan reads candidate-pool scan documents, normalizes their
// match entries, and merges validation results back in without touching
// unrelated document content.
package scan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/newthinker/scout/internal/core"
)

// Match is one normalized candidate entry from a scan block.
type Match struct {
	Symbol string `json:"symbol"`
	Note   string `json:"note,omitempty"`
	Source string `json:"source,omitempty"`
	Raw    string `json:"raw,omitempty"`
}

// Document is a loaded scan document. The engine only ever adds the
// validated_at timestamp and the validation block; everything else in
// the document is owned by the discovery side and passes through
// untouched.
type Document struct {
	data map[string]any
}

// Load parses a scan document. Returns ErrDocumentInvalid if the
// payload is not a JSON object.
func Load(raw []byte) (*Document, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, core.WrapError(core.ErrDocumentInvalid, err)
	}
	if data == nil {
		return nil, core.WrapError(core.ErrDocumentInvalid,
			fmt.Errorf("document is null"))
	}
	return &Document{data: data}, nil
}

// Marshal renders the document back to indented JSON. Map keys sort
// deterministically, so identical inputs produce identical bytes.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d.data, "", "  ")
}

// Get returns a top-level document value, for tests and callers that
// need to inspect pass-through content.
func (d *Document) Get(key string) (any, bool) {
	v, ok := d.data[key]
	return v, ok
}

// Extraction is the candidate pool pulled out of a document's scans
// section.
type Extraction struct {
	// Symbols in first-seen order across scan types sorted by name,
	// normalized and deduplicated.
	Symbols []string
	// Matches per scan type, normalized.
	Matches map[string][]Match
	// ScanHits lists which scan types surfaced each symbol.
	ScanHits map[string][]string
}

// Extract walks the scans section and normalizes every match entry.
// Scan blocks may be {"matches": [...]} objects or bare arrays; match
// entries may be objects or "SYMBOL - note - source" strings.
func (d *Document) Extract() Extraction {
	ex := Extraction{
		Matches:  make(map[string][]Match),
		ScanHits: make(map[string][]string),
	}

	scans, ok := d.data["scans"].(map[string]any)
	if !ok {
		return ex
	}

	scanTypes := make([]string, 0, len(scans))
	for scanType := range scans {
		scanTypes = append(scanTypes, scanType)
	}
	sort.Strings(scanTypes)

	seen := make(map[string]bool)
	for _, scanType := range scanTypes {
		block := scans[scanType]

		var rawMatches []any
		switch b := block.(type) {
		case map[string]any:
			rawMatches, _ = b["matches"].([]any)
		case []any:
			rawMatches = b
		}

		matches := make([]Match, 0, len(rawMatches))
		for _, rm := range rawMatches {
			matches = append(matches, NormalizeMatch(rm))
		}
		ex.Matches[scanType] = matches

		for _, m := range matches {
			sym := NormalizeSymbol(m.Symbol)
			if sym == "" {
				continue
			}
			if !seen[sym] {
				seen[sym] = true
				ex.Symbols = append(ex.Symbols, sym)
			}
			if !containsString(ex.ScanHits[sym], scanType) {
				ex.ScanHits[sym] = append(ex.ScanHits[sym], scanType)
			}
		}
	}

	return ex
}

// NormalizeMatch coerces a raw match entry into a Match. Object entries
// keep their fields; string entries split on " - " into symbol, note
// and source, falling back to the first whitespace token.
func NormalizeMatch(raw any) Match {
	switch m := raw.(type) {
	case map[string]any:
		return Match{
			Symbol: strings.TrimSpace(stringField(m, "symbol")),
			Note:   stringField(m, "note"),
			Source: stringField(m, "source"),
			Raw:    stringField(m, "raw"),
		}
	case string:
		s := strings.TrimSpace(m)
		if strings.Contains(s, " - ") {
			var parts []string
			for _, p := range strings.Split(s, " - ") {
				if t := strings.TrimSpace(p); t != "" {
					parts = append(parts, t)
				}
			}
			out := Match{Raw: s}
			if len(parts) > 0 {
				out.Symbol = parts[0]
			}
			if len(parts) > 1 {
				out.Note = parts[1]
			}
			if len(parts) > 2 {
				out.Source = parts[2]
			}
			return out
		}
		fields := strings.Fields(s)
		out := Match{Raw: s}
		if len(fields) > 0 {
			out.Symbol = fields[0]
		}
		return out
	default:
		return Match{Raw: fmt.Sprintf("%v", raw)}
	}
}

// exchange suffixes stripped during normalization
var symbolSuffixes = []string{".NS", ".BSE", ".BO", ".NSE"}

// NormalizeSymbol uppercases a raw symbol and strips known exchange
// suffixes, so "reliance.ns" and "RELIANCE" collapse to the same key.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	for _, suffix := range symbolSuffixes {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
