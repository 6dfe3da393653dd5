package pageviews

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Encode renders a record as 2-space indented JSON with a trailing newline.
// HTML characters in the source URL are written verbatim.
func Encode(record Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// storedRecord mirrors Record but keeps the count undecoded, since files
// written by other tools may carry it as 100.0 or 1e2.
type storedRecord struct {
	TotalPageviews json.RawMessage `json:"totalPageviews"`
	Since          string          `json:"since"`
	Source         string          `json:"source"`
	UpdatedAt      string          `json:"updatedAt"`
}

// Decode parses a stored record. Integral numbers in float or exponent
// notation are accepted for totalPageviews.
func Decode(data []byte) (Record, error) {
	var stored storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	total, err := decodeTotal(stored.TotalPageviews)
	if err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	return Record{
		TotalPageviews: total,
		Since:          stored.Since,
		Source:         stored.Source,
		UpdatedAt:      stored.UpdatedAt,
	}, nil
}

func decodeTotal(raw json.RawMessage) (int64, error) {
	text := string(bytes.TrimSpace(raw))
	if text == "" || text == "null" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("totalPageviews %s is not a number", text)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("totalPageviews %s is not an integer", text)
	}
	return int64(f), nil
}
