package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Fact represents a single record served by the facts store
type Fact struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tag       string    `json:"tag"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// Complete reports whether the fact carries the fields a card needs
func (f Fact) Complete() bool {
	return f.ID != "" && f.Title != "" && f.Body != ""
}

// FetchKind identifies which operation produced a result set
type FetchKind string

const (
	FetchRandom  FetchKind = "random"
	FetchByTitle FetchKind = "title"
	FetchByQuery FetchKind = "query"
)

// timestampLayouts are tried in order. The store emits zone-less local
// date-times; RFC 3339 is accepted as well.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Timestamp is a lenient time value. Unparsable input decodes to the zero
// time and is kept in Raw.
type Timestamp struct {
	time.Time
	Raw string
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// Not a string: keep the literal so nothing is lost
		*t = Timestamp{Raw: string(data)}
		return nil
	}
	*t = ParseTimestamp(raw)
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		if t.Raw == "" {
			return []byte("null"), nil
		}
		return json.Marshal(t.Raw)
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// ParseTimestamp parses s with the accepted layouts
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: parsed, Raw: s}
		}
	}
	return Timestamp{Raw: s}
}

// UniqueFacts returns facts with duplicate IDs removed, keeping the first
// occurrence and the original order
func UniqueFacts(facts []Fact) []Fact {
	seen := make(map[string]bool, len(facts))
	out := make([]Fact, 0, len(facts))
	for _, f := range facts {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}
