// Package ingest reads one JSON comment dump per file. A dump carries the
// article URL and the raw comment records scraped from it; records missing
// an author or text never leave this package.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Dump is the parsed contents of one JSON file.
type Dump struct {
	URL      string    `json:"url"`
	Comments []Comment `json:"comments"`
}

// Comment is one raw comment record. Unknown fields are ignored.
type Comment struct {
	ID       CommentID `json:"id"`
	Author   string    `json:"author"`
	Text     string    `json:"text"`
	Datetime string    `json:"datetime"`
}

// CommentID is an opaque identifier that may arrive as a JSON number, a
// numeric string, or null. It keeps the raw form for display and a numeric
// key for sorting; absent or unparseable IDs sort as 0.
type CommentID struct {
	raw     string
	num     float64
	present bool
}

func (id *CommentID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = CommentID{}
		return nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		id.raw = str
	} else {
		id.raw = s
	}
	id.present = true
	id.num, _ = strconv.ParseFloat(id.raw, 64)
	return nil
}

// SortKey returns the numeric ordering key; 0 when the ID is absent.
func (id CommentID) SortKey() float64 {
	return id.num
}

// String returns the display form of the ID, "unknown" when absent.
func (id CommentID) String() string {
	if !id.present {
		return "unknown"
	}
	return id.raw
}

// ReadFile parses one JSON dump. A missing "url" key yields an empty URL and
// a missing "comments" key an empty list; an unreadable or malformed file is
// an error for the caller to log and skip.
func ReadFile(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var dump Dump
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &dump, nil
}

// Eligible returns the comments that carry both an author and a text.
func (d *Dump) Eligible() []Comment {
	var out []Comment
	for _, c := range d.Comments {
		if c.Author == "" || c.Text == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
