// Package report collects accepted comments per source directory and writes
// one flat-text report into each directory that produced results.
package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/empenoso/comment-sentiment-analyzer/internal/ingest"
	"github.com/empenoso/comment-sentiment-analyzer/internal/links"
)

const separatorWidth = 100

// Entry is one accepted comment together with its origin.
type Entry struct {
	Comment    ingest.Comment
	ArticleURL string
	SourceName string
}

// Aggregator groups accepted comments by source directory. It is append-only
// during the run; sorting happens when reports are written.
type Aggregator struct {
	groups map[string][]Entry
	dirs   []string
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{groups: make(map[string][]Entry)}
}

// Add records an accepted comment under its source directory.
func (a *Aggregator) Add(dir, articleURL string, c ingest.Comment) {
	if _, seen := a.groups[dir]; !seen {
		a.dirs = append(a.dirs, dir)
	}
	a.groups[dir] = append(a.groups[dir], Entry{
		Comment:    c,
		ArticleURL: articleURL,
		SourceName: filepath.Base(dir),
	})
}

// Total returns the number of accepted comments across all directories.
func (a *Aggregator) Total() int {
	n := 0
	for _, entries := range a.groups {
		n += len(entries)
	}
	return n
}

// Dirs returns the directories with accepted comments, in first-seen order.
func (a *Aggregator) Dirs() []string { return a.dirs }

// Entries returns the comments for dir sorted by ID ascending. Missing IDs
// sort as 0 and the sort is stable, so encounter order breaks ties.
func (a *Aggregator) Entries(dir string) []Entry {
	entries := make([]Entry, len(a.groups[dir]))
	copy(entries, a.groups[dir])
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Comment.ID.SortKey() < entries[j].Comment.ID.SortKey()
	})
	return entries
}

// Format renders the report body for a sorted entry list: four labeled lines
// per comment with a separator line between consecutive blocks, none after
// the last.
func Format(entries []Entry) string {
	separator := strings.Repeat("=", separatorWidth)
	var b strings.Builder
	for i, e := range entries {
		url := links.BuildURL(e.SourceName, e.ArticleURL, e.Comment.ID.String())
		fmt.Fprintf(&b, "Author: %s\n", e.Comment.Author)
		fmt.Fprintf(&b, "Date: %s\n", e.Comment.Datetime)
		fmt.Fprintf(&b, "Text: %s\n", e.Comment.Text)
		fmt.Fprintf(&b, "Link: %s\n", url)
		if i < len(entries)-1 {
			b.WriteString(separator + "\n")
		}
	}
	return b.String()
}

// WriteAll writes one report file per directory with accepted comments,
// named <dirname>_positive_comments.txt inside that directory. Directories
// with no accepted comments get no file. Returns the written paths.
func (a *Aggregator) WriteAll() ([]string, error) {
	var written []string
	for _, dir := range a.dirs {
		entries := a.Entries(dir)
		if len(entries) == 0 {
			continue
		}

		name := filepath.Base(dir) + "_positive_comments.txt"
		path := filepath.Join(dir, name)
		log.Printf("Writing %d comments to %s", len(entries), path)

		if err := os.WriteFile(path, []byte(Format(entries)), 0o644); err != nil {
			return written, fmt.Errorf("writing report %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
