// Package pipeline runs the batch: discover JSON dumps, classify every
// eligible comment, aggregate the positives, and write per-directory
// reports. Everything is strictly sequential.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/empenoso/comment-sentiment-analyzer/internal/analyze"
	"github.com/empenoso/comment-sentiment-analyzer/internal/config"
	"github.com/empenoso/comment-sentiment-analyzer/internal/ingest"
	"github.com/empenoso/comment-sentiment-analyzer/internal/oracle"
	"github.com/empenoso/comment-sentiment-analyzer/internal/report"
)

// Result holds the counters of a full run.
type Result struct {
	FilesFound     int
	FilesProcessed int
	FilesSkipped   int
	CommentsSeen   int
	Positive       int
	OracleErrors   int
	Reports        []string
}

// Pipeline wires configuration, oracle, policy, and report writer together.
type Pipeline struct {
	cfg      *config.Config
	provider oracle.Provider
}

// New creates a pipeline. The provider must be non-nil; selection and the
// fatal no-backend case are the caller's job.
func New(cfg *config.Config, provider oracle.Provider) *Pipeline {
	return &Pipeline{cfg: cfg, provider: provider}
}

// dirFiles is the discovered work for one input directory.
type dirFiles struct {
	dir   string
	files []string
}

// Run executes the batch. Zero discovered files and a failing model load are
// fatal; malformed files and per-comment classification errors are counted
// and skipped. A canceled context stops between classifications and returns
// the partial result with ctx.Err().
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	r := &Result{}

	work, err := p.discover()
	if err != nil {
		return r, err
	}
	for _, w := range work {
		r.FilesFound += len(w.files)
	}
	if r.FilesFound == 0 {
		return r, fmt.Errorf("no JSON files found in any input directory")
	}
	log.Printf("Total files to process: %d", r.FilesFound)

	device, err := p.provider.Load(ctx)
	if err != nil {
		return r, fmt.Errorf("loading model: %w", err)
	}
	log.Printf("Model ready (device: %s)", device)

	analyzer := analyze.New(p.cfg, p.provider)
	agg := report.NewAggregator()

	for _, w := range work {
		for _, path := range w.files {
			if ctx.Err() != nil {
				return r, ctx.Err()
			}

			r.FilesProcessed++
			log.Printf("[%d/%d] Processing %s...", r.FilesProcessed, r.FilesFound, filepath.Base(path))

			dump, err := ingest.ReadFile(path)
			if err != nil {
				log.Printf("Warning: skipping %s: %v", filepath.Base(path), err)
				r.FilesSkipped++
				continue
			}

			for _, c := range dump.Eligible() {
				if ctx.Err() != nil {
					return r, ctx.Err()
				}
				r.CommentsSeen++

				positive, err := analyzer.IsPositive(ctx, c.Text, c.Author)
				if err != nil {
					log.Printf("Warning: classification failed for comment %s: %v", c.ID.String(), err)
					r.OracleErrors++
					continue
				}
				if positive {
					agg.Add(w.dir, dump.URL, c)
					r.Positive++
				}
			}
		}
	}

	written, err := agg.WriteAll()
	r.Reports = written
	if err != nil {
		return r, err
	}

	if r.Positive == 0 {
		log.Println("No positive comments found.")
	}
	return r, nil
}

// discover lists *.json files per configured directory. Missing directories
// are warnings, not errors.
func (p *Pipeline) discover() ([]dirFiles, error) {
	var work []dirFiles
	for _, dir := range p.cfg.InputDirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			log.Printf("Warning: directory %q not found, skipping", dir)
			continue
		}

		files, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir, err)
		}
		if len(files) == 0 {
			log.Printf("No json files in %q", dir)
			continue
		}

		log.Printf("Found %d json files in %q", len(files), dir)
		work = append(work, dirFiles{dir: dir, files: files})
	}
	return work, nil
}
