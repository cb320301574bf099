package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/dgallion1/chapterlint/internal/extract"
	"github.com/dgallion1/chapterlint/internal/rules"
	"github.com/dgallion1/chapterlint/internal/scanner"
)

// Runner executes the per-file check pipeline (load, derive facts,
// evaluate rules) over a set of chapter paths with bounded concurrency.
type Runner struct {
	ruleset rules.RuleSet
	log     *slog.Logger
	workers int

	// Stats records per-file check latencies. Shared with the HTTP server
	// in serve mode.
	Stats *CheckStats
}

func NewRunner(rs rules.RuleSet, log *slog.Logger, workers int) *Runner {
	if workers <= 0 {
		workers = 4
	}
	return &Runner{
		ruleset: rs,
		log:     log,
		workers: workers,
		Stats:   NewCheckStats(time.Hour),
	}
}

// RuleSet returns the immutable rule set this runner evaluates against.
func (r *Runner) RuleSet() rules.RuleSet { return r.ruleset }

// Run checks every path and returns one result per path, sorted by path so
// output is deterministic regardless of worker completion order. A file
// that cannot be read becomes a synthetic fail result; it never aborts the
// run or the other files.
func (r *Runner) Run(ctx context.Context, paths []string) []rules.Result {
	results := make(chan rules.Result, len(paths))
	sem := make(chan struct{}, r.workers)

	for _, path := range paths {
		sem <- struct{}{}
		go func(path string) {
			defer func() { <-sem }()
			results <- r.CheckFile(path)
		}(path)
	}

	collected := make([]rules.Result, 0, len(paths))
	for range paths {
		collected = append(collected, <-results)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].Path < collected[j].Path })
	return collected
}

// CheckFile runs the full pipeline for one file on disk.
func (r *Runner) CheckFile(path string) rules.Result {
	start := time.Now()
	doc, err := scanner.Load(path)
	if err != nil {
		var readErr *scanner.ReadError
		if errors.As(err, &readErr) {
			r.log.Warn("unreadable chapter", "path", path, "error", readErr.Err)
		} else {
			r.log.Warn("unreadable chapter", "path", path, "error", err)
		}
		return rules.UnreadableResult(path)
	}
	res := r.check(doc)
	r.Stats.Record(time.Since(start))
	return res
}

// CheckContent runs the pipeline for in-memory content, as submitted to the
// HTTP check endpoint.
func (r *Runner) CheckContent(name string, content []byte) rules.Result {
	start := time.Now()
	doc, err := scanner.FromBytes(name, content)
	if err != nil {
		return rules.UnreadableResult(name)
	}
	res := r.check(doc)
	r.Stats.Record(time.Since(start))
	return res
}

func (r *Runner) check(doc *scanner.ChapterDocument) rules.Result {
	facts := extract.Derive(doc)
	res := rules.Evaluate(doc.Path, facts, r.ruleset)
	r.log.Debug("checked chapter",
		"path", doc.Path,
		"status", res.Status,
		"violations", len(res.Violations),
		"lines", doc.LineCount,
	)
	return res
}
