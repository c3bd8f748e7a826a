package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	vaultshot "github.com/alnah/go-vaultshot"
	"github.com/alnah/go-vaultshot/internal/dom"
	"github.com/alnah/go-vaultshot/internal/pipeline"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// publishedSuffix names the document written for a note, so that an .html
// note is never overwritten by its own published copy.
const publishedSuffix = ".published.html"

// Sentinel errors for batch operations.
var (
	ErrReadNote      = errors.New("failed to read note")
	ErrWriteDocument = errors.New("failed to write published document")
	ErrExporterInit  = errors.New("failed to initialize exporter")
	ErrCaptureFailed = errors.New("capture failed")
)

// SnapResult holds the outcome of a single note.
type SnapResult struct {
	NotePath     string
	DocumentPath string // Published document, empty unless publishing
	Snapshots    []vaultshot.Snapshot
	Targets      int
	Err          error
	Duration     time.Duration
}

// snapBatch processes notes concurrently using the exporter pool.
func snapBatch(ctx context.Context, pool Pool, notes []NoteToSnap, params *snapParams) []SnapResult {
	if len(notes) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(notes))

	results := make([]SnapResult, len(notes))
	var wg sync.WaitGroup
	jobs := make(chan int, len(notes))

	for range concurrency {
		wg.Go(func() {
			pub := pool.Acquire()
			if pub == nil {
				// Pool closed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = SnapResult{NotePath: notes[idx].Path, Err: ErrExporterInit}
				}
				return
			}
			defer pool.Release(pub)

			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = SnapResult{NotePath: notes[idx].Path, Err: err}
					continue
				}
				results[idx] = snapNote(ctx, pub, notes[idx], params)
			}
		})
	}

	for i := range notes {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// snapNote renders one note, captures its targets, and optionally writes
// the published document.
func snapNote(ctx context.Context, pub Publisher, note NoteToSnap, params *snapParams) (result SnapResult) {
	start := time.Now()
	result.NotePath = note.Path
	defer func() { result.Duration = time.Since(start) }()

	content, err := os.ReadFile(note.Path) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadNote, err)
		return result
	}

	doc, err := params.renderer.Render(ctx, pipeline.Note{Path: note.Path, Content: string(content)})
	if err != nil {
		result.Err = err
		return result
	}

	targets := pipeline.SelectTargets(doc, params.elements)
	result.Targets = len(targets)
	if len(targets) == 0 {
		params.logger.Debug("nothing to capture", "note", note.Path)
		return result
	}

	name := pipeline.NoteTitle(note.Path)
	opts := vaultshot.PublishOptions{
		Directory:   snapshotDir(params.directory, note.Rel),
		BaseName:    name,
		ImageBase:   params.imageBase,
		Style:       params.style,
		ProbeImages: params.probeImages,
	}
	if params.publish {
		opts.Title = params.title
		if opts.Title == "" {
			opts.Title = name
		}
	}

	publication, err := pub.Publish(ctx, doc, targets, opts)
	if err != nil {
		result.Err = err
		return result
	}
	result.Snapshots = publication.Snapshots

	if params.publish {
		docPath, err := writeDocument(publication, note, params.outDir)
		if err != nil {
			result.Err = err
			return result
		}
		result.DocumentPath = docPath
	}

	if publication.Failed > 0 {
		result.Err = fmt.Errorf("%w: %d of %d element(s)", ErrCaptureFailed, publication.Failed, len(targets))
	}
	return result
}

// snapshotDir mirrors the note's folder under the capture directory, so
// notes with the same name in different folders do not collide.
func snapshotDir(directory, rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return directory
	}
	return path.Join(directory, dir)
}

// writeDocument writes the published copy of a note. Without outDir the
// document lands next to the note; otherwise the input tree is mirrored.
func writeDocument(p *vaultshot.Publication, note NoteToSnap, outDir string) (string, error) {
	content, err := dom.Render(p.Document)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteDocument, err)
	}

	base := pipeline.NoteTitle(note.Path) + publishedSuffix
	var outPath string
	if outDir == "" {
		outPath = filepath.Join(filepath.Dir(note.Path), base)
	} else {
		outPath = filepath.Join(outDir, filepath.FromSlash(path.Dir(note.Rel)), base)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), dirPermissions); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteDocument, err)
	}
	// #nosec G306 -- published documents are meant to be readable
	if err := os.WriteFile(outPath, []byte(content), filePermissions); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWriteDocument, err)
	}
	return outPath, nil
}

// ResultSummary holds the count of succeeded, skipped and failed notes.
type ResultSummary struct {
	Succeeded int
	Skipped   int // No capture target
	Failed    int
	Snapshots int
}

// countResults tallies the batch outcome.
func countResults(results []SnapResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		summary.Snapshots += len(r.Snapshots)
		switch {
		case r.Err != nil:
			summary.Failed++
		case r.Targets == 0:
			summary.Skipped++
		default:
			summary.Succeeded++
		}
	}
	return summary
}

// printSnapResults outputs batch results and returns the summary.
func printSnapResults(results []SnapResult, quiet, verbose bool, env *Environment) ResultSummary {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.NotePath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		switch {
		case r.Targets == 0:
			if verbose {
				fmt.Fprintf(env.Stdout, "Skipped %s (nothing to capture)\n", r.NotePath)
			}
		case verbose:
			paths := make([]string, len(r.Snapshots))
			for i, s := range r.Snapshots {
				paths[i] = s.Path
			}
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.NotePath, strings.Join(paths, ", "), r.Duration.Round(time.Millisecond))
		default:
			fmt.Fprintf(env.Stdout, "Captured %d from %s\n", len(r.Snapshots), r.NotePath)
		}
		if r.DocumentPath != "" {
			fmt.Fprintf(env.Stdout, "Published %s\n", r.DocumentPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d skipped, %d failed (%d snapshots)\n",
			summary.Succeeded, summary.Skipped, summary.Failed, summary.Snapshots)
	}

	return summary
}
