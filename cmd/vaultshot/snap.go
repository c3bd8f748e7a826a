package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/alnah/go-vaultshot/internal/config"
	"github.com/alnah/go-vaultshot/internal/dom"
	"github.com/alnah/go-vaultshot/internal/fileutil"
	"github.com/alnah/go-vaultshot/internal/pipeline"
)

// Sentinel errors for the snap command.
var (
	ErrNoInput            = errors.New("no input specified")
	ErrNoNotes            = errors.New("no notes found")
	ErrInvalidExtension   = errors.New("note must have .md, .markdown, .html or .htm extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// snapParams groups settings shared by every note of a batch.
type snapParams struct {
	renderer    *pipeline.Renderer
	elements    []string
	directory   string
	style       dom.Style
	publish     bool
	outDir      string
	title       string
	imageBase   string
	probeImages bool
	logger      *log.Logger
}

// runSnapCmd parses flags, builds the pool, and runs the batch.
func runSnapCmd(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseSnapFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr)
	}

	cfg, err := loadSettings(flags.common, envCfg)
	if err != nil {
		return err
	}
	if err := mergeSnapFlags(flags, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	workers, err := resolveWorkers(flags.workers, envCfg)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positional)
	if err != nil {
		return err
	}
	notes, err := discoverNotes(inputPath)
	if err != nil {
		return err
	}

	css, err := resolveCSS(cfg)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, cfg.Log.Level, flags.common)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("closing vault", "err", err)
		}
	}()

	params := &snapParams{
		renderer:    pipeline.NewRenderer(pipeline.WithCSS(css)),
		elements:    cfg.Elements(),
		directory:   cfg.Capture.Directory,
		style:       dom.Style(cfg.Capture.Style),
		publish:     cfg.Publish.Enabled,
		outDir:      cfg.Publish.OutDir,
		title:       cfg.Publish.Title,
		imageBase:   flags.publish.imageBase,
		probeImages: cfg.Publish.ProbeImages,
		logger:      logger,
	}
	if params.imageBase == "" {
		params.imageBase = imageBaseFor(store)
	}

	logger.Debug("starting snap", "notes", len(notes), "workers", workers, "vault", cfg.Vault.Path)

	pool := env.NewPool(workers, store, exporterOptions(cfg, flags.browser.trace, logger)...)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("closing browsers", "err", err)
		}
	}()

	results := snapBatch(ctx, pool, notes, params)

	summary := printSnapResults(results, flags.common.quiet, flags.common.verbose, env)
	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d note(s) failed: %w", summary.Failed, firstError(results))
	}
	return nil
}

// mergeSnapFlags merges snap flags into config. CLI values override config values.
func mergeSnapFlags(flags *snapFlags, cfg *config.Config) error {
	mergeVaultFlags(flags.vault, cfg)
	if err := mergeCaptureFlags(flags.capture, cfg); err != nil {
		return err
	}
	mergeBrowserFlags(flags.browser, cfg)

	p := flags.publish
	if p.enabled {
		cfg.Publish.Enabled = true
	}
	if p.outDir != "" {
		cfg.Publish.OutDir = p.outDir
		cfg.Publish.Enabled = true
	}
	if p.title != "" {
		cfg.Publish.Title = p.title
	}
	if p.probeImages {
		cfg.Publish.ProbeImages = true
	}
	return nil
}

// resolveInputPath returns the single positional argument.
func resolveInputPath(positional []string) (string, error) {
	switch len(positional) {
	case 0:
		return "", ErrNoInput
	case 1:
		return positional[0], nil
	default:
		return "", fmt.Errorf("%w: expected one note or directory, got %d arguments", ErrUsage, len(positional))
	}
}

// NoteToSnap represents a single note to process.
type NoteToSnap struct {
	Path string // As found on disk
	Rel  string // Relative to the input directory, slash-separated
}

// discoverNotes lists the notes under inputPath. A single file must have a
// note extension; directories are walked, skipping hidden folders.
func discoverNotes(inputPath string) ([]NoteToSnap, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if !pipeline.IsNote(inputPath) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, inputPath)
		}
		return []NoteToSnap{{Path: inputPath, Rel: filepath.Base(inputPath)}}, nil
	}

	paths, err := fileutil.CollectFiles(inputPath, pipeline.NoteExtensions...)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", inputPath, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoNotes, inputPath)
	}

	notes := make([]NoteToSnap, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(inputPath, p)
		if err != nil {
			rel = filepath.Base(p)
		}
		notes = append(notes, NoteToSnap{Path: p, Rel: filepath.ToSlash(rel)})
	}
	return notes, nil
}

// firstError returns the first failure of a batch.
func firstError(results []SnapResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
