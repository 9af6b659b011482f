package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/sfxagent/internal/config"
	"github.com/ShayCichocki/sfxagent/internal/decompose"
	"github.com/ShayCichocki/sfxagent/internal/feedback"
	"github.com/ShayCichocki/sfxagent/internal/history"
	"github.com/ShayCichocki/sfxagent/internal/library"
	"github.com/ShayCichocki/sfxagent/internal/llm"
	"github.com/ShayCichocki/sfxagent/internal/orchestrator"
	"github.com/ShayCichocki/sfxagent/internal/postprocess"
	"github.com/ShayCichocki/sfxagent/internal/storage"
	"github.com/ShayCichocki/sfxagent/internal/synth"
)

// app holds the collaborators built for one run and how to release them.
type app struct {
	agent   *orchestrator.Agent
	closers []func() error
}

// Close releases every collaborator in reverse order of creation.
func (r *app) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildApp wires the agent from cfg. opts are appended after the options
// derived from cfg.
func buildApp(ctx context.Context, cfg *config.Config, logger *orchestrator.Logger, opts ...orchestrator.Option) (*app, error) {
	rt := &app{}
	fail := func(err error) (*app, error) {
		_ = rt.Close()
		return nil, err
	}

	apiKey, err := config.ElevenLabsKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w (set ELEVENLABS_API_KEY or elevenlabs.api_key)", err)
	}

	evaluator, err := llm.New(ctx, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}
	rt.closers = append(rt.closers, func() error { return llm.Close(evaluator) })

	base := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithSink(storage.NewLocal(cfg.Output.Folder)),
		orchestrator.WithAdvisor(feedback.New(evaluator, cfg.Gemma.Model)),
	}

	if cfg.Output.S3Bucket != "" {
		client, err := storage.NewS3Client(ctx, cfg.Output.S3Region)
		if err != nil {
			return fail(fmt.Errorf("s3 mirror: %w", err))
		}
		base = append(base, orchestrator.WithMirror(storage.NewS3Mirror(client, cfg.Output.S3Bucket, cfg.Output.S3Prefix)))
	}

	if cfg.History.Enabled {
		db, err := openHistory(cfg.History.Path)
		if err != nil {
			logger.Warnf("history disabled: %v", err)
		} else {
			rt.closers = append(rt.closers, db.Close)
			if n, err := db.MarkInterrupted(time.Now()); err != nil {
				logger.Warnf("history: %v", err)
			} else if n > 0 {
				logger.Infof("marked %d unfinished runs as interrupted", n)
			}
			base = append(base, orchestrator.WithHistory(db))
		}
	}

	rt.agent = orchestrator.New(orchestrator.RequiredConfig{
		Config:     cfg,
		Decomposer: decompose.New(evaluator, cfg.Gemma.Model),
		Synthesizer: synth.NewClient(synth.Config{
			BaseURL:    cfg.ElevenLabs.BaseURL,
			APIKey:     apiKey,
			Endpoint:   cfg.ElevenLabs.Endpoint,
			SampleRate: cfg.ElevenLabs.SampleRate,
		}),
		Processor: postprocess.New(postprocess.Config{
			TargetLUFS:      cfg.Processing.TargetLUFS,
			Trim:            cfg.Processing.Trim,
			TrimThresholdDB: cfg.Processing.TrimThresholdDB,
			SampleRate:      cfg.Processing.SampleRate,
			BitDepth:        cfg.Processing.BitDepth,
		}),
		Library: library.New(cfg.Library.Path),
	}, append(base, opts...)...)
	return rt, nil
}

// openHistory opens and migrates the run history database.
func openHistory(path string) (*history.DB, error) {
	db, err := history.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return db, nil
}
