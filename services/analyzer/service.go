// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer implements symbolic path analysis over a small
// statically-typed imperative source dialect.
//
// The pipeline runs strictly forward: precheck, AST adaptation, context
// tree construction, path enumeration, condition building, per-path SMT
// solving, and verdict assembly. One request owns all intermediate
// state; nothing persists across requests.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/pathprobe/services/analyzer/ast"
	"github.com/AleutianAI/pathprobe/services/analyzer/contexttree"
	"github.com/AleutianAI/pathprobe/services/analyzer/symbolic"
)

// ServiceVersion is the analyzer service version.
const ServiceVersion = "0.1.0"

// ServiceName identifies the analyzer in health responses and logs.
const ServiceName = "pathprobe-analyzer"

// ServiceConfig controls analysis defaults. Request options override
// the timeouts per request within validated bounds.
type ServiceConfig struct {
	// AnalysisTimeout bounds one whole analysis request.
	AnalysisTimeout time.Duration

	// PathSolverTimeout bounds each per-path solver check.
	PathSolverTimeout time.Duration

	// MaxSourceSize bounds the accepted source text.
	MaxSourceSize int64
}

// DefaultServiceConfig returns the standard configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		AnalysisTimeout:   10 * time.Second,
		PathSolverTimeout: 2 * time.Second,
		MaxSourceSize:     ast.DefaultMaxSourceSize,
	}
}

// Service runs symbolic path analysis requests.
//
// Thread Safety: Service is safe for concurrent use. All per-request
// state lives on the stack of Analyze.
type Service struct {
	cfg     ServiceConfig
	adapter *ast.Adapter
}

// NewService creates a Service with the given configuration.
func NewService(cfg ServiceConfig) *Service {
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = DefaultServiceConfig().AnalysisTimeout
	}
	if cfg.PathSolverTimeout <= 0 {
		cfg.PathSolverTimeout = DefaultServiceConfig().PathSolverTimeout
	}
	if cfg.MaxSourceSize <= 0 {
		cfg.MaxSourceSize = DefaultServiceConfig().MaxSourceSize
	}
	return &Service{
		cfg:     cfg,
		adapter: ast.NewAdapter(ast.WithMaxSourceSize(cfg.MaxSourceSize)),
	}
}

// Config returns the service configuration.
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// Analyze runs the full pipeline on one source program.
//
// Description:
//
//	Stages execute in strict sequence; the only blocking stage is the
//	per-path solver check, which honors both the per-path bound and the
//	request deadline. On any fatal error no partial results are
//	returned.
//
// Inputs:
//   - ctx: Request context; cancellation propagates into the solver
//     stage.
//   - req: The analysis request. SourceText must be non-empty; option
//     bounds are assumed validated by the caller.
//
// Outputs:
//   - *AnalyzeResponse: Ordered, de-duplicated path notes plus request
//     metadata. Nil on error.
//   - error: Always an *AnalysisError on failure.
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	started := time.Now()

	analysisTimeout := s.cfg.AnalysisTimeout
	if req.AnalysisTimeoutMs > 0 {
		analysisTimeout = time.Duration(req.AnalysisTimeoutMs) * time.Millisecond
	}
	pathTimeout := s.cfg.PathSolverTimeout
	if req.PathSolverTimeoutMs > 0 {
		pathTimeout = time.Duration(req.PathSolverTimeoutMs) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "analyzer.Analyze")
	defer span.End()

	run := &analysisRun{
		svc:         s,
		pathTimeout: pathTimeout,
		source:      []byte(req.SourceText),
	}

	resp, err := run.execute(ctx)
	if err != nil {
		analysisErr := classify(err)
		span.SetAttributes(attribute.String("outcome", string(analysisErr.Category)))
		recordAnalysis(ctx, string(analysisErr.Category), time.Since(started), run.pathCount)
		return nil, analysisErr
	}

	if req.Warnings {
		resp.Warnings = run.warnings
	}
	if req.Logging {
		resp.Trace = run.trace
	}

	span.SetAttributes(
		attribute.String("outcome", "ok"),
		attribute.Int("paths", resp.PathsAnalyzed),
		attribute.Int("notes", len(resp.Notes)),
	)
	recordAnalysis(ctx, "ok", time.Since(started), resp.PathsAnalyzed)
	return resp, nil
}

// analysisRun carries one request's pipeline state.
type analysisRun struct {
	svc         *Service
	pathTimeout time.Duration
	source      []byte

	warnings  []ast.Warning
	trace     []StageTrace
	pathCount int
}

// stage wraps one pipeline stage with trace and span bookkeeping.
func (r *analysisRun) stage(ctx context.Context, name string, fn func(context.Context) (int, error)) error {
	ctx, span := tracer.Start(ctx, "analyzer."+name)
	defer span.End()

	started := time.Now()
	items, err := fn(ctx)
	r.trace = append(r.trace, StageTrace{
		Stage:          name,
		DurationMicros: time.Since(started).Microseconds(),
		Items:          items,
	})
	return err
}

func (r *analysisRun) execute(ctx context.Context) (*AnalyzeResponse, error) {
	var (
		root  *ast.Node
		tree  *contexttree.RootContext
		paths []contexttree.Path
		notes []PathNote
		solve time.Duration
	)

	err := r.stage(ctx, "precheck", func(ctx context.Context) (int, error) {
		diags, err := ast.Precheck(ctx, r.source)
		if err != nil {
			return 0, err
		}
		if len(diags) > 0 {
			return len(diags), precheckError(diags)
		}
		return 0, nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, "adapt", func(ctx context.Context) (int, error) {
		var warnings []ast.Warning
		var err error
		root, warnings, err = r.svc.adapter.Adapt(ctx, r.source)
		r.warnings = append(r.warnings, warnings...)
		return len(warnings), err
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, "build", func(ctx context.Context) (int, error) {
		var warnings []ast.Warning
		tree, warnings = contexttree.Build(root)
		r.warnings = append(r.warnings, warnings...)
		return len(tree.Symbols), nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, "enumerate", func(ctx context.Context) (int, error) {
		paths = contexttree.EnumeratePaths(tree)
		r.pathCount = len(paths)
		return len(paths), nil
	})
	if err != nil {
		return nil, err
	}

	err = r.stage(ctx, "solve", func(ctx context.Context) (int, error) {
		solver := symbolic.NewSolver(tree.Symbols, symbolic.WithPathTimeout(r.pathTimeout))
		for i, path := range paths {
			conds := symbolic.BuildConditions(path)
			result, warnings, err := solver.SolvePath(ctx, conds)
			r.warnings = append(r.warnings, warnings...)
			if err != nil {
				return i, fmt.Errorf("path %d: %w", i, err)
			}
			solve += result.SolveTime
			recordSolve(ctx, result.Verdict.String(), result.SolveTime)

			if note, ok := noteFor(result); ok {
				notes = append(notes, note)
			}
			slog.Debug("path solved",
				slog.Int("path", i),
				slog.String("verdict", result.Verdict.String()),
				slog.Duration("solve_time", result.SolveTime))
		}
		return len(paths), nil
	})
	if err != nil {
		return nil, err
	}

	return &AnalyzeResponse{
		Notes:         dedupeNotes(notes),
		PathsAnalyzed: len(paths),
		SolveTimeMs:   solve.Milliseconds(),
	}, nil
}

// noteFor maps a path verdict onto its optional PathNote. Satisfiable
// paths surface nothing; unsatisfiable paths mark their innermost
// conditional unreachable; unknown verdicts stay reachable with an
// explanation.
func noteFor(result symbolic.PathResult) (PathNote, bool) {
	if !result.HasBranch {
		return PathNote{}, false
	}
	switch result.Verdict {
	case symbolic.VerdictUnsat:
		return PathNote{
			StartLine: result.StartLine,
			EndLine:   result.EndLine,
			Reachable: false,
		}, true
	case symbolic.VerdictUnknown:
		return PathNote{
			StartLine:   result.StartLine,
			EndLine:     result.EndLine,
			Reachable:   true,
			Explanation: "solver returned unknown",
		}, true
	default:
		return PathNote{}, false
	}
}

// dedupeNotes removes duplicate notes, preserving first occurrence.
// Never returns nil: an empty note list serializes as [].
func dedupeNotes(notes []PathNote) []PathNote {
	type key struct {
		start, end int
		reachable  bool
	}
	seen := make(map[key]struct{}, len(notes))
	out := make([]PathNote, 0, len(notes))
	for _, note := range notes {
		k := key{note.StartLine, note.EndLine, note.Reachable}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, note)
	}
	return out
}
