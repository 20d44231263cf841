// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the agents in sequence: research, use case
// generation, resource collection, then the final proposal and its files.
// Each stage's output is the next stage's input.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/usecase-engine/internal/logger"
	"github.com/pdiddy/usecase-engine/internal/metrics"
	"github.com/pdiddy/usecase-engine/pkg/types"
)

// Stage names used for progress, history and metrics.
const (
	StageInit      = "init"
	StageResearch  = "research"
	StageUseCases  = "use_cases"
	StageResources = "resources"
	StageProposal  = "proposal"
	StageWrite     = "write"
	StageComplete  = "complete"
)

// Researcher produces the industry report.
type Researcher interface {
	Research(ctx context.Context, subject types.Subject) (*types.ResearchResult, error)
}

// UseCaseGenerator turns research into use cases.
type UseCaseGenerator interface {
	Generate(ctx context.Context, research *types.ResearchResult, extraContext string) (*types.UseCaseResult, error)
}

// ResourceCollector finds resources for the use cases.
type ResourceCollector interface {
	Collect(ctx context.Context, uc *types.UseCaseResult, extraContext string) (*types.ResourceResult, error)
}

// ProposalGenerator writes the final proposal text.
type ProposalGenerator interface {
	Generate(ctx context.Context, research *types.ResearchResult, uc *types.UseCaseResult, res *types.ResourceResult) (*types.Proposal, error)
}

// ProposalWriter persists the proposal documents.
type ProposalWriter interface {
	Write(p *types.Proposal, now time.Time) (types.ProposalFiles, error)
}

// RunStore records run history.
type RunStore interface {
	CreateRun(ctx context.Context, id string, subject types.Subject, startedAt time.Time) error
	SaveStage(ctx context.Context, runID, stage, output string, startedAt, finishedAt time.Time) error
	CompleteRun(ctx context.Context, runID, proposal string, files types.ProposalFiles, finishedAt time.Time) error
	FailRun(ctx context.Context, runID string, runErr error, finishedAt time.Time) error
}

// Publisher uploads the written files and returns their locations.
type Publisher interface {
	Publish(ctx context.Context, runID string, files types.ProposalFiles) ([]string, error)
}

// Progress is reported as the run advances.
type Progress struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// System wires the stages together. Store, Publisher, Metrics and
// OnProgress are optional.
type System struct {
	Research  Researcher
	UseCases  UseCaseGenerator
	Resources ResourceCollector
	Proposal  ProposalGenerator
	Writer    ProposalWriter

	Store     RunStore
	Publisher Publisher
	Metrics   *metrics.Metrics
	Logger    *zap.Logger

	// Out receives stage banners. Nil discards them.
	Out io.Writer

	// OnProgress is called at each milestone.
	OnProgress func(Progress)

	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

var banner = strings.Repeat("=", 80)

// Run executes the pipeline for one subject. A failed stage aborts the run
// and the returned error names the stage. History is best effort: a store
// error is logged and never fails the run.
func (s *System) Run(ctx context.Context, subject types.Subject) (*types.RunResult, error) {
	subject, err := subject.Validate()
	if err != nil {
		return nil, err
	}

	r := &run{sys: s, store: s.Store, log: logger.OrNop(s.Logger).Named("pipeline")}
	r.id = s.newID()
	r.log = r.log.With(zap.String("run_id", r.id))
	result := &types.RunResult{RunID: r.id, Subject: subject}

	if r.store != nil {
		if err := r.store.CreateRun(ctx, r.id, subject, s.now()); err != nil {
			r.log.Warn("run history disabled for this run", zap.Error(err))
			r.store = nil
		}
	}
	r.log.Info("run started", zap.String("subject", subject.CompanyOrIndustry))
	s.progress(10, StageInit, "Initializing agents...")

	s.banner("Starting research for: " + subject.CompanyOrIndustry)
	err = r.stage(ctx, StageResearch, func(ctx context.Context) (string, error) {
		res, err := s.Research.Research(ctx, subject)
		if err != nil {
			return "", err
		}
		result.Research = res
		return res.Research, nil
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	s.progress(40, StageResearch, "Generating AI/ML/GenAI use cases...")

	s.banner("Generating use cases based on research")
	err = r.stage(ctx, StageUseCases, func(ctx context.Context) (string, error) {
		uc, err := s.UseCases.Generate(ctx, result.Research, subject.Context)
		if err != nil {
			return "", err
		}
		result.UseCases = uc
		return uc.UseCases, nil
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	s.progress(70, StageUseCases, "Collecting implementation resources...")

	s.banner("Collecting implementation resources")
	err = r.stage(ctx, StageResources, func(ctx context.Context) (string, error) {
		res, err := s.Resources.Collect(ctx, result.UseCases, subject.Context)
		if err != nil {
			return "", err
		}
		result.Resources = res
		return res.Resources, nil
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}
	s.progress(90, StageResources, "Creating final proposal...")

	s.banner("Generating final proposal")
	err = r.stage(ctx, StageProposal, func(ctx context.Context) (string, error) {
		p, err := s.Proposal.Generate(ctx, result.Research, result.UseCases, result.Resources)
		if err != nil {
			return "", err
		}
		result.Proposal = p
		return p.Markdown, nil
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}

	err = r.stage(ctx, StageWrite, func(context.Context) (string, error) {
		files, err := s.Writer.Write(result.Proposal, s.now())
		if err != nil {
			return "", err
		}
		result.Files = files
		return files.Markdown + "\n" + files.HTML, nil
	})
	if err != nil {
		return nil, r.fail(ctx, err)
	}

	if s.Publisher != nil {
		urls, err := s.Publisher.Publish(ctx, r.id, result.Files)
		if err != nil {
			r.log.Warn("publishing proposal failed", zap.Error(err))
		}
		result.Published = urls
	}

	if r.store != nil {
		if err := r.store.CompleteRun(ctx, r.id, result.Proposal.Markdown, result.Files, s.now()); err != nil {
			r.log.Warn("recording completed run", zap.Error(err))
		}
	}
	s.Metrics.ObserveRun(string(types.RunCompleted))
	r.log.Info("run completed", zap.String("markdown", result.Files.Markdown), zap.String("html", result.Files.HTML))
	s.progress(100, StageComplete, "Process complete!")
	return result, nil
}

// run carries per-run state.
type run struct {
	sys   *System
	id    string
	store RunStore
	log   *zap.Logger
}

// stage times fn, records its output in history and reports it to metrics.
// The returned error is prefixed with the stage name.
func (r *run) stage(ctx context.Context, name string, fn func(context.Context) (string, error)) error {
	start := r.sys.now()
	output, err := fn(ctx)
	end := r.sys.now()
	r.sys.Metrics.ObserveStage(name, end.Sub(start), err)
	if err != nil {
		r.log.Error("stage failed", zap.String("stage", name), zap.Error(err))
		return fmt.Errorf("%s stage: %w", name, err)
	}
	r.log.Debug("stage finished", zap.String("stage", name), zap.Duration("elapsed", end.Sub(start)))

	if r.store != nil {
		if err := r.store.SaveStage(ctx, r.id, name, output, start, end); err != nil {
			r.log.Warn("recording stage output", zap.String("stage", name), zap.Error(err))
		}
	}
	return nil
}

// fail marks the run failed and returns err.
func (r *run) fail(ctx context.Context, err error) error {
	if r.store != nil {
		// The run may have failed because ctx was cancelled.
		if serr := r.store.FailRun(context.WithoutCancel(ctx), r.id, err, r.sys.now()); serr != nil {
			r.log.Warn("recording failed run", zap.Error(serr))
		}
	}
	r.sys.Metrics.ObserveRun(string(types.RunFailed))
	return err
}

func (s *System) progress(percent int, stage, msg string) {
	if s.OnProgress != nil {
		s.OnProgress(Progress{Percent: percent, Stage: stage, Message: msg})
	}
}

func (s *System) banner(title string) {
	if s.Out == nil {
		return
	}
	fmt.Fprintf(s.Out, "\n%s\n%s\n%s\n\n", banner, title, banner)
}

func (s *System) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *System) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
