// Package triage classifies support tickets. A generative backend is tried
// first; when it fails the keyword heuristic takes over. Either result is
// normalized and then passed through the override rules, which can escalate
// priority on critical or high-priority keywords.
package triage

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tickettriage/internal/domain"
)

// Generator is a generative classifier. Implementations return the decoded
// seven-field JSON object, or an error marked with ErrBackendUnavailable.
type Generator interface {
	Generate(ctx context.Context, ticket string) (domain.RawRecord, error)
}

const (
	SourceGenerator = "generator"
	SourceHeuristic = "heuristic"
)

// Pipeline holds only immutable configuration and is safe for concurrent use.
type Pipeline struct {
	generator Generator
	keywords  Keywords
	rules     *RuleEngine
	log       *zap.SugaredLogger
}

// NewPipeline builds a pipeline. gen may be nil, in which case every ticket
// goes to the heuristic classifier.
func NewPipeline(gen Generator, kw Keywords, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		generator: gen,
		keywords:  kw,
		rules:     NewRuleEngine(kw),
		log:       log,
	}
}

// PrepareTicket trims ticket text and rejects blank input.
func PrepareTicket(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTicket
	}
	return text, nil
}

// Process runs one ticket through generate-or-fallback, Normalize and the
// override rules.
func (p *Pipeline) Process(ctx context.Context, ticket string) (domain.ClassificationRecord, error) {
	log := p.log.With("run_id", uuid.NewString())

	raw, source, err := p.classify(ctx, ticket, log)
	if err != nil {
		return domain.ClassificationRecord{}, err
	}

	rec, err := Normalize(raw)
	if err != nil {
		return domain.ClassificationRecord{}, errors.Wrapf(err, "validate %s output", source)
	}

	final, outcome := p.rules.ApplyWithOutcome(rec, ticket)
	log.Infow("triage complete",
		"source", source,
		"category", final.Category,
		"priority", final.Priority,
		"previous_priority", outcome.Previous,
		"override", string(outcome.Level),
		"override_keyword", outcome.Keyword,
		"urgency_indicators", len(final.UrgencyIndicators),
	)
	return final, nil
}

func (p *Pipeline) classify(ctx context.Context, ticket string, log *zap.SugaredLogger) (any, string, error) {
	if p.generator == nil {
		log.Infow("triage fallback engaged", "reason", "no generator configured")
		return classifyHeuristic(ticket, p.keywords), SourceHeuristic, nil
	}

	raw, err := p.generator.Generate(ctx, ticket)
	if err == nil {
		return raw, SourceGenerator, nil
	}
	if errors.Is(err, ErrInvalidInputType) {
		return nil, "", errors.Wrap(err, "generate classification")
	}

	log.Warnw("triage fallback engaged", "reason", "generator failed", "backend_unavailable", errors.Is(err, ErrBackendUnavailable), "error", err)
	return classifyHeuristic(ticket, p.keywords), SourceHeuristic, nil
}
