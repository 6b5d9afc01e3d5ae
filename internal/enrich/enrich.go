package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/matsen/bibfix/internal/reference"
	"github.com/matsen/bibfix/internal/textutil"
)

// Defaults for Options.
const (
	DefaultConfidenceThreshold = 0.85
	DefaultTimeout             = 10 * time.Second
)

// Outcome classifies what happened to one queried entry.
type Outcome string

const (
	OutcomeAdded             Outcome = "added"
	OutcomeNotFound          Outcome = "not_found"
	OutcomeLowConfidence     Outcome = "low_confidence"
	OutcomeInvalidIdentifier Outcome = "invalid_identifier"
	OutcomeFailed            Outcome = "failed"
)

// Decision records the lookup for one entry.
type Decision struct {
	Key          string  `json:"key"`
	Outcome      Outcome `json:"outcome"`
	Identifier   string  `json:"identifier,omitempty"`
	MatchedTitle string  `json:"matched_title,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// Report summarizes an enrichment pass.
type Report struct {
	Queried   int        `json:"queried"`
	Added     int        `json:"added"`
	Failed    int        `json:"failed"`
	Skipped   int        `json:"skipped"` // already identified or untitled
	Decisions []Decision `json:"decisions,omitempty"`
}

// AddedKeys returns the keys of entries that gained an identifier.
func (r Report) AddedKeys() []string {
	var keys []string
	for _, d := range r.Decisions {
		if d.Outcome == OutcomeAdded {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Progress receives one tick per entry considered.
type Progress interface {
	Add(n int) error
}

// Options configures an Enricher.
type Options struct {
	ConfidenceThreshold float64       // title similarity, exclusive; 0 means default
	Timeout             time.Duration // per lookup; 0 means default
	Logger              *slog.Logger
	Progress            Progress
}

// Enricher fills missing identifiers one entry at a time.
type Enricher struct {
	lookup Lookup
	opts   Options
	log    *slog.Logger
}

// New creates an Enricher backed by lookup.
func New(lookup Lookup, opts Options) *Enricher {
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enricher{lookup: lookup, opts: opts, log: logger}
}

// Enrich returns a copy of entries where entries without an identifier have
// been looked up in input order. Existing identifiers are never changed.
// Lookup problems are recorded in the report and never returned as errors.
func (en *Enricher) Enrich(ctx context.Context, entries []reference.Entry) ([]reference.Entry, Report) {
	out := reference.CloneEntries(entries)
	var report Report

	for i := range out {
		e := &out[i]
		if e.HasIdentifier() || e.Title() == "" {
			report.Skipped++
			en.tick()
			continue
		}

		d := en.decide(ctx, *e)
		if d.Outcome == OutcomeAdded {
			e.SetIdentifier(d.Identifier)
		}

		report.Queried++
		switch d.Outcome {
		case OutcomeAdded:
			report.Added++
			en.log.Info("identifier added", "key", d.Key, "doi", d.Identifier,
				"confidence", fmt.Sprintf("%.2f", d.Confidence))
		case OutcomeFailed:
			report.Failed++
			en.log.Warn("lookup failed", "key", d.Key, "reason", d.Reason)
		default:
			en.log.Info("no identifier", "key", d.Key, "outcome", string(d.Outcome), "reason", d.Reason)
		}
		report.Decisions = append(report.Decisions, d)
		en.tick()
	}
	return out, report
}

// decide performs one lookup and applies the acceptance rules.
func (en *Enricher) decide(ctx context.Context, e reference.Entry) Decision {
	d := Decision{Key: e.ID}
	if err := ctx.Err(); err != nil {
		d.Outcome, d.Reason = OutcomeFailed, err.Error()
		return d
	}

	callCtx, cancel := context.WithTimeout(ctx, en.opts.Timeout)
	res := en.lookup.Lookup(callCtx, QueryFor(e))
	cancel()

	switch res.Status {
	case Failed:
		d.Outcome = OutcomeFailed
		switch {
		case res.Reason != "":
			d.Reason = res.Reason
		case res.Err != nil:
			d.Reason = res.Err.Error()
		default:
			d.Reason = "lookup failed"
		}
		return d
	case NotFound:
		d.Outcome, d.Reason = OutcomeNotFound, res.Reason
		return d
	case Found:
	default:
		d.Outcome, d.Reason = OutcomeFailed, fmt.Sprintf("unexpected lookup %s", res.Status)
		return d
	}

	c := res.Candidate
	d.MatchedTitle = c.MatchedTitle
	d.Confidence = textutil.TitleSimilarity(e.Title(), c.MatchedTitle)

	if !reference.IsValidDOI(c.Identifier) {
		d.Outcome = OutcomeInvalidIdentifier
		d.Reason = fmt.Sprintf("invalid DOI format %q", c.Identifier)
		return d
	}
	if d.Confidence <= en.opts.ConfidenceThreshold {
		d.Outcome = OutcomeLowConfidence
		d.Reason = fmt.Sprintf("title similarity %.2f not above %.2f", d.Confidence, en.opts.ConfidenceThreshold)
		return d
	}

	d.Outcome = OutcomeAdded
	d.Identifier = reference.NormalizeDOI(c.Identifier)
	return d
}

func (en *Enricher) tick() {
	if en.opts.Progress == nil {
		return
	}
	if err := en.opts.Progress.Add(1); err != nil {
		en.log.Debug("progress update failed", "error", err)
	}
}
