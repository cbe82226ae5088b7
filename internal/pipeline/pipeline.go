// Package pipeline runs one window end to end: fetch every partner,
// archive the raw bodies, normalize, then stage and upsert.
package pipeline

import (
	"context"
	"time"

	"proposal_sync/internal/normalize"
	"proposal_sync/internal/partners/client"
	"proposal_sync/internal/proposals"
	"proposal_sync/internal/staging"
	"proposal_sync/platform/logger"
)

// Fetcher retrieves every partner's answer for a window.
type Fetcher interface {
	FetchWindow(ctx context.Context, w proposals.Window) []client.Result
}

// Merger makes the target reflect a window's rows.
type Merger interface {
	MergeWindow(ctx context.Context, w proposals.Window, rows []proposals.Row) (staging.Result, error)
}

// Archiver keeps raw partner bodies.
type Archiver interface {
	Store(ctx context.Context, partnerID string, w proposals.Window, body []byte) (string, error)
}

// PartnerReport summarizes one partner's answer.
type PartnerReport struct {
	Partner string `json:"partner"`
	Status  int    `json:"status"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
	Archive string `json:"archive,omitempty"`
}

// Report is the outcome of one window run.
type Report struct {
	Window    proposals.Window `json:"-"`
	Partners  []PartnerReport  `json:"partners"`
	Records   int              `json:"records"`
	Fetch     time.Duration    `json:"-"`
	Normalize time.Duration    `json:"-"`
	Merge     staging.Result   `json:"-"`
}

// Pipeline wires the fetch, normalize and merge stages.
type Pipeline struct {
	fetcher    Fetcher
	normalizer *normalize.Normalizer
	merger     Merger
	archiver   Archiver
	log        *logger.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithArchiver stores each successful partner body before normalization.
func WithArchiver(a Archiver) Option {
	return func(p *Pipeline) { p.archiver = a }
}

// New creates a pipeline.
func New(fetcher Fetcher, merger Merger, log *logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		normalizer: normalize.New(),
		merger:     merger,
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one window. Partner failures are reported, not returned;
// the only error is a failed merge.
func (p *Pipeline) Run(ctx context.Context, w proposals.Window) (Report, error) {
	report := Report{Window: w}

	start := time.Now()
	results := p.fetcher.FetchWindow(ctx, w)
	report.Fetch = time.Since(start)

	for _, r := range results {
		pr := PartnerReport{Partner: r.Partner, Status: r.Status, Records: len(r.Records)}
		if r.Err != nil {
			pr.Error = r.Err.Error()
		} else if p.archiver != nil && len(r.Body) > 0 {
			key, err := p.archiver.Store(ctx, r.Partner, w, r.Body)
			if err != nil {
				p.log.WithContext(ctx).WithPartner(r.Partner).Warn("archive failed", "window", w.String(), "error", err)
			} else {
				pr.Archive = key
			}
		}
		report.Partners = append(report.Partners, pr)
	}

	start = time.Now()
	records := client.Records(results)
	rows := make([]proposals.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, p.normalizer.Normalize(rec.Partner, rec.Payload))
	}
	report.Records = len(rows)
	report.Normalize = time.Since(start)

	p.log.Debug("window fetched",
		"window", w.String(),
		"records", len(rows),
		"fetch_ms", report.Fetch.Milliseconds(),
		"normalize_ms", report.Normalize.Milliseconds(),
	)

	res, err := p.merger.MergeWindow(ctx, w, rows)
	report.Merge = res
	if err != nil {
		return report, err
	}
	return report, nil
}
