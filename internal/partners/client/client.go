// Package client fetches proposal records from partner APIs.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"proposal_sync/internal/proposals"
	"proposal_sync/platform/apperr"
	"proposal_sync/platform/config"
	"proposal_sync/platform/logger"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	requestType        = "getPropostas"
	filterField        = "cadastro"
	maxBodyBytes       = 512 << 20
)

// Source is one partner's access profile.
type Source struct {
	ID       string
	URL      string
	Username string
	Password string
}

// SourcesFromConfig keeps the configured order.
func SourcesFromConfig(partners []config.Partner) []Source {
	out := make([]Source, 0, len(partners))
	for _, p := range partners {
		out = append(out, Source{ID: p.ID, URL: p.URL, Username: p.Username, Password: p.Password})
	}
	return out
}

type requestAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Empresa  string `json:"empresa"`
}

type requestDateFilter struct {
	Tipo      string `json:"tipo"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type requestFilters struct {
	Data requestDateFilter `json:"data"`
}

type proposalsRequest struct {
	Auth        requestAuth    `json:"auth"`
	RequestType string         `json:"requestType"`
	Filters     requestFilters `json:"filters"`
}

// Record is one raw payload tagged with its partner.
type Record struct {
	Partner string
	Payload map[string]any
}

// Result is one partner's answer for a window. Err is set when the partner
// was skipped.
type Result struct {
	Partner string
	Status  int
	Records []map[string]any
	Body    []byte
	Elapsed time.Duration
	Err     error
}

// Client handles partner requests.
type Client struct {
	httpClient  *http.Client
	sources     []Source
	limiter     *rate.Limiter
	concurrency int
	log         *logger.Logger
}

// New creates a partner client from configuration.
func New(cfg config.PartnerConfig, log *logger.Logger) *Client {
	return NewWithSources(SourcesFromConfig(cfg.GetPartners()), cfg.GetPartnerTimeout(), cfg.GetPartnerPace(), cfg.GetFetchConcurrency(), log)
}

// NewWithSources creates a client over explicit sources.
func NewWithSources(sources []Source, timeout, pace time.Duration, concurrency int, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	if concurrency < 1 {
		concurrency = 1
	}
	limit := rate.Inf
	if pace > 0 {
		limit = rate.Every(pace)
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		sources:     sources,
		limiter:     rate.NewLimiter(limit, 1),
		concurrency: concurrency,
		log:         log,
	}
}

// Sources returns the configured partners in fetch order.
func (c *Client) Sources() []Source {
	return c.sources
}

// FetchWindow asks every partner for the window. A failing partner never
// blocks the others; its Result carries the error. Results follow the
// configured partner order regardless of concurrency.
func (c *Client) FetchWindow(ctx context.Context, w proposals.Window) []Result {
	results := make([]Result, len(c.sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, src := range c.sources {
		g.Go(func() error {
			results[i] = c.fetchOne(gctx, src, w)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Records flattens results into tagged payloads, partner order first.
func Records(results []Result) []Record {
	var out []Record
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		for _, p := range r.Records {
			out = append(out, Record{Partner: r.Partner, Payload: p})
		}
	}
	return out
}

func (c *Client) fetchOne(ctx context.Context, src Source, w proposals.Window) Result {
	res := Result{Partner: src.ID}
	log := c.log.WithContext(ctx)
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	if err := c.limiter.Wait(ctx); err != nil {
		res.Err = apperr.Partner("pacing interrupted", err).WithOp(src.ID)
		return res
	}

	body, status, err := c.post(ctx, log, src, w)
	res.Status = status
	if err != nil {
		res.Err = err
		log.PartnerError(src.ID, w.String(), err)
		return res
	}

	records, err := DecodeRecords(body)
	if err != nil {
		res.Err = apperr.Partner("malformed response body", err).WithOp(src.ID)
		log.PartnerError(src.ID, w.String(), res.Err)
		return res
	}

	res.Records = records
	res.Body = body
	log.PartnerStatus(src.ID, status, w.String(), len(records))
	return res
}

func (c *Client) post(ctx context.Context, log *logger.Logger, src Source, w proposals.Window) ([]byte, int, error) {
	payload := proposalsRequest{
		Auth:        requestAuth{Username: src.Username, Password: src.Password, Empresa: src.ID},
		RequestType: requestType,
		Filters: requestFilters{Data: requestDateFilter{
			Tipo:      filterField,
			StartDate: w.StartDate(),
			EndDate:   w.EndDate(),
		}},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, apperr.Partner("encode request", err).WithOp(src.ID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, src.URL, bytes.NewReader(raw))
	if err != nil {
		return nil, 0, apperr.Partner("build request", err).WithOp(src.ID)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, apperr.Partner("request failed", err).WithOp(src.ID)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		log.PartnerStatus(src.ID, resp.StatusCode, w.String(), 0)
		return nil, resp.StatusCode, apperr.Partner(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil).WithOp(src.ID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, apperr.Partner("read response", err).WithOp(src.ID)
	}
	return body, resp.StatusCode, nil
}

// DecodeRecords accepts a JSON array of records or an object whose values
// are records, keeping document order. Non-object entries are dropped and
// an empty body means no records. Numbers keep their literal text.
func DecodeRecords(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, nil
	}

	var out []map[string]any
	for dec.More() {
		if delim == '{' {
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			out = append(out, m)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
