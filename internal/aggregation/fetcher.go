// Package aggregation reads task statistics from the task service on behalf
// of the project service. A fetch never fails from the caller's point of
// view: when the task service is slow, down or answers garbage, the project
// is shown with zero stats instead.
package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/metrics"
	"github.com/iliyamo/project-tracker/internal/model"
)

// DefaultTimeout bounds a single stats fetch.
const DefaultTimeout = 300 * time.Millisecond

const maxBodyBytes = 64 << 10

// Fetcher calls GET {base}/api/tasks/project/{id}/stats.
type Fetcher struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
	log     logger.Logger
	metrics metrics.FetchRecorder
}

// NewFetcher builds a fetcher. A nil client uses a fresh http.Client; the
// per-call timeout is applied through the request context either way.
func NewFetcher(client *http.Client, baseURL string, timeout time.Duration, log logger.Logger, rec metrics.FetchRecorder) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if rec == nil {
		rec = metrics.NopRecorder{}
	}
	return &Fetcher{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		log:     log,
		metrics: rec,
	}
}

// fetchError carries the metrics outcome of a failed fetch.
type fetchError struct {
	outcome string
	err     error
}

func (e *fetchError) Error() string { return e.outcome + ": " + e.err.Error() }
func (e *fetchError) Unwrap() error { return e.err }

// FetchStats returns the project's stats, or zero stats on any failure.
// credential is the caller's raw bearer token and is forwarded as is.
func (f *Fetcher) FetchStats(ctx context.Context, projectID uint64, credential string) model.Stats {
	start := time.Now()
	stats, err := f.fetch(ctx, projectID, credential)
	elapsed := time.Since(start)
	if err != nil {
		var fe *fetchError
		outcome := metrics.OutcomeUnreachable
		if errors.As(err, &fe) {
			outcome = fe.outcome
		}
		f.metrics.RecordStatsFetch(outcome, elapsed)
		f.log.Warn("task stats unavailable, using zero stats",
			logger.Uint64("project_id", projectID),
			logger.String("outcome", outcome),
			logger.Duration("elapsed", elapsed),
			logger.Err(err))
		return model.Stats{}
	}
	f.metrics.RecordStatsFetch(metrics.OutcomeOK, elapsed)
	return stats
}

func (f *Fetcher) fetch(ctx context.Context, projectID uint64, credential string) (model.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/api/tasks/project/%d/stats", f.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Stats{}, &fetchError{metrics.OutcomeUnreachable, err}
	}
	req.Header.Set("Accept", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return model.Stats{}, &fetchError{classify(ctx, err, metrics.OutcomeUnreachable), err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return model.Stats{}, &fetchError{metrics.OutcomeBadStatus, fmt.Errorf("status %d", resp.StatusCode)}
	}

	stats, err := decodeStats(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.Stats{}, &fetchError{classify(ctx, err, metrics.OutcomeBadBody), fmt.Errorf("decode: %w", err)}
	}
	return stats, nil
}

// statsBody mirrors model.Stats with pointers so absent fields are caught.
type statsBody struct {
	TotalTasks         *int     `json:"totalTasks"`
	CompletedTasks     *int     `json:"completedTasks"`
	ProgressPercentage *float64 `json:"progressPercentage"`
}

// decodeStats accepts exactly one object carrying all three fields with
// consistent counts.
func decodeStats(r io.Reader) (model.Stats, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var body statsBody
	if err := dec.Decode(&body); err != nil {
		return model.Stats{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Stats{}, errors.New("trailing data after stats object")
	}
	if body.TotalTasks == nil || body.CompletedTasks == nil || body.ProgressPercentage == nil {
		return model.Stats{}, errors.New("stats object is missing fields")
	}
	total, completed, pct := *body.TotalTasks, *body.CompletedTasks, *body.ProgressPercentage
	if total < 0 || completed < 0 || completed > total || pct < 0 || pct > 100 {
		return model.Stats{}, fmt.Errorf("inconsistent stats %d/%d/%.2f", total, completed, pct)
	}
	return model.Stats{TotalTasks: total, CompletedTasks: completed, ProgressPercentage: pct}, nil
}

// classify reports a timeout when the deadline cut the call short and
// fallback otherwise.
func classify(ctx context.Context, err error, fallback string) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return metrics.OutcomeTimeout
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return metrics.OutcomeTimeout
	}
	return fallback
}
