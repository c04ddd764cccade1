// Package client holds HTTP clients for calls between services.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/project-tracker/internal/apperr"
	"github.com/iliyamo/project-tracker/internal/logger"
	"github.com/iliyamo/project-tracker/internal/model"
)

// ProjectClient asks the project service whether a caller owns a project.
type ProjectClient struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	log     logger.Logger
}

func NewProjectClient(hc *http.Client, baseURL string, timeout time.Duration, log logger.Logger) *ProjectClient {
	if hc == nil {
		hc = &http.Client{}
	}
	return &ProjectClient{http: hc, baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout, log: log}
}

// VerifyOwner sends HEAD /api/projects/{id} with the caller's token. The
// project service answers 204 for the owner, 403 for anyone else and 404
// for a missing project. Any other outcome is DependencyUnavailable, so a
// task is never created against an unverified project.
func (c *ProjectClient) VerifyOwner(ctx context.Context, caller model.Caller, projectID uint64) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	url := fmt.Sprintf("%s/api/projects/%d", c.baseURL, projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeDependencyUnavailable, "project service unavailable")
	}
	req.Header.Set("Authorization", "Bearer "+caller.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("project ownership check failed", logger.Uint64("project_id", projectID), logger.Err(err))
		return apperr.Wrap(err, apperr.CodeDependencyUnavailable, "project service unavailable")
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return apperr.Unauthorized
	case resp.StatusCode == http.StatusForbidden:
		return apperr.Forbidden
	case resp.StatusCode == http.StatusNotFound:
		return apperr.New(apperr.CodeNotFound, "project not found")
	default:
		c.log.Warn("project ownership check got unexpected status",
			logger.Uint64("project_id", projectID), logger.Int("status", resp.StatusCode))
		return apperr.New(apperr.CodeDependencyUnavailable, "project service unavailable")
	}
}
