// Package pipeliner provides the main entry point for creating Pipeliner CRM API clients
package pipeliner

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/pipeliner-client/internal/client"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

// New creates a client for the team pipeline in config. The server is asked
// for the pipeline version, which decides the available entity types.
func New(ctx context.Context, config *crm.Config) (crm.Client, error) {
	if config == nil {
		return nil, crm.ErrConfigRequired
	}

	if config.URL == "" {
		return nil, crm.ErrURLRequired
	}

	normalized := *config
	normalized.URL = normalizeURL(config.URL)

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithCredentials creates a client from a service URL such as
// https://eu.pipelinersales.com, a team pipeline ID and API credentials.
func NewWithCredentials(ctx context.Context, url, pipelineID, apiToken, password string) (crm.Client, error) {
	return New(ctx, &crm.Config{
		URL:        url,
		PipelineID: pipelineID,
		APIToken:   apiToken,
		Password:   password,
	})
}

// normalizeURL trims trailing slashes and defaults the scheme to https.
func normalizeURL(url string) string {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	return url
}
