package client

import (
	"context"
	"fmt"
	"strconv"

	pipehttp "github.com/fivetwenty-io/pipeliner-client/internal/http"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

var _ crm.InfoClient = (*InfoMethods)(nil)

// InfoMethods implements crm.InfoClient.
type InfoMethods struct {
	httpClient *pipehttp.Client
}

// NewInfoMethods creates a new info client.
func NewInfoMethods(httpClient *pipehttp.Client) *InfoMethods {
	return &InfoMethods{
		httpClient: httpClient,
	}
}

// TeamPipelineURL implements crm.InfoClient.TeamPipelineURL.
func (c *InfoMethods) TeamPipelineURL(ctx context.Context) (string, error) {
	var teamURL string

	err := c.httpClient.GetJSON(ctx, "/teamPipelineUrl", &teamURL)
	if err != nil {
		return "", fmt.Errorf("getting team pipeline URL: %w", err)
	}

	return teamURL, nil
}

// TeamPipelineVersion implements crm.InfoClient.TeamPipelineVersion. The
// server may send the version as a number or a string.
func (c *InfoMethods) TeamPipelineVersion(ctx context.Context) (int, error) {
	var raw interface{}

	err := c.httpClient.GetJSON(ctx, "/teamPipelineVersion", &raw)
	if err != nil {
		return 0, fmt.Errorf("getting team pipeline version: %w", err)
	}

	version, err := strconv.Atoi(fmt.Sprint(raw))
	if err != nil {
		return 0, fmt.Errorf("parsing team pipeline version %v: %w", raw, err)
	}

	return version, nil
}

// ServerUTCDateTime implements crm.InfoClient.ServerUTCDateTime.
func (c *InfoMethods) ServerUTCDateTime(ctx context.Context) (string, error) {
	var dateTime string

	err := c.httpClient.GetJSON(ctx, "/serverAPIUtcDateTime", &dateTime)
	if err != nil {
		return "", fmt.Errorf("getting server time: %w", err)
	}

	return dateTime, nil
}

// ErrorCodes implements crm.InfoClient.ErrorCodes.
func (c *InfoMethods) ErrorCodes(ctx context.Context) (any, error) {
	return c.getDocument(ctx, "/errorCodes", "error codes")
}

// Collections implements crm.InfoClient.Collections. The collection list is
// served at the base URL itself.
func (c *InfoMethods) Collections(ctx context.Context) (any, error) {
	return c.getDocument(ctx, "", "collections")
}

// EntityPublic implements crm.InfoClient.EntityPublic.
func (c *InfoMethods) EntityPublic(ctx context.Context) (any, error) {
	return c.getDocument(ctx, "/entityPublic", "public entities")
}

// EntityFields implements crm.InfoClient.EntityFields.
func (c *InfoMethods) EntityFields(ctx context.Context, entityName string) (any, error) {
	return c.getDocument(ctx, "/getFields/"+entityName, entityName+" fields")
}

func (c *InfoMethods) getDocument(ctx context.Context, path, what string) (any, error) {
	var doc any

	err := c.httpClient.GetJSON(ctx, path, &doc)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", what, err)
	}

	return doc, nil
}
