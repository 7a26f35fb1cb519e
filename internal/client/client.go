package client

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	pipehttp "github.com/fivetwenty-io/pipeliner-client/internal/http"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

// Static errors for err113 compliance.
var (
	ErrCredentialsRequired = errors.New("API token and password are required")
)

var _ crm.Client = (*Client)(nil)

// Client implements the crm.Client interface.
type Client struct {
	httpClient     *pipehttp.Client
	baseURL        string
	logger         crm.Logger
	events         crm.EventPublisher
	dateTimeFormat string
	defaultLimit   int
	info           *InfoMethods

	mu                    sync.Mutex
	pipelineVersion       int
	entityTypes           map[string]string
	collectionsToEntities map[string]string
	repositories          map[string]*RestRepository
}

// BaseURL builds the REST base URL of a team pipeline.
func BaseURL(serviceURL, pipelineID string) string {
	return strings.TrimSuffix(serviceURL, "/") + constants.RESTServicesPath + pipelineID
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *crm.Config) []pipehttp.Option {
	httpOpts := []pipehttp.Option{
		pipehttp.WithBasicAuth(config.APIToken, config.Password),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, pipehttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, pipehttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, pipehttp.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, pipehttp.WithTimeout(config.HTTPTimeout))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, pipehttp.WithInterceptors(config.Interceptors))
	}

	if config.RateLimit > 0 {
		httpOpts = append(httpOpts, pipehttp.WithRateLimit(config.RateLimit, config.RateBurst))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, pipehttp.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a client for the team pipeline in config. It asks the server
// for the pipeline version and loads the entity types of that version.
func New(ctx context.Context, config *crm.Config) (*Client, error) {
	if config == nil {
		return nil, crm.ErrConfigRequired
	}

	if config.URL == "" {
		return nil, crm.ErrURLRequired
	}

	if config.PipelineID == "" {
		return nil, crm.ErrPipelineIDRequired
	}

	if config.APIToken == "" || config.Password == "" {
		return nil, ErrCredentialsRequired
	}

	baseURL := BaseURL(config.URL, config.PipelineID)
	httpClient := pipehttp.NewClient(baseURL, createHTTPClientOptions(config)...)

	client := NewWithHTTPClient(httpClient, config, nil)

	version, err := client.info.TeamPipelineVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking team pipeline version: %w", err)
	}

	if version < crm.EarliestVersion {
		return nil, fmt.Errorf("%w: %d (supported versions are %d to %d)",
			crm.ErrUnsupportedVersion, version, crm.EarliestVersion, crm.LatestVersion)
	}

	client.pipelineVersion = version
	client.setEntityTypes(crm.EntityTypes(version))

	if client.logger != nil {
		client.logger.Debug("Connected to team pipeline", map[string]interface{}{
			"base_url":     baseURL,
			"version":      version,
			"entity_types": len(client.entityTypes),
		})
	}

	return client, nil
}

// NewWithHTTPClient creates a client over an existing transport without
// contacting the server. entityTypes maps entity names to collection names.
func NewWithHTTPClient(httpClient *pipehttp.Client, config *crm.Config, entityTypes map[string]string) *Client {
	client := &Client{
		httpClient:     httpClient,
		baseURL:        httpClient.BaseURL(),
		dateTimeFormat: constants.DateTimeFormat,
		defaultLimit:   constants.DefaultLimit,
		info:           NewInfoMethods(httpClient),
		repositories:   make(map[string]*RestRepository),
	}

	if config != nil {
		client.logger = config.Logger
		client.events = config.Events

		if config.DateTimeFormat != "" {
			client.dateTimeFormat = config.DateTimeFormat
		}

		if config.DefaultLimit > 0 {
			client.defaultLimit = config.DefaultLimit
		}
	}

	client.setEntityTypes(entityTypes)

	return client
}

// Repository implements crm.Client.Repository.
func (c *Client) Repository(entityName string) (crm.Repository, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if repo, ok := c.repositories[entityName]; ok {
		return repo, nil
	}

	collection, ok := c.entityTypes[entityName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", crm.ErrUnknownEntityType, entityName)
	}

	opts := []RepositoryOption{
		WithDateTimeFormat(c.dateTimeFormat),
		WithDefaultLimit(c.defaultLimit),
	}

	if c.logger != nil {
		opts = append(opts, WithLogger(c.logger))
	}

	if c.events != nil {
		opts = append(opts, WithEventPublisher(c.events))
	}

	repo := NewRestRepository(c.httpClient, entityName, collection, opts...)
	c.repositories[entityName] = repo

	return repo, nil
}

// RepositoryFor implements crm.Client.RepositoryFor.
func (c *Client) RepositoryFor(entity *crm.Entity) (crm.Repository, error) {
	return c.Repository(entity.TypeName())
}

// Collection implements crm.Client.Collection. The first letter of the
// collection name is case-insensitive.
func (c *Client) Collection(collectionName string) (crm.Repository, error) {
	c.mu.Lock()
	entityName, ok := c.collectionsToEntities[upperFirst(collectionName)]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: collection %s", crm.ErrUnknownEntityType, collectionName)
	}

	return c.Repository(entityName)
}

// EntityTypes implements crm.Client.EntityTypes.
func (c *Client) EntityTypes() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return maps.Clone(c.entityTypes)
}

// RegisterEntityType implements crm.Client.RegisterEntityType.
func (c *Client) RegisterEntityType(entityName, collectionName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entityTypes[entityName] = collectionName
	c.collectionsToEntities[collectionName] = entityName
	delete(c.repositories, entityName)
}

// PipelineVersion implements crm.Client.PipelineVersion.
func (c *Client) PipelineVersion() int {
	return c.pipelineVersion
}

// Info implements crm.Client.Info.
func (c *Client) Info() crm.InfoClient {
	return c.info
}

// HTTPClient returns the underlying transport.
func (c *Client) HTTPClient() *pipehttp.Client {
	return c.httpClient
}

func (c *Client) setEntityTypes(entityTypes map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entityTypes = make(map[string]string, len(entityTypes))
	c.collectionsToEntities = make(map[string]string, len(entityTypes))

	for entity, collection := range entityTypes {
		c.entityTypes[entity] = collection
		c.collectionsToEntities[collection] = entity
	}
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
