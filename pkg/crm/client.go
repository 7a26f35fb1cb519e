package crm

import (
	"context"
	"time"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

// SendMode selects which entity fields a save sends to the server.
type SendMode int

const (
	// SendModifiedFields sends only fields modified since loading or the last save.
	SendModifiedFields SendMode = 0
	// SendAllFields sends every field of the entity.
	SendAllFields SendMode = 1
)

// BatchFlag controls how the server handles failures in bulk operations.
// Flags can be combined with |.
type BatchFlag int

const (
	// RollbackOnError rolls back the whole batch if any entity fails.
	RollbackOnError BatchFlag = 0
	// IgnoreOnError skips failing entities and commits the rest.
	IgnoreOnError BatchFlag = 1
	// InsertOnUpdate creates entities whose ID does not exist yet.
	InsertOnUpdate BatchFlag = 2
	// GetNoDeletedID does not return IDs of deleted entities.
	GetNoDeletedID BatchFlag = 4
	// IgnoreAndReturnErrors skips failing entities and reports their errors.
	IgnoreAndReturnErrors BatchFlag = 8
	// ValidateOnlyUpdatedFields validates only the fields being sent.
	ValidateOnlyUpdatedFields BatchFlag = 256
)

// Repository loads and stores entities of a single type.
type Repository interface {
	// EntityType returns the singular entity name, e.g. "Account".
	EntityType() string
	// CollectionName returns the plural collection name, e.g. "Accounts".
	CollectionName() string

	// Create returns a new, empty entity of this repository's type. Nothing
	// is sent to the server until it is saved.
	Create() *Entity
	// Get loads one page of entities. A nil criteria loads the first page
	// with server defaults.
	Get(ctx context.Context, criteria *query.Criteria) (*EntityCollection, error)
	// GetByID loads a single entity.
	GetByID(ctx context.Context, id string) (*Entity, error)

	// Save creates the entity if it has no ID and updates it otherwise. A
	// created entity gets its new ID set. On success the entity's modified
	// fields are reset.
	Save(ctx context.Context, entity *Entity, mode SendMode) (*Response, error)
	// SaveFields saves a raw field map and returns the entity ID, which for
	// a created entity is the newly assigned one.
	SaveFields(ctx context.Context, fields map[string]any) (string, error)

	// Delete deletes an entity. It fails with ErrEntityWithoutID if the
	// entity has no ID.
	Delete(ctx context.Context, entity *Entity) error
	// DeleteByID deletes a single entity.
	DeleteByID(ctx context.Context, id string) error
	// DeleteByIDs deletes multiple entities in one request.
	DeleteByIDs(ctx context.Context, ids []string, flags BatchFlag) (*Response, error)

	// BulkUpdate updates or creates multiple entities in one request.
	BulkUpdate(ctx context.Context, entities []*Entity, flags BatchFlag, mode SendMode) (*Response, error)

	// EntireRangeIterator iterates over the whole result set the collection
	// belongs to, fetching further pages as needed.
	EntireRangeIterator(collection *EntityCollection) *EntityCollectionIterator
}

// InfoClient retrieves information about the server and the team pipeline.
type InfoClient interface {
	TeamPipelineURL(ctx context.Context) (string, error)
	TeamPipelineVersion(ctx context.Context) (int, error)
	ServerUTCDateTime(ctx context.Context) (string, error)
	ErrorCodes(ctx context.Context) (any, error)
	// Collections lists the collections available in the pipeline.
	Collections(ctx context.Context) (any, error)
	EntityPublic(ctx context.Context) (any, error)
	// EntityFields describes the fields of an entity type, e.g. "Account".
	EntityFields(ctx context.Context, entityName string) (any, error)
}

// Client is the entry point to a team pipeline. Repositories are created
// lazily and reused.
type Client interface {
	// Repository returns the repository for an entity type, e.g. "Account".
	Repository(entityName string) (Repository, error)
	// RepositoryFor returns the repository for the entity's type.
	RepositoryFor(entity *Entity) (Repository, error)
	// Collection returns the repository for a collection name, e.g.
	// "Accounts" or "accounts".
	Collection(collectionName string) (Repository, error)
	// EntityTypes returns the entity type to collection name mapping.
	EntityTypes() map[string]string
	// RegisterEntityType makes an entity type not in the built-in tables
	// available, e.g. a custom entity.
	RegisterEntityType(entityName, collectionName string)
	// PipelineVersion returns the team pipeline version reported by the server.
	PipelineVersion() int
	// Info returns the server information methods.
	Info() InfoClient
}

// Response is the outcome of a write request.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a Client.
//
// The client talks to {URL}/rest_services/v1/{PipelineID} and authenticates
// every request with HTTP basic auth, using the API token as the user name.
// Both can be found in the pipeline's API access settings.
type Config struct {
	// Required fields
	// URL: service URL, e.g. "https://eu.pipelinersales.com".
	URL string
	// PipelineID: team pipeline ID, e.g. "eu_myPipeline".
	PipelineID string
	// APIToken: API token used as the basic auth user name.
	APIToken string
	// Password: API password used as the basic auth password.
	Password string

	// Optional configurations
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// DateTimeFormat: layout for timestamps in entities and queries.
	DateTimeFormat string
	// DefaultLimit: limit assumed when criteria set none. It must match the
	// server's default for iterators to resume at the right offset.
	DefaultLimit int
	// HTTPTimeout: timeout for a single HTTP attempt.
	HTTPTimeout time.Duration
	// RetryMax: maximum number of retries for transient failures (>=500, 429,
	// and connection errors). If 0, a sensible default is used.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// RateLimit: maximum requests per second sent to the server. If 0,
	// requests are not limited.
	RateLimit float64
	// RateBurst: number of requests allowed above RateLimit in a burst.
	RateBurst int
	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// Interceptors: optional hooks run around every HTTP request.
	Interceptors *InterceptorChain
	// Events: optional publisher notified after successful writes.
	Events EventPublisher
}
