package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// Query defaults.
const (
	// DefaultLimit is the page size the server applies when no limit is sent.
	DefaultLimit = 25

	// NoLimit disables the server-side limit.
	NoLimit = -1

	// DateTimeFormat is the layout the API uses for timestamps (always UTC).
	DateTimeFormat = "2006-01-02 15:04:05"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// HTTP client identity.
const (
	// DefaultUserAgent is sent when the caller does not override it.
	DefaultUserAgent = "Pipeliner_Go_API_Client/1.0"

	// RESTServicesPath is appended to the service URL before the pipeline ID.
	RESTServicesPath = "/rest_services/v1/"
)

// Pipeline versions understood by this client.
const (
	// EarliestVersion is the oldest team pipeline version supported.
	EarliestVersion = 9

	// LatestVersion is the newest team pipeline version with a known entity table.
	LatestVersion = 15
)

// Event subjects.
const (
	// DefaultEventSubjectPrefix prefixes every published entity event subject.
	DefaultEventSubjectPrefix = "pipeliner.entities"

	// DefaultEventFlushTimeout bounds a flush when the context has no deadline.
	DefaultEventFlushTimeout = 5 * time.Second

	// DefaultEventClientName identifies the client to the NATS server.
	DefaultEventClientName = "pipeliner-client"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// StandardPageSize is the page size the CLI requests by default.
	StandardPageSize = 50
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
