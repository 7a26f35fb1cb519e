package client

import (
	"context"
	"net/http"
	"testing"

	internalhttp "github.com/fivetwenty-io/pipeliner-client/internal/http"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versionServer(t *testing.T, version string) *fakeServer {
	t.Helper()

	return newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest_services/v1/eu_test/teamPipelineVersion" {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || user != "token" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		_, _ = w.Write([]byte(version))
	})
}

func testConfig(url string) *crm.Config {
	return &crm.Config{
		URL:        url,
		PipelineID: "eu_test",
		APIToken:   "token",
		Password:   "secret",
	}
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://eu.pipelinersales.com/rest_services/v1/eu_test",
		BaseURL("https://eu.pipelinersales.com/", "eu_test"))
	assert.Equal(t, "https://eu.pipelinersales.com/rest_services/v1/eu_test",
		BaseURL("https://eu.pipelinersales.com", "eu_test"))
}

func TestNew(t *testing.T) {
	t.Parallel()

	server := versionServer(t, `15`)

	client, err := New(context.Background(), testConfig(server.URL))
	require.NoError(t, err)

	assert.Equal(t, 15, client.PipelineVersion())
	assert.Equal(t, server.URL+"/rest_services/v1/eu_test", client.HTTPClient().BaseURL())
	assert.Len(t, client.EntityTypes(), 33)
	assert.NotContains(t, client.EntityTypes(), "Competence")
	assert.NotNil(t, client.Info())
}

func TestNew_OlderVersion(t *testing.T) {
	t.Parallel()

	server := versionServer(t, `"11"`)

	client, err := New(context.Background(), testConfig(server.URL))
	require.NoError(t, err)

	assert.Equal(t, 11, client.PipelineVersion())
	assert.Len(t, client.EntityTypes(), 25)
	assert.Contains(t, client.EntityTypes(), "Competence")
	assert.NotContains(t, client.EntityTypes(), "Email")
}

func TestNew_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	server := versionServer(t, `8`)

	_, err := New(context.Background(), testConfig(server.URL))
	require.ErrorIs(t, err, crm.ErrUnsupportedVersion)
	assert.Contains(t, err.Error(), "8 (supported versions are 9 to 15)")
}

func TestNew_BadCredentials(t *testing.T) {
	t.Parallel()

	server := versionServer(t, `15`)

	config := testConfig(server.URL)
	config.Password = "wrong"

	_, err := New(context.Background(), config)
	require.Error(t, err)
	assert.True(t, crm.IsUnauthorized(err))
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *crm.Config
		want   error
	}{
		{name: "nil config", config: nil, want: crm.ErrConfigRequired},
		{name: "missing URL", config: &crm.Config{PipelineID: "p", APIToken: "t", Password: "s"}, want: crm.ErrURLRequired},
		{name: "missing pipeline", config: &crm.Config{URL: "http://x", APIToken: "t", Password: "s"}, want: crm.ErrPipelineIDRequired},
		{name: "missing token", config: &crm.Config{URL: "http://x", PipelineID: "p", Password: "s"}, want: ErrCredentialsRequired},
		{name: "missing password", config: &crm.Config{URL: "http://x", PipelineID: "p", APIToken: "t"}, want: ErrCredentialsRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(context.Background(), tt.config)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_Repository(t *testing.T) {
	t.Parallel()

	client := NewWithHTTPClient(internalhttp.NewClient("http://localhost"), nil, crm.EntityTypes(crm.LatestVersion))

	repo, err := client.Repository("Account")
	require.NoError(t, err)
	assert.Equal(t, "Accounts", repo.CollectionName())

	again, err := client.Repository("Account")
	require.NoError(t, err)
	assert.Same(t, repo, again)

	_, err = client.Repository("Spaceship")
	require.ErrorIs(t, err, crm.ErrUnknownEntityType)

	byEntity, err := client.RepositoryFor(crm.NewEntity("Contact"))
	require.NoError(t, err)
	assert.Equal(t, "Contacts", byEntity.CollectionName())
}

func TestClient_Collection(t *testing.T) {
	t.Parallel()

	client := NewWithHTTPClient(internalhttp.NewClient("http://localhost"), nil, crm.EntityTypes(crm.LatestVersion))

	for _, name := range []string{"Accounts", "accounts"} {
		repo, err := client.Collection(name)
		require.NoError(t, err, name)
		assert.Equal(t, "Account", repo.EntityType())
	}

	repo, err := client.Collection("exRateLists")
	require.NoError(t, err)
	assert.Equal(t, "ExchangeRateList", repo.EntityType())

	_, err = client.Collection("ACCOUNTS")
	require.ErrorIs(t, err, crm.ErrUnknownEntityType)
}

func TestClient_RegisterEntityType(t *testing.T) {
	t.Parallel()

	client := NewWithHTTPClient(internalhttp.NewClient("http://localhost"), &crm.Config{DefaultLimit: 10},
		map[string]string{"Account": "Accounts"})

	before, err := client.Repository("Account")
	require.NoError(t, err)

	client.RegisterEntityType("Account", "Companies")
	client.RegisterEntityType("Project", "Projects")

	after, err := client.Repository("Account")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, "Companies", after.CollectionName())

	project, err := client.Collection("projects")
	require.NoError(t, err)
	assert.Equal(t, "Project", project.EntityType())

	types := client.EntityTypes()
	types["Mutated"] = "Mutations"
	assert.NotContains(t, client.EntityTypes(), "Mutated")
}
