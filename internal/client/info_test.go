package client

import (
	"context"
	"net/http"
	"testing"

	internalhttp "github.com/fivetwenty-io/pipeliner-client/internal/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoMethods(t *testing.T) {
	t.Parallel()

	responses := map[string]string{
		"/":                     `[{"name":"Accounts"},{"name":"Contacts"}]`,
		"/teamPipelineUrl":      `"https://eu.pipelinersales.com/rest_services/v1/eu_test"`,
		"/teamPipelineVersion":  `15`,
		"/serverAPIUtcDateTime": `"2026-10-19 08:30:00"`,
		"/errorCodes":           `[{"errorcode":-251,"message":"Entity not found"}]`,
		"/entityPublic":         `{"Account":true}`,
		"/getFields/Account":    `[{"name":"ORGANIZATION"}]`,
	}

	server := newFakeServer(t, func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		_, _ = w.Write([]byte(body))
	})

	info := NewInfoMethods(internalhttp.NewClient(server.URL + "/"))
	ctx := context.Background()

	teamURL, err := info.TeamPipelineURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://eu.pipelinersales.com/rest_services/v1/eu_test", teamURL)

	version, err := info.TeamPipelineVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, version)

	dateTime, err := info.ServerUTCDateTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19 08:30:00", dateTime)

	codes, err := info.ErrorCodes(ctx)
	require.NoError(t, err)
	assert.Len(t, codes, 1)

	public, err := info.EntityPublic(ctx)
	require.NoError(t, err)
	assert.Contains(t, public, "Account")

	fields, err := info.EntityFields(ctx, "Account")
	require.NoError(t, err)
	assert.Len(t, fields, 1)
	assert.Equal(t, "/getFields/Account", server.last().Path)
}

func TestInfoMethods_Collections(t *testing.T) {
	t.Parallel()

	server := newFakeServer(t, statusHandler(http.StatusOK, `[{"name":"Accounts"}]`))

	info := NewInfoMethods(internalhttp.NewClient(server.URL + "/rest_services/v1/eu_test"))

	collections, err := info.Collections(context.Background())
	require.NoError(t, err)
	assert.Len(t, collections, 1)
	assert.Equal(t, "/rest_services/v1/eu_test", server.last().Path)
}

func TestInfoMethods_TeamPipelineVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{name: "number", body: `14`, want: 14},
		{name: "string", body: `"12"`, want: 12},
		{name: "garbage", body: `"latest"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newFakeServer(t, statusHandler(http.StatusOK, tt.body))

			version, err := NewInfoMethods(internalhttp.NewClient(server.URL)).TeamPipelineVersion(context.Background())
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, version)
		})
	}
}
