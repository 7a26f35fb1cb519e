package crm_test

import (
	"testing"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header   string
		expected crm.PageRange
		wantErr  bool
	}{
		{header: "items 0-24/107", expected: crm.PageRange{StartIndex: 0, EndIndex: 24, TotalCount: 107}},
		{header: "Items 50-52/53", expected: crm.PageRange{StartIndex: 50, EndIndex: 52, TotalCount: 53}},
		{header: "items 0--1/0", expected: crm.PageRange{StartIndex: 0, EndIndex: -1, TotalCount: 0}},
		{header: "", wantErr: true},
		{header: "bytes 0-10/20", wantErr: true},
		{header: "items 0-a/5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			t.Parallel()

			got, err := crm.ParseContentRange(tt.header)
			if tt.wantErr {
				require.ErrorIs(t, err, crm.ErrContentRangeMissing)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
