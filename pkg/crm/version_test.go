package crm_test

import (
	"maps"
	"testing"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/stretchr/testify/assert"
)

func TestEntityTypes(t *testing.T) {
	t.Parallel()

	v9 := crm.EntityTypes(9)
	assert.Len(t, v9, 23)
	assert.Equal(t, "ExRateLists", v9["ExchangeRateList"])

	v11 := crm.EntityTypes(11)
	expected := maps.Clone(v9)
	expected["Competence"] = "Competencies"
	expected["Relevance"] = "Relevancies"
	assert.Equal(t, expected, v11)

	assert.Len(t, crm.EntityTypes(12), 26)
	assert.Len(t, crm.EntityTypes(14), 33)

	v15 := crm.EntityTypes(15)
	assert.NotContains(t, v15, "Competence")
	assert.NotContains(t, v15, "Relevance")
	assert.Equal(t, "SalesRoles", v15["SalesRole"])
	assert.Len(t, v15, 33)

	assert.Equal(t, v15, crm.EntityTypes(20))
	assert.Empty(t, crm.EntityTypes(8))
}
