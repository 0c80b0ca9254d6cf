package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities(t *testing.T) {
	text := `Permit BP-2024-118 was issued on 2024-03-15 to Harbor Builders Inc.
Contract No. 5521 covers framing for $125,000.00 with a retainage of $5000.
Questions go to pm@harborbuilders.com or (555) 123-4567. Inspection on March 4, 2024
and again on 4/18/2024. Harbor Builders Inc. confirmed.`

	got := ExtractEntities(text)

	assert.Equal(t, []string{"2024-03-15", "4/18/2024", "March 4, 2024"}, got[EntityDate])
	assert.Equal(t, []string{"$125,000.00", "$5000"}, got[EntityMoney])
	assert.Equal(t, []string{"pm@harborbuilders.com"}, got[EntityEmail])
	assert.Equal(t, []string{"(555) 123-4567"}, got[EntityPhone])
	assert.Equal(t, []string{"Harbor Builders Inc"}, got[EntityOrg])
	assert.Equal(t, []string{"BP-2024-118", "5521"}, got[EntityPermit])
}

func TestExtractEntitiesEmpty(t *testing.T) {
	assert.Empty(t, ExtractEntities("nothing to see here"))
}
