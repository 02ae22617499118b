package interactions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckInteractionBothDirections(t *testing.T) {
	// amoxicillin lists methotrexate but not the reverse; the check must
	// report the conflict from either side.
	warnings := CheckInteraction("amoxicillin", []string{"methotrexate"})
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "amoxicillin")
	assert.Contains(t, warnings[0], "methotrexate")

	warnings = CheckInteraction("methotrexate", []string{"amoxicillin"})
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "methotrexate")
	assert.Contains(t, warnings[0], "amoxicillin")
}

func TestCheckInteractionAllTablePairs(t *testing.T) {
	for drug, conflicts := range DangerousPairs {
		for _, other := range conflicts {
			assert.NotEmpty(t, CheckInteraction(drug, []string{other}),
				"expected warning for %s against %s", drug, other)
			assert.NotEmpty(t, CheckInteraction(other, []string{drug}),
				"expected warning for %s against %s", other, drug)
		}
	}
}

func TestCheckInteractionUnlistedPair(t *testing.T) {
	assert.Empty(t, CheckInteraction("amoxicillin", []string{"aspirin"}))
	assert.Empty(t, CheckInteraction("omeprazole", []string{"cetirizine"}))
}

func TestCheckInteractionNormalization(t *testing.T) {
	warnings := CheckInteraction("  Warfarin ", []string{" ASPIRIN  "})
	assert.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Warfarin")
	assert.Contains(t, warnings[0], "ASPIRIN")
}

func TestCheckInteractionDeduplicates(t *testing.T) {
	warnings := CheckInteraction("warfarin", []string{"aspirin", "aspirin", "aspirin"})
	assert.Len(t, warnings, 1)
}

func TestCheckInteractionEmptyInputs(t *testing.T) {
	assert.Empty(t, CheckInteraction("", []string{"aspirin"}))
	assert.Empty(t, CheckInteraction("warfarin", nil))
	assert.Empty(t, CheckInteraction("warfarin", []string{"", "  "}))
}
