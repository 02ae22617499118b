// Package interactions implements the local drug-interaction rule engine:
// a pure name-pair lookup over a static danger table. It knows nothing about
// dosage, route, or patient factors and deliberately over-warns.
package interactions

import (
	"fmt"
	"strings"
)

// DangerousPairs maps a drug to the drugs it must not be combined with. The
// table is not guaranteed to be entered symmetrically, so lookups check both
// directions.
var DangerousPairs = map[string][]string{
	"aspirin":     {"warfarin", "heparin", "ibuprofen"},
	"warfarin":    {"aspirin", "ibuprofen", "paracetamol"},
	"paracetamol": {"alcohol", "isoniazid", "warfarin"},
	"amoxicillin": {"methotrexate"},
	"sildenafil":  {"nitroglycerin"},
}

// CheckInteraction returns deduplicated warnings for every active medication
// that conflicts with the candidate drug. Matching is case-insensitive and
// whitespace-trimmed. An empty candidate or empty active list is not an
// error and yields no warnings.
func CheckInteraction(candidate string, activeMeds []string) []string {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	if normalized == "" {
		return nil
	}

	warnings := []string{}
	seen := make(map[string]struct{})

	for _, raw := range activeMeds {
		active := strings.ToLower(strings.TrimSpace(raw))
		if active == "" {
			continue
		}
		if listed(normalized, active) || listed(active, normalized) {
			warning := fmt.Sprintf("DANGER: '%s' interacts with '%s'", strings.TrimSpace(candidate), strings.TrimSpace(raw))
			if _, dup := seen[warning]; dup {
				continue
			}
			seen[warning] = struct{}{}
			warnings = append(warnings, warning)
		}
	}
	return warnings
}

func listed(drug, other string) bool {
	for _, name := range DangerousPairs[drug] {
		if name == other {
			return true
		}
	}
	return false
}
