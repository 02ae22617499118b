package services

import (
	"CityHealth/aiclient"
	"CityHealth/interactions"
	"CityHealth/models"
	"context"
	"log"
)

// FailOpenWarning is surfaced when the advisory service cannot be reached.
// The gate fails open: blocking prescribing on an availability failure of an
// advisory subsystem is judged more dangerous than proceeding with a
// warning. Do not change this to fail-closed.
const FailOpenWarning = "AI Check Failed - Proceed manually"

// ProfileAssembler builds the aggregated patient payload the advisory
// service expects.
type ProfileAssembler interface {
	AssembleProfile(ctx context.Context, patientID string) (*aiclient.PatientProfile, error)
}

// AdvisoryChecker is the external safety-check capability.
type AdvisoryChecker interface {
	SafetyCheck(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error)
}

// SafetyResult is the gate's determination. The caller decides whether to
// proceed when Safe is false; the gate only surfaces it.
type SafetyResult struct {
	Safe     bool     `json:"safe"`
	Warnings []string `json:"warnings"`
}

// SafetyService is the clinical safety gate: local rule-engine warnings
// merged with the external advisory verdict, degrading to allow-with-warning
// when the advisory service is down.
type SafetyService struct {
	profiles ProfileAssembler
	advisor  AdvisoryChecker
}

func NewSafetyService(profiles ProfileAssembler, advisor AdvisoryChecker) *SafetyService {
	return &SafetyService{profiles: profiles, advisor: advisor}
}

// CheckSafety vets proposed medications against the patient's profile. A
// missing patient is an error; an unreachable advisory service is not.
func (s *SafetyService) CheckSafety(ctx context.Context, patientID string, proposed []models.Medication) (*SafetyResult, error) {
	profile, err := s.profiles.AssembleProfile(ctx, patientID)
	if err != nil {
		return nil, err
	}

	localWarnings := s.localInteractionWarnings(*profile, proposed)

	verdict, err := s.advisor.SafetyCheck(ctx, *profile, proposed)
	if err != nil {
		log.Printf("Safety check degraded for patient %s: %v", patientID, err)
		return &SafetyResult{
			Safe:     true,
			Warnings: append(localWarnings, FailOpenWarning),
		}, nil
	}

	return &SafetyResult{
		Safe:     verdict.Safe && len(localWarnings) == 0,
		Warnings: append(localWarnings, verdict.Warnings...),
	}, nil
}

// localInteractionWarnings runs the name-pair rule engine against every
// medication the patient is already on, taken from the denormalized history
// mirrors.
func (s *SafetyService) localInteractionWarnings(profile aiclient.PatientProfile, proposed []models.Medication) []string {
	var active []string
	for _, entry := range profile.MedicalHistory {
		for _, med := range entry.PrescribedMedications {
			active = append(active, med.DrugName)
		}
	}

	warnings := []string{}
	seen := make(map[string]struct{})
	for _, med := range proposed {
		for _, warning := range interactions.CheckInteraction(med.Name, active) {
			if _, dup := seen[warning]; dup {
				continue
			}
			seen[warning] = struct{}{}
			warnings = append(warnings, warning)
		}
	}
	return warnings
}
