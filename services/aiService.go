package services

import (
	"CityHealth/aiclient"
	"context"
	"log"
	"time"
)

// Advisory is the full capability surface of the external AI service.
type Advisory interface {
	Summarize(ctx context.Context, profile aiclient.PatientProfile) (*aiclient.Summary, error)
	SuggestPrescription(ctx context.Context, description string) ([]aiclient.Suggestion, error)
	Query(ctx context.Context, query string) (string, error)
	Timeline(ctx context.Context, historyText string) ([]aiclient.TimelineEvent, error)
	AnalyzeTrends(ctx context.Context, recentDiagnoses []string) (*aiclient.TrendInsight, error)
	Ingest(ctx context.Context, text string) error
}

// ClinicCounters provides the registry numbers for the overview endpoint.
type ClinicCounters interface {
	CountAll(ctx context.Context) (int64, error)
	CountVisitedSince(ctx context.Context, t time.Time) (int64, error)
}

// PrescriptionCounters provides prescription stats for the overview.
type PrescriptionCounters interface {
	CountAll(ctx context.Context) (int64, error)
	RecentDiagnoses(ctx context.Context, limit int) ([]string, error)
}

// ClinicStats is the dashboard counter block.
type ClinicStats struct {
	TotalPatients      int64 `json:"total_patients"`
	TodayVisits        int64 `json:"today_visits"`
	TotalPrescriptions int64 `json:"total_prescriptions"`
}

// Overview bundles clinic stats with the advisory trend insight.
type Overview struct {
	Stats     ClinicStats           `json:"stats"`
	AIInsight aiclient.TrendInsight `json:"ai_insight"`
}

// AIService bridges the UI to the advisory capabilities, owning the
// degradation policy for each: every advisory outage maps to a harmless
// fallback payload, never to a broken page.
type AIService struct {
	profiles      ProfileAssembler
	advisor       Advisory
	patients      ClinicCounters
	prescriptions PrescriptionCounters
}

func NewAIService(profiles ProfileAssembler, advisor Advisory, patients ClinicCounters, prescriptions PrescriptionCounters) *AIService {
	return &AIService{
		profiles:      profiles,
		advisor:       advisor,
		patients:      patients,
		prescriptions: prescriptions,
	}
}

// Summarize digests a patient profile. Advisory failure degrades to a
// placeholder summary so the profile page still renders.
func (s *AIService) Summarize(ctx context.Context, patientID string) (*aiclient.Summary, error) {
	profile, err := s.profiles.AssembleProfile(ctx, patientID)
	if err != nil {
		return nil, err
	}

	summary, err := s.advisor.Summarize(ctx, *profile)
	if err != nil {
		log.Printf("Summary degraded for patient %s: %v", patientID, err)
		return &aiclient.Summary{
			Summary:          "Could not generate summary at this time.",
			RiskFactors:      []string{},
			SuggestedActions: []string{},
		}, nil
	}
	return summary, nil
}

// SuggestPrescription maps free-text symptoms to candidate medication
// lines, degrading to no suggestions.
func (s *AIService) SuggestPrescription(ctx context.Context, description string) []aiclient.Suggestion {
	suggestions, err := s.advisor.SuggestPrescription(ctx, description)
	if err != nil {
		log.Printf("Prescription suggestion degraded: %v", err)
		return []aiclient.Suggestion{}
	}
	return suggestions
}

// Chat answers a contextualized question against ingested memory.
func (s *AIService) Chat(ctx context.Context, query string) (string, error) {
	return s.advisor.Query(ctx, query)
}

// Timeline parses free-text history into dated events.
func (s *AIService) Timeline(ctx context.Context, historyText string) ([]aiclient.TimelineEvent, error) {
	return s.advisor.Timeline(ctx, historyText)
}

// Train pushes a knowledge blob straight into the advisory store. Unlike
// the detached save-workflow ingestion this is interactive and surfaces
// failure to the caller.
func (s *AIService) Train(ctx context.Context, text string) error {
	return s.advisor.Ingest(ctx, text)
}

// ClinicOverview assembles registry counters and, best-effort, the
// advisory trend read on recent diagnoses.
func (s *AIService) ClinicOverview(ctx context.Context) (*Overview, error) {
	today := time.Now().Truncate(24 * time.Hour)

	totalPatients, err := s.patients.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	todayVisits, err := s.patients.CountVisitedSince(ctx, today)
	if err != nil {
		return nil, err
	}
	totalPrescriptions, err := s.prescriptions.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	insight := aiclient.TrendInsight{Trend: "Analyzing...", Alert: "Gathering data..."}
	diagnoses, err := s.prescriptions.RecentDiagnoses(ctx, 10)
	if err != nil {
		log.Printf("Failed to fetch recent diagnoses for trend analysis: %v", err)
	} else if len(diagnoses) > 0 {
		if trend, err := s.advisor.AnalyzeTrends(ctx, diagnoses); err != nil {
			log.Printf("Trend analysis degraded: %v", err)
		} else {
			insight = *trend
		}
	}

	return &Overview{
		Stats: ClinicStats{
			TotalPatients:      totalPatients,
			TodayVisits:        todayVisits,
			TotalPrescriptions: totalPrescriptions,
		},
		AIInsight: insight,
	}, nil
}
