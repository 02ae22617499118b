// Package aiclient is the HTTP bridge to the external AI advisory service.
// Every call is bounded by the client timeout; callers own the degradation
// policy when a call fails.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"CityHealth/models"
)

const (
	// Advisory calls sit on the request path and must not hang it.
	advisoryTimeout = 4 * time.Second
)

// PatientProfile is the aggregated payload the advisory service expects:
// demographics plus the full history and allergy lists.
type PatientProfile struct {
	FirstName      string                  `json:"firstName"`
	LastName       string                  `json:"lastName"`
	Gender         string                  `json:"gender,omitempty"`
	DateOfBirth    string                  `json:"dateOfBirth,omitempty"`
	BloodGroup     string                  `json:"bloodGroup,omitempty"`
	MedicalHistory []models.MedicalHistory `json:"medicalHistory"`
	Allergies      []models.Allergy        `json:"allergies"`
}

// SafetyVerdict is the advisory service's determination. The caller decides
// whether to proceed when Safe is false.
type SafetyVerdict struct {
	Safe     bool     `json:"safe"`
	Warnings []string `json:"warnings"`
}

// Summary is the advisory service's profile digest.
type Summary struct {
	Summary          string   `json:"summary"`
	RiskFactors      []string `json:"risk_factors"`
	SuggestedActions []string `json:"suggested_actions"`
}

// Suggestion is one proposed medication line from the advisory service. The
// service replies with the short field names the prescription pad uses.
type Suggestion struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Freq     string `json:"freq"`
	Dur      string `json:"dur"`
}

// TrendInsight is the advisory service's read on recent diagnoses.
type TrendInsight struct {
	Trend string `json:"trend"`
	Alert string `json:"alert"`
}

// TimelineEvent is one entry of a parsed history timeline.
type TimelineEvent struct {
	Date  string `json:"date"`
	Event string `json:"event"`
}

// Client talks to the AI service over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the advisory service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: advisoryTimeout},
	}
}

// SafetyCheck asks the advisory service to vet proposed medications against
// the assembled patient profile.
func (c *Client) SafetyCheck(ctx context.Context, profile PatientProfile, proposed []models.Medication) (*SafetyVerdict, error) {
	payload := map[string]interface{}{
		"patient_profile": profile,
		"new_meds":        proposed,
	}
	var verdict SafetyVerdict
	if err := c.post(ctx, "/api/safety-check", payload, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// Summarize asks for a clinical digest of the patient profile.
func (c *Client) Summarize(ctx context.Context, profile PatientProfile) (*Summary, error) {
	payload := map[string]interface{}{"patient_profile": profile}
	var summary Summary
	if err := c.post(ctx, "/api/summary", payload, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// SuggestPrescription maps a free-text symptom description to candidate
// medication lines.
func (c *Client) SuggestPrescription(ctx context.Context, description string) ([]Suggestion, error) {
	payload := map[string]string{"description": description}
	var result struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := c.post(ctx, "/api/rag/suggest-rx", payload, &result); err != nil {
		return nil, err
	}
	return result.Suggestions, nil
}

// Ingest stores a clinical text blob in the service's long-term memory.
func (c *Client) Ingest(ctx context.Context, text string) error {
	payload := map[string]string{"text": text}
	var result struct {
		Status string `json:"status"`
	}
	return c.post(ctx, "/api/rag/ingest", payload, &result)
}

// Query answers a contextualized chat question against ingested memory.
func (c *Client) Query(ctx context.Context, query string) (string, error) {
	payload := map[string]string{"query": query}
	var result struct {
		Answer string `json:"answer"`
	}
	if err := c.post(ctx, "/api/rag/query", payload, &result); err != nil {
		return "", err
	}
	return result.Answer, nil
}

// Timeline parses free-text history into dated events.
func (c *Client) Timeline(ctx context.Context, historyText string) ([]TimelineEvent, error) {
	payload := map[string]string{"historyText": historyText}
	var result struct {
		Timeline []TimelineEvent `json:"timeline"`
	}
	if err := c.post(ctx, "/api/timeline", payload, &result); err != nil {
		return nil, err
	}
	return result.Timeline, nil
}

// AnalyzeTrends asks for the dominant health trend across recent diagnoses.
func (c *Client) AnalyzeTrends(ctx context.Context, recentDiagnoses []string) (*TrendInsight, error) {
	payload := map[string]interface{}{"recent_diagnoses": recentDiagnoses}
	var insight TrendInsight
	if err := c.post(ctx, "/api/analyze-trends", payload, &insight); err != nil {
		return nil, err
	}
	return &insight, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("advisory call %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("advisory call %s returned status %d: %s", path, resp.StatusCode, data)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
