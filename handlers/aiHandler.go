package handlers

import (
	"CityHealth/middlewares"
	"CityHealth/models"
	"CityHealth/repositories"
	"CityHealth/services"
	"errors"

	"github.com/gin-gonic/gin"
)

type AIHandler struct {
	SafetyService *services.SafetyService
	AIService     *services.AIService
}

func NewAIHandler(safetyService *services.SafetyService, aiService *services.AIService) *AIHandler {
	return &AIHandler{
		SafetyService: safetyService,
		AIService:     aiService,
	}
}

// SafetyCheck vets proposed medications against the patient's record before
// the prescription is saved. The response is advisory; saving proceeds
// regardless of the verdict.
func (h *AIHandler) SafetyCheck(c *gin.Context) {
	patientID := c.Param("patient_id")

	var req struct {
		Medications []services.MedicationInput `json:"medications"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	proposed := make([]models.Medication, 0, len(req.Medications))
	for _, med := range req.Medications {
		proposed = append(proposed, models.Medication{
			Name:   med.Name,
			Dosage: med.Dosage,
		})
	}

	ctx := c.Request.Context()
	result, err := h.SafetyService.CheckSafety(ctx, patientID, proposed)
	if err != nil {
		if errors.Is(err, repositories.ErrPatientNotFound) {
			c.JSON(404, gin.H{"error": "Patient not found"})
			return
		}
		middlewares.HttpError(c, "Safety check failed", 500, err)
		return
	}

	c.JSON(200, result)
}

// Summarize returns the advisory digest of a patient's record
func (h *AIHandler) Summarize(c *gin.Context) {
	var req struct {
		PatientID string `json:"patient_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PatientID == "" {
		c.JSON(400, gin.H{"error": "A patient_id is required"})
		return
	}
	patientID := req.PatientID

	ctx := c.Request.Context()
	summary, err := h.AIService.Summarize(ctx, patientID)
	if err != nil {
		if errors.Is(err, repositories.ErrPatientNotFound) {
			c.JSON(404, gin.H{"error": "Patient not found"})
			return
		}
		middlewares.HttpError(c, "Failed to summarize patient", 500, err)
		return
	}

	c.JSON(200, summary)
}

// SuggestPrescription maps free-text symptoms to candidate medication lines
func (h *AIHandler) SuggestPrescription(c *gin.Context) {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Description == "" {
		c.JSON(400, gin.H{"error": "A symptom description is required"})
		return
	}

	ctx := c.Request.Context()
	suggestions := h.AIService.SuggestPrescription(ctx, req.Description)
	c.JSON(200, gin.H{"suggestions": suggestions})
}

// Chat answers a question against the ingested clinical memory
func (h *AIHandler) Chat(c *gin.Context) {
	var req struct {
		Query string `json:"query"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		c.JSON(400, gin.H{"error": "A query is required"})
		return
	}

	ctx := c.Request.Context()
	answer, err := h.AIService.Chat(ctx, req.Query)
	if err != nil {
		middlewares.HttpError(c, "Assistant unavailable", 502, err)
		return
	}
	c.JSON(200, gin.H{"answer": answer})
}

// Timeline parses free-text history into dated events
func (h *AIHandler) Timeline(c *gin.Context) {
	var req struct {
		HistoryText string `json:"historyText"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.HistoryText == "" {
		c.JSON(400, gin.H{"error": "History text is required"})
		return
	}

	ctx := c.Request.Context()
	events, err := h.AIService.Timeline(ctx, req.HistoryText)
	if err != nil {
		middlewares.HttpError(c, "Timeline extraction failed", 502, err)
		return
	}
	c.JSON(200, gin.H{"timeline": events})
}

// Train pushes a knowledge blob into the advisory store. Unlike the detached
// save-workflow ingestion, failures here surface to the caller.
func (h *AIHandler) Train(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(400, gin.H{"error": "Training text is required"})
		return
	}

	ctx := c.Request.Context()
	if err := h.AIService.Train(ctx, req.Text); err != nil {
		middlewares.HttpError(c, "Ingestion failed", 502, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

// Overview returns the dashboard counters and the advisory trend insight
func (h *AIHandler) Overview(c *gin.Context) {
	ctx := c.Request.Context()
	overview, err := h.AIService.ClinicOverview(ctx)
	if err != nil {
		middlewares.HttpError(c, "Failed to build overview", 500, err)
		return
	}
	middlewares.RespondJSON(c, overview, 200)
}
