package handlers

import (
	"CityHealth/models"
	"CityHealth/repositories"
	"CityHealth/services"
	"CityHealth/utils"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	PatientService *services.PatientService
}

func NewPatientHandler(patientService *services.PatientService) *PatientHandler {
	return &PatientHandler{
		PatientService: patientService,
	}
}

// onboardRequest is the registration payload. Allergies and chronic
// conditions arrive as bare name lists and are expanded server-side.
type onboardRequest struct {
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	DateOfBirth       string   `json:"date_of_birth"`
	Gender            string   `json:"gender"`
	ContactNumber     string   `json:"contact_number"`
	BloodGroup        string   `json:"blood_group"`
	Address           string   `json:"address"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronic_conditions"`
}

// Onboard registers a new patient
func (h *PatientHandler) Onboard(c *gin.Context) {
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	patient := models.Patient{
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		DateOfBirth:   req.DateOfBirth,
		Gender:        req.Gender,
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		BloodGroup:    req.BloodGroup,
		Address:       req.Address,
	}
	if patient.BloodGroup == "" {
		patient.BloodGroup = "Unknown"
	}

	if err := utils.ValidatePatientData(patient); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("Validation failed: %v", err)})
		return
	}

	ctx := c.Request.Context()
	if err := h.PatientService.Onboard(ctx, &patient, req.Allergies, req.ChronicConditions); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			c.JSON(409, gin.H{"error": err.Error()})
			return
		}
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to register patient: %v", err)})
		return
	}

	c.JSON(201, gin.H{
		"success":    true,
		"patient_id": patient.ID,
		"patient":    patient,
	})
}

// GetRecent returns the dashboard list of recently seen patients
func (h *PatientHandler) GetRecent(c *gin.Context) {
	ctx := c.Request.Context()
	patients, err := h.PatientService.Recent(ctx)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to retrieve patients: %v", err)})
		return
	}
	c.JSON(200, patients)
}

// Search looks up patients by name or contact number
func (h *PatientHandler) Search(c *gin.Context) {
	// Queries shorter than two characters match half the registry; return
	// nothing instead.
	query := strings.TrimSpace(c.Query("query"))
	if len(query) < 2 {
		c.JSON(200, []models.Patient{})
		return
	}

	ctx := c.Request.Context()
	patients, err := h.PatientService.Search(ctx, query)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("Search failed: %v", err)})
		return
	}
	c.JSON(200, patients)
}

// GetProfile returns the full profile: record, history and allergies
func (h *PatientHandler) GetProfile(c *gin.Context) {
	patientID := c.Param("patient_id")

	ctx := c.Request.Context()
	profile, err := h.PatientService.GetProfile(ctx, patientID)
	if err != nil {
		if errors.Is(err, repositories.ErrPatientNotFound) {
			c.JSON(404, gin.H{"error": "Patient not found"})
			return
		}
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to assemble profile: %v", err)})
		return
	}
	c.JSON(200, profile)
}
