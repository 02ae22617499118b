package handlers

import (
	"CityHealth/middlewares"
	"CityHealth/models"
	"CityHealth/repositories"
	"CityHealth/services"
	"CityHealth/utils"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type PrescriptionHandler struct {
	PrescriptionService *services.PrescriptionService
	UserService         services.UserService
}

func NewPrescriptionHandler(prescriptionService *services.PrescriptionService, userService services.UserService) *PrescriptionHandler {
	return &PrescriptionHandler{
		PrescriptionService: prescriptionService,
		UserService:         userService,
	}
}

// saveRequest is the prescription pad payload.
type saveRequest struct {
	Diagnosis   string                     `json:"diagnosis"`
	Medications []services.MedicationInput `json:"medications"`
	Vitals      models.Vitals              `json:"vitals"`
	Symptoms    []string                   `json:"symptoms"`
	Advice      string                     `json:"advice"`
	NextVisit   string                     `json:"next_visit"`
}

// Save persists a prescription for a patient. The clinician identity comes
// from the authenticated session, never from the payload.
func (h *PrescriptionHandler) Save(c *gin.Context) {
	patientID := c.Param("patient_id")

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	if len(req.Medications) == 0 {
		c.JSON(400, gin.H{"error": "At least one medication is required"})
		return
	}
	for i, med := range req.Medications {
		if err := utils.ValidateMedicationLine(med.Name, med.Dosage); err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("Medication line %d invalid: %v", i+1, err)})
			return
		}
	}

	var nextVisit *time.Time
	if req.NextVisit != "" {
		parsed, err := time.Parse("2006-01-02", req.NextVisit)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid next_visit date, expected YYYY-MM-DD"})
			return
		}
		nextVisit = &parsed
	}

	ctx := c.Request.Context()
	clinician, err := h.resolveClinician(c)
	if err != nil {
		c.JSON(401, gin.H{"error": "Could not resolve clinician identity"})
		return
	}

	result, err := h.PrescriptionService.Save(ctx, clinician, services.SaveRequest{
		PatientID:   patientID,
		Diagnosis:   req.Diagnosis,
		Medications: req.Medications,
		Vitals:      req.Vitals,
		Symptoms:    req.Symptoms,
		Advice:      req.Advice,
		NextVisit:   nextVisit,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrPatientNotFound) {
			c.JSON(404, gin.H{"error": "Patient not found"})
			return
		}
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to save prescription: %v", err)})
		return
	}

	response := gin.H{
		"success":         true,
		"message":         "Prescription Saved",
		"prescription_id": result.Prescription.ID,
	}
	if result.Document != nil {
		response["pdfBase64"] = base64.StdEncoding.EncodeToString(result.Document)
	}
	c.JSON(201, response)
}

// GetAll returns the global prescription log
func (h *PrescriptionHandler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()
	prescriptions, err := h.PrescriptionService.GetAll(ctx)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to retrieve prescriptions: %v", err)})
		return
	}
	c.JSON(200, prescriptions)
}

// GetByID returns one saved prescription
func (h *PrescriptionHandler) GetByID(c *gin.Context) {
	prescriptionID := c.Param("prescription_id")

	ctx := c.Request.Context()
	prescription, err := h.PrescriptionService.GetByID(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPrescriptionNotFound) {
			c.JSON(404, gin.H{"error": "Prescription not found"})
			return
		}
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to retrieve prescription: %v", err)})
		return
	}
	c.JSON(200, prescription)
}

// Download streams the rendered prescription document. Documents are not
// stored; each download renders fresh from the saved record.
func (h *PrescriptionHandler) Download(c *gin.Context) {
	prescriptionID := c.Param("prescription_id")

	ctx := c.Request.Context()
	document, prescription, err := h.PrescriptionService.RenderByID(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, repositories.ErrPrescriptionNotFound) {
			c.JSON(404, gin.H{"error": "Prescription not found"})
			return
		}
		c.JSON(500, gin.H{"error": fmt.Sprintf("Failed to render prescription: %v", err)})
		return
	}

	filename := fmt.Sprintf("Prescription_%s.pdf", prescription.PatientID)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(200, "application/pdf", document)
}

// resolveClinician loads the authenticated staff record and maps it to the
// clinician identity stamped onto prescriptions.
func (h *PrescriptionHandler) resolveClinician(c *gin.Context) (services.Clinician, error) {
	userIDStr, err := middlewares.ExtractUserIDFromContext(c.Request.Context())
	if err != nil {
		return services.Clinician{}, err
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return services.Clinician{}, fmt.Errorf("invalid user ID in token: %w", err)
	}

	user, err := h.UserService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return services.Clinician{}, err
	}
	if user == nil {
		return services.Clinician{}, errors.New("user not found")
	}

	name := user.FullName
	if name == "" {
		name = user.Username
	}
	return services.Clinician{
		UserID:       user.ID,
		Name:         name,
		Registration: user.Registration,
	}, nil
}
