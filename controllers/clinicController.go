package controllers

import (
	"CityHealth/handlers"
	"CityHealth/middlewares"

	"github.com/gin-gonic/gin"
)

// SetupClinicRoutes registers the patient registry, prescription, and
// advisory routes. Everything clinical requires an authenticated staff
// session.
func SetupClinicRoutes(router *gin.Engine, patientHandler *handlers.PatientHandler, prescriptionHandler *handlers.PrescriptionHandler, aiHandler *handlers.AIHandler) {
	clinic := router.Group("/").Use(middlewares.TokenAuthMiddleware())
	{
		clinic.GET("/patients", patientHandler.GetRecent)
		clinic.GET("/patients/search", patientHandler.Search)
		clinic.POST("/patients", patientHandler.Onboard)
		clinic.GET("/patients/:patient_id", patientHandler.GetProfile)

		clinic.POST("/patients/:patient_id/prescriptions", prescriptionHandler.Save)
		clinic.GET("/prescriptions", prescriptionHandler.GetAll)
		clinic.GET("/prescriptions/:prescription_id", prescriptionHandler.GetByID)
		clinic.GET("/prescriptions/:prescription_id/download", prescriptionHandler.Download)

		clinic.POST("/patients/:patient_id/safety-check", aiHandler.SafetyCheck)
		clinic.POST("/ai/summary", aiHandler.Summarize)
		clinic.POST("/ai/suggest-rx", aiHandler.SuggestPrescription)
		clinic.POST("/ai/chat", aiHandler.Chat)
		clinic.POST("/ai/timeline", aiHandler.Timeline)
		clinic.POST("/ai/train", aiHandler.Train)
		clinic.GET("/ai/overview", aiHandler.Overview)
	}
}
