// Package pdfgen renders a saved prescription into a paginated A4 document.
// Rendering is synchronous and best-effort: callers must treat a failure as
// a missing document, never as a failed save.
package pdfgen

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"CityHealth/models"
)

const (
	clinicName    = "CITY HEALTH CLINIC"
	clinicTagline = "Excellence in Compassionate Care"
)

// Renderer builds prescription documents.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPrescription produces the PDF bytes for a patient and prescription
// snapshot.
func (r *Renderer) RenderPrescription(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
	if patient == nil || prescription == nil {
		return nil, fmt.Errorf("patient and prescription snapshots are required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 28)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-20)
		pdf.SetDrawColor(226, 232, 240)
		pdf.Line(18, pdf.GetY(), 192, pdf.GetY())
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(148, 163, 184)
		pdf.CellFormat(0, 6, "This is a digitally generated prescription and is valid without a physical signature.", "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(15, 23, 42)
		pdf.CellFormat(0, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	r.drawHeader(pdf, prescription)
	r.drawPatientBox(pdf, patient, prescription)
	r.drawClinicalFindings(pdf, prescription)
	r.drawMedicationTable(pdf, prescription.Medications)
	r.drawAdvice(pdf, prescription)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render prescription document: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawHeader(pdf *gofpdf.Fpdf, prescription *models.Prescription) {
	pdf.SetFillColor(37, 99, 235)
	pdf.Circle(25, 25, 7, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(22.6, 27, "+")

	pdf.SetTextColor(15, 23, 42)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Text(36, 24, clinicName)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.Text(36, 30, clinicTagline)

	pdf.SetTextColor(15, 23, 42)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetXY(120, 18)
	pdf.CellFormat(72, 5, prescription.ClinicianName, "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if prescription.ClinicianReg != "" {
		pdf.CellFormat(72, 5, "Reg: "+prescription.ClinicianReg, "", 2, "R", false, 0, "")
	}

	pdf.SetDrawColor(37, 99, 235)
	pdf.SetLineWidth(0.7)
	pdf.Line(18, 36, 192, 36)
	pdf.SetLineWidth(0.2)
	pdf.SetY(42)
}

func (r *Renderer) drawPatientBox(pdf *gofpdf.Fpdf, patient *models.Patient, prescription *models.Prescription) {
	top := pdf.GetY()
	pdf.SetFillColor(248, 250, 252)
	pdf.SetDrawColor(226, 232, 240)
	pdf.Rect(18, top, 174, 26, "FD")

	pdf.SetTextColor(15, 23, 42)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(22, top+7, "PATIENT:")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(42, top+7, patient.FirstName+" "+patient.LastName)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(125, top+7, "DATE:")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(140, top+7, prescription.VisitDate.Format("02 Jan, 2006"))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(22, top+14, "AGE / GENDER:")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(52, top+14, fmt.Sprintf("%s / %s", ageFromDOB(patient.DateOfBirth), patient.Gender))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(125, top+14, "PATIENT ID:")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(150, top+14, patient.ID)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(22, top+21, "ADDRESS:")
	pdf.SetFont("Helvetica", "", 9)
	address := patient.Address
	if address == "" {
		address = "N/A"
	}
	pdf.Text(42, top+21, truncate(address, 70))

	pdf.SetY(top + 32)
}

func (r *Renderer) drawClinicalFindings(pdf *gofpdf.Fpdf, prescription *models.Prescription) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 7, "CLINICAL FINDINGS", "", 1, "L", false, 0, "")

	v := prescription.Vitals
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(15, 23, 42)
	vitalsLine := fmt.Sprintf("BP: %s   Pulse: %s   Temp: %s   Weight: %s   SpO2: %s",
		orDash(v.BloodPressure), orDash(v.Pulse), orDash(v.Temperature), orDash(v.Weight), orDash(v.SpO2))
	pdf.CellFormat(0, 6, vitalsLine, "", 1, "L", false, 0, "")

	if len(prescription.ChiefComplaints) > 0 {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(28, 6, "Complaints:", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 6, joinComma(prescription.ChiefComplaints), "", "L", false)
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(28, 6, "Diagnosis:", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 6, prescription.Diagnosis, "", "L", false)
	pdf.Ln(3)
}

func (r *Renderer) drawMedicationTable(pdf *gofpdf.Fpdf, meds models.MedicationList) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(37, 99, 235)
	pdf.CellFormat(0, 7, "Rx", "", 1, "L", false, 0, "")

	widths := []float64{8, 56, 30, 28, 26, 26}
	headers := []string{"#", "Medication", "Dosage", "Frequency", "Duration", "Notes"}

	pdf.SetFillColor(241, 245, 249)
	pdf.SetTextColor(15, 23, 42)
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for i, med := range meds {
		fill := i%2 == 1
		pdf.SetFillColor(248, 250, 252)
		pdf.CellFormat(widths[0], 7, strconv.Itoa(i+1), "1", 0, "C", fill, 0, "")
		pdf.CellFormat(widths[1], 7, truncate(med.Name, 34), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[2], 7, truncate(med.Dosage, 16), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[3], 7, med.Frequency, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(widths[4], 7, truncate(med.Duration, 14), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[5], 7, truncate(med.Instruction, 14), "1", 0, "L", fill, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func (r *Renderer) drawAdvice(pdf *gofpdf.Fpdf, prescription *models.Prescription) {
	if prescription.Advice != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(20, 6, "Advice:", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 6, prescription.Advice, "", "L", false)
	}
	if prescription.NextVisit != nil {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(24, 6, "Next visit:", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, prescription.NextVisit.Format("02 Jan, 2006"), "", 1, "L", false, 0, "")
	}
}

func ageFromDOB(dob string) string {
	parsed, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return "--"
	}
	years := time.Now().Year() - parsed.Year()
	if time.Now().YearDay() < parsed.YearDay() {
		years--
	}
	return fmt.Sprintf("%d Years", years)
}

func orDash(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func joinComma(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
