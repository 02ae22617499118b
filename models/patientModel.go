package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Patient model
type Patient struct {
	ID            string    `gorm:"primaryKey;column:id" json:"id"`
	FirstName     string    `gorm:"column:first_name;not null;index" json:"first_name"`
	LastName      string    `gorm:"column:last_name;not null;index" json:"last_name"`
	DateOfBirth   string    `gorm:"column:date_of_birth;not null" json:"date_of_birth"`
	Gender        string    `gorm:"column:gender;check:gender IN ('Male', 'Female', 'Other');not null" json:"gender"`
	ContactNumber string    `gorm:"column:contact_number;not null;unique;index" json:"contact_number"`
	BloodGroup    string    `gorm:"column:blood_group;default:Unknown" json:"blood_group"`
	Address       string    `gorm:"column:address" json:"address"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	LastVisit     time.Time `gorm:"column:last_visit;index" json:"last_visit"`

	Allergies      []Allergy        `gorm:"foreignKey:PatientID;references:ID" json:"-"`
	MedicalHistory []MedicalHistory `gorm:"foreignKey:PatientID;references:ID" json:"-"`
	Prescriptions  []Prescription   `gorm:"foreignKey:PatientID;references:ID" json:"-"`
}

func (Patient) TableName() string {
	return "patient"
}

// Allergy model. Append-only: allergy records are never updated or deleted,
// a correction is a new record.
type Allergy struct {
	ID           uint      `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PatientID    string    `gorm:"column:patient_id;not null;index" json:"patient_id"`
	Allergen     string    `gorm:"column:allergen;not null" json:"allergen"`
	Severity     string    `gorm:"column:severity;check:severity IN ('Mild', 'Moderate', 'Severe', 'Life-Threatening');not null" json:"severity"`
	Reaction     string    `gorm:"column:reaction" json:"reaction"`
	DetectedDate time.Time `gorm:"column:detected_date;autoCreateTime" json:"detected_date"`
	Patient      Patient   `gorm:"foreignKey:PatientID;references:ID" json:"-"`
}

func (Allergy) TableName() string {
	return "allergy"
}

// MedicalHistory is the denormalized journal of a patient's record. Every
// saved prescription mirrors into exactly one entry with type 'Prescription'
// and a back-reference to the source prescription.
type MedicalHistory struct {
	ID                    uint                     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	PatientID             string                   `gorm:"column:patient_id;not null;index" json:"patient_id"`
	ConditionName         string                   `gorm:"column:condition_name;not null" json:"condition_name"`
	Type                  string                   `gorm:"column:type;check:type IN ('Chronic', 'Acute', 'Prescription', 'Lab Report', 'Surgery');not null" json:"type"`
	Description           string                   `gorm:"column:description" json:"description"`
	DiagnosisDate         time.Time                `gorm:"column:diagnosis_date;index" json:"diagnosis_date"`
	PrescriptionID        string                   `gorm:"column:prescription_id;index" json:"prescription_id,omitempty"`
	PrescribedMedications PrescribedMedicationList `gorm:"column:prescribed_medications;type:jsonb" json:"prescribed_medications"`
	Patient               Patient                  `gorm:"foreignKey:PatientID;references:ID" json:"-"`
}

func (MedicalHistory) TableName() string {
	return "medical_history"
}

// Prescription model. Immutable once saved; a correction is a new
// prescription.
type Prescription struct {
	ID              string         `gorm:"primaryKey;column:id" json:"id"`
	PatientID       string         `gorm:"column:patient_id;not null;index" json:"patient_id"`
	ClinicianName   string         `gorm:"column:clinician_name;not null" json:"clinician_name"`
	ClinicianReg    string         `gorm:"column:clinician_reg" json:"clinician_reg"`
	VisitDate       time.Time      `gorm:"column:visit_date;index" json:"visit_date"`
	Vitals          Vitals         `gorm:"column:vitals;type:jsonb" json:"vitals"`
	ChiefComplaints StringList     `gorm:"column:chief_complaints;type:jsonb" json:"chief_complaints"`
	Diagnosis       string         `gorm:"column:diagnosis;not null" json:"diagnosis"`
	ClinicalNotes   string         `gorm:"column:clinical_notes" json:"clinical_notes"`
	Medications     MedicationList `gorm:"column:medications;type:jsonb" json:"medications"`
	NextVisit       *time.Time     `gorm:"column:next_visit" json:"next_visit,omitempty"`
	Advice          string         `gorm:"column:advice" json:"advice"`
	Patient         Patient        `gorm:"foreignKey:PatientID;references:ID" json:"patient"`
}

func (Prescription) TableName() string {
	return "prescription"
}

// Medication is one line of a prescription. Frequency is a three-slot
// morning-noon-night schedule ("1-0-1") or the sentinel "SOS" (as needed).
type Medication struct {
	Name        string `json:"name"`
	Dosage      string `json:"dosage"`
	Frequency   string `json:"frequency"`
	Duration    string `json:"duration"`
	Instruction string `json:"instruction,omitempty"`
}

// PrescribedMedication is the denormalized copy embedded in a medical
// history entry so history is browsable without joining to prescriptions.
type PrescribedMedication struct {
	DrugName  string `json:"drug_name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Vitals is the snapshot of display values taken at the visit. They are
// never computed over, only rendered, so they stay strings.
type Vitals struct {
	Weight        string `json:"weight"`
	Height        string `json:"height"`
	BloodPressure string `json:"blood_pressure"`
	Temperature   string `json:"temperature"`
	Pulse         string `json:"pulse"`
	SpO2          string `json:"spo2"`
}

// DefaultVitals fills unset fields with the "--" placeholder used on the
// printed prescription.
func DefaultVitals(v Vitals) Vitals {
	fill := func(s string) string {
		if s == "" {
			return "--"
		}
		return s
	}
	return Vitals{
		Weight:        fill(v.Weight),
		Height:        fill(v.Height),
		BloodPressure: fill(v.BloodPressure),
		Temperature:   fill(v.Temperature),
		Pulse:         fill(v.Pulse),
		SpO2:          fill(v.SpO2),
	}
}

type MedicationList []Medication

func (m MedicationList) Value() (driver.Value, error) {
	if m == nil {
		m = MedicationList{}
	}
	return json.Marshal(m)
}

func (m *MedicationList) Scan(value interface{}) error {
	return scanJSON(value, m)
}

type PrescribedMedicationList []PrescribedMedication

func (m PrescribedMedicationList) Value() (driver.Value, error) {
	if m == nil {
		m = PrescribedMedicationList{}
	}
	return json.Marshal(m)
}

func (m *PrescribedMedicationList) Scan(value interface{}) error {
	return scanJSON(value, m)
}

type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		s = StringList{}
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

func (v Vitals) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *Vitals) Scan(value interface{}) error {
	return scanJSON(value, v)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, dest)
	case string:
		return json.Unmarshal([]byte(data), dest)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
