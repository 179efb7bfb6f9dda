package clinical

import (
	"errors"
	"time"
)

// ErrNoLocalStore is returned when a clinical operation is attempted against
// the administrative facility, which carries no local store.
var ErrNoLocalStore = errors.New("facility has no local clinical store")

// Consultation is a patient visit recorded in one facility's store.
// PatientID and PhysicianID reference the shared directory.
type Consultation struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	PatientID   int64     `json:"patient_id"`
	PhysicianID int64     `json:"physician_id"`
	Reason      string    `json:"reason"`
}

type Diagnosis struct {
	ID             int64   `json:"id"`
	ConsultationID int64   `json:"consultation_id"`
	DiseaseName    string  `json:"disease_name"`
	Observations   *string `json:"observations,omitempty"`
}

// Prescription references a diagnosis in the same store and a medication in
// the shared directory.
type Prescription struct {
	ID           int64   `json:"id"`
	DiagnosisID  int64   `json:"diagnosis_id"`
	MedicationID int64   `json:"medication_id"`
	Instructions *string `json:"instructions,omitempty"`
}

// PrescriptionView is a prescription with its medication name resolved from
// the directory. MedicationName is "UNKNOWN" when the id no longer resolves.
type PrescriptionView struct {
	Prescription
	MedicationName string `json:"medication_name"`
}

// UnknownMedicationName is substituted when a prescribed medication id cannot
// be resolved against the directory.
const UnknownMedicationName = "UNKNOWN"
