package history

import (
	"errors"

	"github.com/mednet/mednet/internal/domain/clinical"
)

var (
	// ErrPatientNotFound indicates the patient id is not in the directory.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrAccessDenied indicates the caller may not read this patient's history.
	ErrAccessDenied = errors.New("access denied")
)

// FacilityConsultation tags a consultation with the facility store it came
// from.
type FacilityConsultation struct {
	FacilityID int64 `json:"facility_id"`
	clinical.Consultation
}

type FacilityDiagnosis struct {
	FacilityID int64 `json:"facility_id"`
	clinical.Diagnosis
}

type FacilityPrescription struct {
	FacilityID     int64  `json:"facility_id"`
	MedicationName string `json:"medication_name"`
	clinical.Prescription
}

// FailedFacility records a facility whose store could not be queried during
// aggregation.
type FailedFacility struct {
	FacilityID int64  `json:"facility_id"`
	Reason     string `json:"reason"`
}

// PatientHistory is the merged cross-facility record of one patient. An empty
// history with failed facilities means "could not read everything", not "no
// records".
type PatientHistory struct {
	PatientID        int64                  `json:"patient_id"`
	Consultations    []FacilityConsultation `json:"consultations"`
	Diagnoses        []FacilityDiagnosis    `json:"diagnoses"`
	Prescriptions    []FacilityPrescription `json:"prescriptions"`
	FailedFacilities []FailedFacility       `json:"failed_facilities"`
}
