package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mednet/mednet/internal/domain/clinical"
	"github.com/mednet/mednet/internal/platform/auth"
)

// PatientDirectory is the slice of the directory the aggregator needs.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id int64) (bool, error)
	MedicationNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// FacilityLister enumerates the registered facility stores. The registry
// satisfies it.
type FacilityLister interface {
	FacilityIDs() []int64
}

// Aggregator assembles a patient's record across facility stores. Each
// facility is queried concurrently under its own deadline; a store that is
// down or slow loses its slot in the result, never the whole request.
type Aggregator struct {
	dir        PatientDirectory
	factory    clinical.StoreFactory
	facilities FacilityLister
	timeout    time.Duration
}

func NewAggregator(dir PatientDirectory, factory clinical.StoreFactory, facilities FacilityLister, timeout time.Duration) *Aggregator {
	return &Aggregator{dir: dir, factory: factory, facilities: facilities, timeout: timeout}
}

// facilityRecords is one facility's slot in the fan-out.
type facilityRecords struct {
	facilityID    int64
	consultations []*clinical.Consultation
	diagnoses     []*clinical.Diagnosis
	prescriptions []*clinical.Prescription
	err           error
}

// PatientHistory returns the merged record of patientID, as visible to
// caller. Facility-bound staff see their own facility only; admins see every
// registered facility; patients see their own record across all facilities.
func (a *Aggregator) PatientHistory(ctx context.Context, patientID int64, caller auth.Caller) (*PatientHistory, error) {
	ok, err := a.dir.PatientExists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check patient %d: %w", patientID, err)
	}
	if !ok {
		return nil, ErrPatientNotFound
	}

	var candidates []int64
	switch v := caller.(type) {
	case auth.FacilityBoundStaff:
		// Only PHYSICIAN and ADMIN staff read patient histories. The resolver
		// rejects other role strings, but callers constructed elsewhere get
		// the same treatment.
		if v.Role != auth.RoleAdmin && v.Role != auth.RolePhysician {
			return nil, ErrAccessDenied
		}
		candidates = []int64{v.FacilityID}
	case auth.FacilitylessAdmin:
		candidates = a.facilities.FacilityIDs()
	case auth.UnaffiliatedPatient:
		if v.PatientID != patientID {
			return nil, ErrAccessDenied
		}
		candidates = a.facilities.FacilityIDs()
	default:
		return nil, ErrAccessDenied
	}

	results := make([]facilityRecords, len(candidates))
	var wg sync.WaitGroup
	for i, facilityID := range candidates {
		wg.Add(1)
		go func(slot int, facilityID int64) {
			defer wg.Done()
			results[slot] = a.fetchFacility(ctx, facilityID, patientID)
		}(i, facilityID)
	}
	wg.Wait()

	return a.merge(ctx, patientID, results)
}

// fetchFacility reads one facility store under its own deadline. Errors are
// returned in the slot, not propagated: one facility must never take down the
// aggregation.
func (a *Aggregator) fetchFacility(ctx context.Context, facilityID, patientID int64) facilityRecords {
	rec := facilityRecords{facilityID: facilityID}

	fctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	store, err := a.factory.Open(fctx, facilityID)
	if err != nil {
		// The administrative facility keeps no clinical records. That is not
		// an outage: it contributes an empty slot, not a failure report.
		if errors.Is(err, clinical.ErrNoLocalStore) {
			return rec
		}
		rec.err = err
		return rec
	}
	defer store.Close()

	if rec.consultations, err = store.Consultations().ListByPatient(fctx, patientID); err != nil {
		rec.err = fmt.Errorf("consultations: %w", err)
		return rec
	}
	if rec.diagnoses, err = store.Diagnoses().ListByPatient(fctx, patientID); err != nil {
		rec.err = fmt.Errorf("diagnoses: %w", err)
		return rec
	}
	if rec.prescriptions, err = store.Prescriptions().ListByPatient(fctx, patientID); err != nil {
		rec.err = fmt.Errorf("prescriptions: %w", err)
		return rec
	}
	return rec
}

func (a *Aggregator) merge(ctx context.Context, patientID int64, results []facilityRecords) (*PatientHistory, error) {
	h := &PatientHistory{
		PatientID:        patientID,
		Consultations:    []FacilityConsultation{},
		Diagnoses:        []FacilityDiagnosis{},
		Prescriptions:    []FacilityPrescription{},
		FailedFacilities: []FailedFacility{},
	}

	var medIDs []int64
	seen := make(map[int64]bool)
	for _, rec := range results {
		if rec.err != nil {
			log.Warn().Err(rec.err).
				Int64("facility_id", rec.facilityID).
				Int64("patient_id", patientID).
				Msg("Facility store unavailable during history aggregation")
			h.FailedFacilities = append(h.FailedFacilities, FailedFacility{
				FacilityID: rec.facilityID,
				Reason:     rec.err.Error(),
			})
			continue
		}
		for _, p := range rec.prescriptions {
			if !seen[p.MedicationID] {
				seen[p.MedicationID] = true
				medIDs = append(medIDs, p.MedicationID)
			}
		}
	}

	names := map[int64]string{}
	if len(medIDs) > 0 {
		var err error
		if names, err = a.dir.MedicationNames(ctx, medIDs); err != nil {
			return nil, fmt.Errorf("resolve medication names: %w", err)
		}
	}

	for _, rec := range results {
		if rec.err != nil {
			continue
		}
		for _, c := range rec.consultations {
			h.Consultations = append(h.Consultations, FacilityConsultation{
				FacilityID: rec.facilityID, Consultation: *c,
			})
		}
		for _, d := range rec.diagnoses {
			h.Diagnoses = append(h.Diagnoses, FacilityDiagnosis{
				FacilityID: rec.facilityID, Diagnosis: *d,
			})
		}
		for _, p := range rec.prescriptions {
			name, ok := names[p.MedicationID]
			if !ok {
				name = clinical.UnknownMedicationName
			}
			h.Prescriptions = append(h.Prescriptions, FacilityPrescription{
				FacilityID: rec.facilityID, MedicationName: name, Prescription: *p,
			})
		}
	}

	sort.SliceStable(h.Consultations, func(i, j int) bool {
		return h.Consultations[i].Timestamp.After(h.Consultations[j].Timestamp)
	})
	return h, nil
}
