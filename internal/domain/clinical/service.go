package clinical

import (
	"context"
	"fmt"
	"time"
)

// MedicationNamer resolves medication ids to generic names. The directory
// service satisfies it.
type MedicationNamer interface {
	MedicationNames(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Service implements clinical operations against one facility store per
// call. Reference validation runs strictly before any facility write.
type Service struct {
	factory   StoreFactory
	validator *Validator
	namer     MedicationNamer
}

func NewService(factory StoreFactory, validator *Validator, namer MedicationNamer) *Service {
	return &Service{factory: factory, validator: validator, namer: namer}
}

// -- Consultation --

func (s *Service) CreateConsultation(ctx context.Context, facilityID int64, c *Consultation) error {
	if c.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if err := s.validator.ValidateConsultationRefs(ctx, c.PatientID, c.PhysicianID); err != nil {
		return err
	}

	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	return store.Consultations().Create(ctx, c)
}

func (s *Service) GetConsultation(ctx context.Context, facilityID, id int64) (*Consultation, error) {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Consultations().GetByID(ctx, id)
}

func (s *Service) ListConsultations(ctx context.Context, facilityID int64, limit, offset int) ([]*Consultation, int, error) {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return nil, 0, err
	}
	defer store.Close()
	return store.Consultations().List(ctx, limit, offset)
}

func (s *Service) UpdateConsultation(ctx context.Context, facilityID int64, c *Consultation) error {
	if c.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if err := s.validator.ValidateConsultationRefs(ctx, c.PatientID, c.PhysicianID); err != nil {
		return err
	}

	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Consultations().GetByID(ctx, c.ID); err != nil {
		return err
	}
	return store.Consultations().Update(ctx, c)
}

// DeleteConsultation removes the consultation with its diagnoses and their
// prescriptions, deepest first.
func (s *Service) DeleteConsultation(ctx context.Context, facilityID, id int64) error {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Consultations().GetByID(ctx, id); err != nil {
		return err
	}
	if err := store.Prescriptions().DeleteByConsultation(ctx, id); err != nil {
		return fmt.Errorf("delete prescriptions of consultation %d: %w", id, err)
	}
	if err := store.Diagnoses().DeleteByConsultation(ctx, id); err != nil {
		return fmt.Errorf("delete diagnoses of consultation %d: %w", id, err)
	}
	return store.Consultations().Delete(ctx, id)
}

// -- Diagnosis --

func (s *Service) CreateDiagnosis(ctx context.Context, facilityID int64, d *Diagnosis) error {
	if d.DiseaseName == "" {
		return fmt.Errorf("disease_name is required")
	}

	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	// The consultation must live in the same facility store.
	if _, err := store.Consultations().GetByID(ctx, d.ConsultationID); err != nil {
		return fmt.Errorf("consultation %d: %w", d.ConsultationID, err)
	}
	return store.Diagnoses().Create(ctx, d)
}

func (s *Service) GetDiagnosis(ctx context.Context, facilityID, id int64) (*Diagnosis, error) {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Diagnoses().GetByID(ctx, id)
}

func (s *Service) ListDiagnosesByConsultation(ctx context.Context, facilityID, consultationID int64) ([]*Diagnosis, error) {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if _, err := store.Consultations().GetByID(ctx, consultationID); err != nil {
		return nil, err
	}
	return store.Diagnoses().ListByConsultation(ctx, consultationID)
}

func (s *Service) UpdateDiagnosis(ctx context.Context, facilityID int64, d *Diagnosis) error {
	if d.DiseaseName == "" {
		return fmt.Errorf("disease_name is required")
	}
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Diagnoses().GetByID(ctx, d.ID); err != nil {
		return err
	}
	return store.Diagnoses().Update(ctx, d)
}

func (s *Service) DeleteDiagnosis(ctx context.Context, facilityID, id int64) error {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Diagnoses().GetByID(ctx, id); err != nil {
		return err
	}
	if err := store.Prescriptions().DeleteByDiagnosis(ctx, id); err != nil {
		return fmt.Errorf("delete prescriptions of diagnosis %d: %w", id, err)
	}
	return store.Diagnoses().Delete(ctx, id)
}

// -- Prescription --

func (s *Service) CreatePrescription(ctx context.Context, facilityID int64, p *Prescription) error {
	if err := s.validator.ValidatePrescriptionRef(ctx, p.MedicationID); err != nil {
		return err
	}

	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Diagnoses().GetByID(ctx, p.DiagnosisID); err != nil {
		return fmt.Errorf("diagnosis %d: %w", p.DiagnosisID, err)
	}
	return store.Prescriptions().Create(ctx, p)
}

func (s *Service) GetPrescription(ctx context.Context, facilityID, id int64) (*Prescription, error) {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Prescriptions().GetByID(ctx, id)
}

// ListPrescriptionsByDiagnosis returns prescriptions with medication names
// resolved against the directory, substituting UNKNOWN where an id no longer
// resolves.
func (s *Service) ListPrescriptionsByDiagnosis(ctx context.Context, facilityID, diagnosisID int64) ([]*PrescriptionView, error) {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if _, err := store.Diagnoses().GetByID(ctx, diagnosisID); err != nil {
		return nil, err
	}
	items, err := store.Prescriptions().ListByDiagnosis(ctx, diagnosisID)
	if err != nil {
		return nil, err
	}
	return s.resolveNames(ctx, items)
}

func (s *Service) UpdatePrescription(ctx context.Context, facilityID int64, p *Prescription) error {
	if err := s.validator.ValidatePrescriptionRef(ctx, p.MedicationID); err != nil {
		return err
	}
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Prescriptions().GetByID(ctx, p.ID); err != nil {
		return err
	}
	return store.Prescriptions().Update(ctx, p)
}

func (s *Service) DeletePrescription(ctx context.Context, facilityID, id int64) error {
	store, err := s.factory.Open(ctx, facilityID)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Prescriptions().GetByID(ctx, id); err != nil {
		return err
	}
	return store.Prescriptions().Delete(ctx, id)
}

func (s *Service) resolveNames(ctx context.Context, items []*Prescription) ([]*PrescriptionView, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, p := range items {
		if !seen[p.MedicationID] {
			seen[p.MedicationID] = true
			ids = append(ids, p.MedicationID)
		}
	}

	names, err := s.namer.MedicationNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve medication names: %w", err)
	}

	views := make([]*PrescriptionView, len(items))
	for i, p := range items {
		name, ok := names[p.MedicationID]
		if !ok {
			name = UnknownMedicationName
		}
		views[i] = &PrescriptionView{Prescription: *p, MedicationName: name}
	}
	return views, nil
}
