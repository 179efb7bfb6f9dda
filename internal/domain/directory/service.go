package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mednet/mednet/internal/platform/auth"
)

// Service implements directory operations and enforces the reference
// invariants that the database alone cannot express across requests.
type Service struct {
	facilities  FacilityRepository
	staff       StaffRepository
	specialties SpecialtyRepository
	physicians  PhysicianRepository
	patients    PatientRepository
	medications MedicationRepository
}

func NewService(
	facilities FacilityRepository,
	staff StaffRepository,
	specialties SpecialtyRepository,
	physicians PhysicianRepository,
	patients PatientRepository,
	medications MedicationRepository,
) *Service {
	return &Service{
		facilities:  facilities,
		staff:       staff,
		specialties: specialties,
		physicians:  physicians,
		patients:    patients,
		medications: medications,
	}
}

// -- Facility --

func (s *Service) CreateFacility(ctx context.Context, f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.facilities.Create(ctx, f)
}

func (s *Service) GetFacility(ctx context.Context, id int64) (*Facility, error) {
	return s.facilities.GetByID(ctx, id)
}

func (s *Service) ListFacilities(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	return s.facilities.List(ctx, limit, offset)
}

func (s *Service) UpdateFacility(ctx context.Context, f *Facility) error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.facilities.Update(ctx, f)
}

func (s *Service) DeleteFacility(ctx context.Context, id int64) error {
	return s.facilities.Delete(ctx, id)
}

// -- Staff --

var validStaffRoles = map[string]bool{
	auth.RoleAdmin:     true,
	auth.RolePhysician: true,
}

func (s *Service) validateStaff(ctx context.Context, m *StaffMember) error {
	if m.NationalID == "" {
		return fmt.Errorf("national_id is required")
	}
	if m.Name == "" || m.Surname == "" {
		return fmt.Errorf("name and surname are required")
	}
	if m.Role != nil && !validStaffRoles[*m.Role] {
		return fmt.Errorf("invalid role: %s", *m.Role)
	}
	// Only ADMIN staff may work without a facility binding.
	if m.Role != nil && *m.Role != auth.RoleAdmin && m.FacilityID == nil {
		return fmt.Errorf("role %s requires a facility", *m.Role)
	}
	if m.FacilityID != nil {
		ok, err := s.facilities.Exists(ctx, *m.FacilityID)
		if err != nil {
			return fmt.Errorf("check facility %d: %w", *m.FacilityID, err)
		}
		if !ok {
			return fmt.Errorf("facility %d does not exist", *m.FacilityID)
		}
	}
	return nil
}

func (s *Service) CreateStaff(ctx context.Context, m *StaffMember) error {
	if err := s.validateStaff(ctx, m); err != nil {
		return err
	}
	if _, err := s.staff.GetByNationalID(ctx, m.NationalID); err == nil {
		return fmt.Errorf("staff member with national id %s already exists", m.NationalID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return s.staff.Create(ctx, m)
}

func (s *Service) GetStaff(ctx context.Context, id int64) (*StaffMember, error) {
	return s.staff.GetByID(ctx, id)
}

func (s *Service) GetStaffByNationalID(ctx context.Context, nationalID string) (*StaffMember, error) {
	return s.staff.GetByNationalID(ctx, nationalID)
}

func (s *Service) ListStaff(ctx context.Context, limit, offset int) ([]*StaffMember, int, error) {
	return s.staff.List(ctx, limit, offset)
}

func (s *Service) UpdateStaff(ctx context.Context, m *StaffMember) error {
	if err := s.validateStaff(ctx, m); err != nil {
		return err
	}
	return s.staff.Update(ctx, m)
}

func (s *Service) DeleteStaff(ctx context.Context, id int64) error {
	return s.staff.Delete(ctx, id)
}

// -- Specialty --

func (s *Service) CreateSpecialty(ctx context.Context, sp *Specialty) error {
	if sp.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.specialties.Create(ctx, sp)
}

func (s *Service) GetSpecialty(ctx context.Context, id int64) (*Specialty, error) {
	return s.specialties.GetByID(ctx, id)
}

func (s *Service) ListSpecialties(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	return s.specialties.List(ctx, limit, offset)
}

func (s *Service) UpdateSpecialty(ctx context.Context, sp *Specialty) error {
	if sp.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.specialties.Update(ctx, sp)
}

func (s *Service) DeleteSpecialty(ctx context.Context, id int64) error {
	return s.specialties.Delete(ctx, id)
}

// -- Physician --

func (s *Service) CreatePhysician(ctx context.Context, p *Physician) error {
	staff, err := s.staff.GetByID(ctx, p.StaffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("staff member %d does not exist", p.StaffID)
		}
		return err
	}
	if staff.Role == nil || *staff.Role != auth.RolePhysician {
		return fmt.Errorf("staff member %d does not hold the PHYSICIAN role", p.StaffID)
	}
	ok, err := s.specialties.Exists(ctx, p.SpecialtyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("specialty %d does not exist", p.SpecialtyID)
	}
	if _, err := s.physicians.GetByStaffID(ctx, p.StaffID); err == nil {
		return fmt.Errorf("staff member %d already has a physician record", p.StaffID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return s.physicians.Create(ctx, p)
}

func (s *Service) GetPhysician(ctx context.Context, id int64) (*Physician, error) {
	return s.physicians.GetByID(ctx, id)
}

func (s *Service) ListPhysicians(ctx context.Context, limit, offset int) ([]*Physician, int, error) {
	return s.physicians.List(ctx, limit, offset)
}

func (s *Service) UpdatePhysician(ctx context.Context, p *Physician) error {
	ok, err := s.specialties.Exists(ctx, p.SpecialtyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("specialty %d does not exist", p.SpecialtyID)
	}
	return s.physicians.Update(ctx, p)
}

func (s *Service) DeletePhysician(ctx context.Context, id int64) error {
	return s.physicians.Delete(ctx, id)
}

// -- Patient --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.NationalID == "" {
		return fmt.Errorf("national_id is required")
	}
	if p.Name == "" || p.Surname == "" {
		return fmt.Errorf("name and surname are required")
	}
	if _, err := s.patients.GetByNationalID(ctx, p.NationalID); err == nil {
		return fmt.Errorf("patient with national id %s already exists", p.NationalID)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetPatientByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	return s.patients.GetByNationalID(ctx, nationalID)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" || p.Surname == "" {
		return fmt.Errorf("name and surname are required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	return s.patients.Delete(ctx, id)
}

// -- Medication --

func (s *Service) CreateMedication(ctx context.Context, m *Medication) error {
	if m.GenericName == "" {
		return fmt.Errorf("generic_name is required")
	}
	return s.medications.Create(ctx, m)
}

func (s *Service) GetMedication(ctx context.Context, id int64) (*Medication, error) {
	return s.medications.GetByID(ctx, id)
}

func (s *Service) ListMedications(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	return s.medications.List(ctx, limit, offset)
}

func (s *Service) UpdateMedication(ctx context.Context, m *Medication) error {
	if m.GenericName == "" {
		return fmt.Errorf("generic_name is required")
	}
	return s.medications.Update(ctx, m)
}

func (s *Service) DeleteMedication(ctx context.Context, id int64) error {
	return s.medications.Delete(ctx, id)
}

// -- Existence checks and batched lookups for other components --

func (s *Service) PatientExists(ctx context.Context, id int64) (bool, error) {
	return s.patients.Exists(ctx, id)
}

func (s *Service) PhysicianExists(ctx context.Context, id int64) (bool, error) {
	return s.physicians.Exists(ctx, id)
}

func (s *Service) MedicationExists(ctx context.Context, id int64) (bool, error) {
	return s.medications.Exists(ctx, id)
}

// MedicationNames resolves generic names for the given ids. Ids absent from
// the directory are missing from the map; callers substitute "UNKNOWN".
func (s *Service) MedicationNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	return s.medications.NamesByIDs(ctx, ids)
}
