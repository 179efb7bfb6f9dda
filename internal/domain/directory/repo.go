package directory

import "context"

type FacilityRepository interface {
	Create(ctx context.Context, f *Facility) error
	GetByID(ctx context.Context, id int64) (*Facility, error)
	List(ctx context.Context, limit, offset int) ([]*Facility, int, error)
	Update(ctx context.Context, f *Facility) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type StaffRepository interface {
	Create(ctx context.Context, s *StaffMember) error
	GetByID(ctx context.Context, id int64) (*StaffMember, error)
	GetByNationalID(ctx context.Context, nationalID string) (*StaffMember, error)
	List(ctx context.Context, limit, offset int) ([]*StaffMember, int, error)
	Update(ctx context.Context, s *StaffMember) error
	Delete(ctx context.Context, id int64) error
}

type SpecialtyRepository interface {
	Create(ctx context.Context, sp *Specialty) error
	GetByID(ctx context.Context, id int64) (*Specialty, error)
	List(ctx context.Context, limit, offset int) ([]*Specialty, int, error)
	Update(ctx context.Context, sp *Specialty) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type PhysicianRepository interface {
	Create(ctx context.Context, p *Physician) error
	GetByID(ctx context.Context, id int64) (*Physician, error)
	GetByStaffID(ctx context.Context, staffID int64) (*Physician, error)
	List(ctx context.Context, limit, offset int) ([]*Physician, int, error)
	Update(ctx context.Context, p *Physician) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
}

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id int64) (*Medication, error)
	List(ctx context.Context, limit, offset int) ([]*Medication, int, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) (bool, error)
	// NamesByIDs returns generic names for the given medication ids. Missing
	// ids are simply absent from the result.
	NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
}
