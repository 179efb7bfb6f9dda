package clinical

import "context"

type ConsultationRepository interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id int64) (*Consultation, error)
	// List returns consultations ordered by timestamp descending.
	List(ctx context.Context, limit, offset int) ([]*Consultation, int, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Consultation, error)
	Update(ctx context.Context, c *Consultation) error
	Delete(ctx context.Context, id int64) error
}

type DiagnosisRepository interface {
	Create(ctx context.Context, d *Diagnosis) error
	GetByID(ctx context.Context, id int64) (*Diagnosis, error)
	ListByConsultation(ctx context.Context, consultationID int64) ([]*Diagnosis, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Diagnosis, error)
	Update(ctx context.Context, d *Diagnosis) error
	Delete(ctx context.Context, id int64) error
	DeleteByConsultation(ctx context.Context, consultationID int64) error
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id int64) (*Prescription, error)
	ListByDiagnosis(ctx context.Context, diagnosisID int64) ([]*Prescription, error)
	ListByPatient(ctx context.Context, patientID int64) ([]*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id int64) error
	DeleteByDiagnosis(ctx context.Context, diagnosisID int64) error
	DeleteByConsultation(ctx context.Context, consultationID int64) error
}

// Store is one facility's clinical store, bound to a single acquired
// connection. Close releases the connection; callers must close on every
// exit path.
type Store interface {
	Consultations() ConsultationRepository
	Diagnoses() DiagnosisRepository
	Prescriptions() PrescriptionRepository
	Close()
}

// StoreFactory opens a facility's store for the duration of one operation.
type StoreFactory interface {
	// Open resolves the facility's pool and acquires a connection. It returns
	// ErrNoLocalStore for the administrative facility and
	// registry.UnknownFacilityError for unconfigured ids.
	Open(ctx context.Context, facilityID int64) (Store, error)
}
