package clinical

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mednet/mednet/internal/platform/registry"
)

// PGStoreFactory opens per-facility stores against the registry's pools.
type PGStoreFactory struct {
	reg *registry.Registry
}

func NewStoreFactory(reg *registry.Registry) *PGStoreFactory {
	return &PGStoreFactory{reg: reg}
}

func (f *PGStoreFactory) Open(ctx context.Context, facilityID int64) (Store, error) {
	pool, ok, err := f.reg.Resolve(facilityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoLocalStore
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for facility %d: %w", facilityID, err)
	}
	return &pgStore{conn: conn}, nil
}

// pgStore binds the three clinical repositories to one acquired connection.
type pgStore struct {
	conn *pgxpool.Conn
}

func (s *pgStore) Consultations() ConsultationRepository {
	return &consultationRepoPG{q: s.conn}
}

func (s *pgStore) Diagnoses() DiagnosisRepository {
	return &diagnosisRepoPG{q: s.conn}
}

func (s *pgStore) Prescriptions() PrescriptionRepository {
	return &prescriptionRepoPG{q: s.conn}
}

func (s *pgStore) Close() {
	s.conn.Release()
}
