package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mednet/mednet/internal/platform/cache"
)

// ReferenceNotFoundError reports a directory reference that failed validation
// before a facility-store write.
type ReferenceNotFoundError struct {
	Kind string // "patient", "physician" or "medication"
	ID   int64
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found in directory", e.Kind, e.ID)
}

// RefChecker is the slice of the directory the validator needs.
type RefChecker interface {
	PatientExists(ctx context.Context, id int64) (bool, error)
	PhysicianExists(ctx context.Context, id int64) (bool, error)
	MedicationExists(ctx context.Context, id int64) (bool, error)
}

const refCacheTTL = 30 * time.Second

// Validator checks directory references before facility-store writes. The
// optional KV caches positive results only: a reference that existed moments
// ago may still be deleted between validation and write, which the write path
// already tolerates, so bounded staleness adds no new failure mode. Misses
// are never cached.
type Validator struct {
	refs RefChecker
	kv   cache.KV // nil disables caching
}

func NewValidator(refs RefChecker, kv cache.KV) *Validator {
	return &Validator{refs: refs, kv: kv}
}

func (v *Validator) exists(ctx context.Context, kind string, id int64,
	check func(context.Context, int64) (bool, error)) (bool, error) {

	key := fmt.Sprintf("ref:%s:%d", kind, id)
	if v.kv != nil {
		if _, err := v.kv.Get(ctx, key); err == nil {
			return true, nil
		}
	}

	ok, err := check(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check %s %d: %w", kind, id, err)
	}
	if ok && v.kv != nil {
		if err := v.kv.Set(ctx, key, "1", refCacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("reference cache write failed")
		}
	}
	return ok, nil
}

// ValidateConsultationRefs checks the patient and physician references.
func (v *Validator) ValidateConsultationRefs(ctx context.Context, patientID, physicianID int64) error {
	ok, err := v.exists(ctx, "patient", patientID, v.refs.PatientExists)
	if err != nil {
		return err
	}
	if !ok {
		return &ReferenceNotFoundError{Kind: "patient", ID: patientID}
	}

	ok, err = v.exists(ctx, "physician", physicianID, v.refs.PhysicianExists)
	if err != nil {
		return err
	}
	if !ok {
		return &ReferenceNotFoundError{Kind: "physician", ID: physicianID}
	}
	return nil
}

// ValidatePrescriptionRef checks the medication reference.
func (v *Validator) ValidatePrescriptionRef(ctx context.Context, medicationID int64) error {
	ok, err := v.exists(ctx, "medication", medicationID, v.refs.MedicationExists)
	if err != nil {
		return err
	}
	if !ok {
		return &ReferenceNotFoundError{Kind: "medication", ID: medicationID}
	}
	return nil
}
