package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mednet/mednet/internal/platform/cache"
)

type memKV struct {
	values map[string]string
	sets   int
}

func newMemKV() *memKV {
	return &memKV{values: make(map[string]string)}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", cache.ErrCacheMiss
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.values[key] = value
	m.sets++
	return nil
}

type countingRefs struct {
	*fakeRefs
	patientChecks int
}

func (c *countingRefs) PatientExists(ctx context.Context, id int64) (bool, error) {
	c.patientChecks++
	return c.fakeRefs.PatientExists(ctx, id)
}

func TestValidatorReportsMissingRefs(t *testing.T) {
	refs := newFakeRefs()
	refs.patients[1] = true
	v := NewValidator(refs, nil)

	err := v.ValidateConsultationRefs(context.Background(), 1, 2)
	var refErr *ReferenceNotFoundError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceNotFoundError, got %v", err)
	}
	if refErr.Kind != "physician" || refErr.ID != 2 {
		t.Errorf("refErr = %+v", refErr)
	}

	err = v.ValidatePrescriptionRef(context.Background(), 7)
	if !errors.As(err, &refErr) || refErr.Kind != "medication" || refErr.ID != 7 {
		t.Fatalf("expected medication ReferenceNotFoundError, got %v", err)
	}
}

func TestValidatorCachesPositiveResults(t *testing.T) {
	refs := &countingRefs{fakeRefs: newFakeRefs()}
	refs.patients[1] = true
	refs.physicians[2] = true
	kv := newMemKV()
	v := NewValidator(refs, kv)

	if err := v.ValidateConsultationRefs(context.Background(), 1, 2); err != nil {
		t.Fatalf("ValidateConsultationRefs: %v", err)
	}
	if refs.patientChecks != 1 {
		t.Fatalf("patientChecks = %d, want 1", refs.patientChecks)
	}

	// Second validation hits the cache and skips the directory.
	if err := v.ValidateConsultationRefs(context.Background(), 1, 2); err != nil {
		t.Fatalf("ValidateConsultationRefs (cached): %v", err)
	}
	if refs.patientChecks != 1 {
		t.Errorf("patientChecks = %d after cached validation, want 1", refs.patientChecks)
	}
}

func TestValidatorNeverCachesMisses(t *testing.T) {
	refs := newFakeRefs()
	kv := newMemKV()
	v := NewValidator(refs, kv)

	if err := v.ValidatePrescriptionRef(context.Background(), 7); err == nil {
		t.Fatal("expected error for unknown medication")
	}
	if kv.sets != 0 {
		t.Errorf("kv.sets = %d, misses must not be cached", kv.sets)
	}

	// Once the medication shows up, validation passes immediately.
	refs.medications[7] = "Amoxicillin"
	if err := v.ValidatePrescriptionRef(context.Background(), 7); err != nil {
		t.Fatalf("ValidatePrescriptionRef: %v", err)
	}
	if kv.sets != 1 {
		t.Errorf("kv.sets = %d, positive result must be cached", kv.sets)
	}
}
