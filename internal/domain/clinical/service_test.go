package clinical

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mednet/mednet/internal/platform/registry"
)

// -- in-memory facility store --

type memStore struct {
	consultations map[int64]*Consultation
	diagnoses     map[int64]*Diagnosis
	prescriptions map[int64]*Prescription
	nextID        int64
	opens         int
	closes        int
}

func newMemStore() *memStore {
	return &memStore{
		consultations: make(map[int64]*Consultation),
		diagnoses:     make(map[int64]*Diagnosis),
		prescriptions: make(map[int64]*Prescription),
		nextID:        1,
	}
}

func (s *memStore) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memStore) Consultations() ConsultationRepository { return &memConsultations{s} }
func (s *memStore) Diagnoses() DiagnosisRepository        { return &memDiagnoses{s} }
func (s *memStore) Prescriptions() PrescriptionRepository { return &memPrescriptions{s} }
func (s *memStore) Close()                                { s.closes++ }

type memConsultations struct{ s *memStore }

func (r *memConsultations) Create(_ context.Context, c *Consultation) error {
	c.ID = r.s.id()
	cp := *c
	r.s.consultations[c.ID] = &cp
	return nil
}

func (r *memConsultations) GetByID(_ context.Context, id int64) (*Consultation, error) {
	c, ok := r.s.consultations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (r *memConsultations) List(_ context.Context, limit, offset int) ([]*Consultation, int, error) {
	var out []*Consultation
	for _, c := range r.s.consultations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *memConsultations) ListByPatient(_ context.Context, patientID int64) ([]*Consultation, error) {
	var out []*Consultation
	for _, c := range r.s.consultations {
		if c.PatientID == patientID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memConsultations) Update(_ context.Context, c *Consultation) error {
	cp := *c
	r.s.consultations[c.ID] = &cp
	return nil
}

func (r *memConsultations) Delete(_ context.Context, id int64) error {
	delete(r.s.consultations, id)
	return nil
}

type memDiagnoses struct{ s *memStore }

func (r *memDiagnoses) Create(_ context.Context, d *Diagnosis) error {
	d.ID = r.s.id()
	cp := *d
	r.s.diagnoses[d.ID] = &cp
	return nil
}

func (r *memDiagnoses) GetByID(_ context.Context, id int64) (*Diagnosis, error) {
	d, ok := r.s.diagnoses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

func (r *memDiagnoses) ListByConsultation(_ context.Context, consultationID int64) ([]*Diagnosis, error) {
	var out []*Diagnosis
	for _, d := range r.s.diagnoses {
		if d.ConsultationID == consultationID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memDiagnoses) ListByPatient(_ context.Context, patientID int64) ([]*Diagnosis, error) {
	var out []*Diagnosis
	for _, d := range r.s.diagnoses {
		if c, ok := r.s.consultations[d.ConsultationID]; ok && c.PatientID == patientID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memDiagnoses) Update(_ context.Context, d *Diagnosis) error {
	cp := *d
	r.s.diagnoses[d.ID] = &cp
	return nil
}

func (r *memDiagnoses) Delete(_ context.Context, id int64) error {
	delete(r.s.diagnoses, id)
	return nil
}

func (r *memDiagnoses) DeleteByConsultation(_ context.Context, consultationID int64) error {
	for id, d := range r.s.diagnoses {
		if d.ConsultationID == consultationID {
			delete(r.s.diagnoses, id)
		}
	}
	return nil
}

type memPrescriptions struct{ s *memStore }

func (r *memPrescriptions) Create(_ context.Context, p *Prescription) error {
	p.ID = r.s.id()
	cp := *p
	r.s.prescriptions[p.ID] = &cp
	return nil
}

func (r *memPrescriptions) GetByID(_ context.Context, id int64) (*Prescription, error) {
	p, ok := r.s.prescriptions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (r *memPrescriptions) ListByDiagnosis(_ context.Context, diagnosisID int64) ([]*Prescription, error) {
	var out []*Prescription
	for _, p := range r.s.prescriptions {
		if p.DiagnosisID == diagnosisID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPrescriptions) ListByPatient(_ context.Context, patientID int64) ([]*Prescription, error) {
	var out []*Prescription
	for _, p := range r.s.prescriptions {
		d, ok := r.s.diagnoses[p.DiagnosisID]
		if !ok {
			continue
		}
		if c, ok := r.s.consultations[d.ConsultationID]; ok && c.PatientID == patientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memPrescriptions) Update(_ context.Context, p *Prescription) error {
	cp := *p
	r.s.prescriptions[p.ID] = &cp
	return nil
}

func (r *memPrescriptions) Delete(_ context.Context, id int64) error {
	delete(r.s.prescriptions, id)
	return nil
}

func (r *memPrescriptions) DeleteByDiagnosis(_ context.Context, diagnosisID int64) error {
	for id, p := range r.s.prescriptions {
		if p.DiagnosisID == diagnosisID {
			delete(r.s.prescriptions, id)
		}
	}
	return nil
}

func (r *memPrescriptions) DeleteByConsultation(_ context.Context, consultationID int64) error {
	for id, p := range r.s.prescriptions {
		if d, ok := r.s.diagnoses[p.DiagnosisID]; ok && d.ConsultationID == consultationID {
			delete(r.s.prescriptions, id)
		}
	}
	return nil
}

type memFactory struct {
	stores  map[int64]*memStore
	adminID int64
}

func (f *memFactory) Open(_ context.Context, facilityID int64) (Store, error) {
	if facilityID == f.adminID {
		return nil, ErrNoLocalStore
	}
	s, ok := f.stores[facilityID]
	if !ok {
		return nil, &registry.UnknownFacilityError{FacilityID: facilityID}
	}
	s.opens++
	return s, nil
}

// -- directory fakes --

type fakeRefs struct {
	patients    map[int64]bool
	physicians  map[int64]bool
	medications map[int64]string
}

func newFakeRefs() *fakeRefs {
	return &fakeRefs{
		patients:    make(map[int64]bool),
		physicians:  make(map[int64]bool),
		medications: make(map[int64]string),
	}
}

func (f *fakeRefs) PatientExists(_ context.Context, id int64) (bool, error) {
	return f.patients[id], nil
}

func (f *fakeRefs) PhysicianExists(_ context.Context, id int64) (bool, error) {
	return f.physicians[id], nil
}

func (f *fakeRefs) MedicationExists(_ context.Context, id int64) (bool, error) {
	_, ok := f.medications[id]
	return ok, nil
}

func (f *fakeRefs) MedicationNames(_ context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string)
	for _, id := range ids {
		if name, ok := f.medications[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

type clinicalFixture struct {
	svc   *Service
	store *memStore
	refs  *fakeRefs
}

const (
	testFacility = int64(2)
	adminID      = int64(1)
)

func newClinicalFixture() *clinicalFixture {
	store := newMemStore()
	refs := newFakeRefs()
	factory := &memFactory{stores: map[int64]*memStore{testFacility: store}, adminID: adminID}
	return &clinicalFixture{
		svc:   NewService(factory, NewValidator(refs, nil), refs),
		store: store,
		refs:  refs,
	}
}

// -- tests --

func TestCreateConsultationRejectsUnknownPatient(t *testing.T) {
	f := newClinicalFixture()
	f.refs.physicians[10] = true

	err := f.svc.CreateConsultation(context.Background(), testFacility, &Consultation{
		PatientID: 5, PhysicianID: 10, Reason: "checkup",
	})
	var refErr *ReferenceNotFoundError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferenceNotFoundError, got %v", err)
	}
	if refErr.Kind != "patient" || refErr.ID != 5 {
		t.Errorf("refErr = %+v", refErr)
	}
	if len(f.store.consultations) != 0 {
		t.Error("rejected write must persist nothing")
	}
}

func TestCreateConsultationRejectsUnknownPhysician(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true

	err := f.svc.CreateConsultation(context.Background(), testFacility, &Consultation{
		PatientID: 5, PhysicianID: 10, Reason: "checkup",
	})
	var refErr *ReferenceNotFoundError
	if !errors.As(err, &refErr) || refErr.Kind != "physician" {
		t.Fatalf("expected physician ReferenceNotFoundError, got %v", err)
	}
}

func TestCreateConsultationDefaultsTimestamp(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true

	c := &Consultation{PatientID: 5, PhysicianID: 10, Reason: "checkup"}
	if err := f.svc.CreateConsultation(context.Background(), testFacility, c); err != nil {
		t.Fatalf("CreateConsultation: %v", err)
	}
	if c.Timestamp.IsZero() {
		t.Error("timestamp must default to now")
	}
	if time.Since(c.Timestamp) > time.Minute {
		t.Errorf("timestamp %v is not recent", c.Timestamp)
	}
}

func TestCreateConsultationAdminFacilityHasNoStore(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true

	err := f.svc.CreateConsultation(context.Background(), adminID, &Consultation{
		PatientID: 5, PhysicianID: 10, Reason: "checkup",
	})
	if !errors.Is(err, ErrNoLocalStore) {
		t.Fatalf("expected ErrNoLocalStore, got %v", err)
	}
}

func TestCreateConsultationUnknownFacility(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true

	err := f.svc.CreateConsultation(context.Background(), 99, &Consultation{
		PatientID: 5, PhysicianID: 10, Reason: "checkup",
	})
	var ufe *registry.UnknownFacilityError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnknownFacilityError, got %v", err)
	}
}

func TestCreateDiagnosisRequiresLocalConsultation(t *testing.T) {
	f := newClinicalFixture()
	err := f.svc.CreateDiagnosis(context.Background(), testFacility, &Diagnosis{
		ConsultationID: 42, DiseaseName: "flu",
	})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected row-miss error, got %v", err)
	}
}

func TestCreatePrescriptionChecksMedicationAndDiagnosis(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true

	con := &Consultation{PatientID: 5, PhysicianID: 10, Reason: "checkup"}
	if err := f.svc.CreateConsultation(context.Background(), testFacility, con); err != nil {
		t.Fatal(err)
	}
	d := &Diagnosis{ConsultationID: con.ID, DiseaseName: "flu"}
	if err := f.svc.CreateDiagnosis(context.Background(), testFacility, d); err != nil {
		t.Fatal(err)
	}

	// Unknown medication id fails before the facility write.
	err := f.svc.CreatePrescription(context.Background(), testFacility, &Prescription{
		DiagnosisID: d.ID, MedicationID: 7,
	})
	var refErr *ReferenceNotFoundError
	if !errors.As(err, &refErr) || refErr.Kind != "medication" {
		t.Fatalf("expected medication ReferenceNotFoundError, got %v", err)
	}
	if len(f.store.prescriptions) != 0 {
		t.Error("rejected prescription must persist nothing")
	}

	// Known medication, unknown local diagnosis also fails.
	f.refs.medications[7] = "Amoxicillin"
	err = f.svc.CreatePrescription(context.Background(), testFacility, &Prescription{
		DiagnosisID: 999, MedicationID: 7,
	})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected row-miss error, got %v", err)
	}

	if err := f.svc.CreatePrescription(context.Background(), testFacility, &Prescription{
		DiagnosisID: d.ID, MedicationID: 7,
	}); err != nil {
		t.Fatalf("CreatePrescription: %v", err)
	}
}

func TestDeleteConsultationCascades(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true
	f.refs.medications[7] = "Amoxicillin"

	con := &Consultation{PatientID: 5, PhysicianID: 10, Reason: "checkup"}
	if err := f.svc.CreateConsultation(context.Background(), testFacility, con); err != nil {
		t.Fatal(err)
	}
	d1 := &Diagnosis{ConsultationID: con.ID, DiseaseName: "flu"}
	d2 := &Diagnosis{ConsultationID: con.ID, DiseaseName: "sinusitis"}
	for _, d := range []*Diagnosis{d1, d2} {
		if err := f.svc.CreateDiagnosis(context.Background(), testFacility, d); err != nil {
			t.Fatal(err)
		}
	}
	for _, diagID := range []int64{d1.ID, d2.ID} {
		if err := f.svc.CreatePrescription(context.Background(), testFacility, &Prescription{
			DiagnosisID: diagID, MedicationID: 7,
		}); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.svc.DeleteConsultation(context.Background(), testFacility, con.ID); err != nil {
		t.Fatalf("DeleteConsultation: %v", err)
	}
	if len(f.store.consultations) != 0 || len(f.store.diagnoses) != 0 || len(f.store.prescriptions) != 0 {
		t.Errorf("cascade incomplete: %d consultations, %d diagnoses, %d prescriptions",
			len(f.store.consultations), len(f.store.diagnoses), len(f.store.prescriptions))
	}
}

func TestDeleteDiagnosisCascadesPrescriptions(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true
	f.refs.medications[7] = "Amoxicillin"

	con := &Consultation{PatientID: 5, PhysicianID: 10, Reason: "checkup"}
	if err := f.svc.CreateConsultation(context.Background(), testFacility, con); err != nil {
		t.Fatal(err)
	}
	d := &Diagnosis{ConsultationID: con.ID, DiseaseName: "flu"}
	if err := f.svc.CreateDiagnosis(context.Background(), testFacility, d); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.CreatePrescription(context.Background(), testFacility, &Prescription{
		DiagnosisID: d.ID, MedicationID: 7,
	}); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.DeleteDiagnosis(context.Background(), testFacility, d.ID); err != nil {
		t.Fatalf("DeleteDiagnosis: %v", err)
	}
	if len(f.store.prescriptions) != 0 {
		t.Error("prescriptions must be deleted with their diagnosis")
	}
	if len(f.store.consultations) != 1 {
		t.Error("consultation must survive a diagnosis delete")
	}
}

func TestListPrescriptionsResolvesNames(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true
	f.refs.medications[7] = "Amoxicillin"
	f.refs.medications[8] = "Ibuprofen"

	con := &Consultation{PatientID: 5, PhysicianID: 10, Reason: "checkup"}
	if err := f.svc.CreateConsultation(context.Background(), testFacility, con); err != nil {
		t.Fatal(err)
	}
	d := &Diagnosis{ConsultationID: con.ID, DiseaseName: "flu"}
	if err := f.svc.CreateDiagnosis(context.Background(), testFacility, d); err != nil {
		t.Fatal(err)
	}
	for _, medID := range []int64{7, 8} {
		if err := f.svc.CreatePrescription(context.Background(), testFacility, &Prescription{
			DiagnosisID: d.ID, MedicationID: medID,
		}); err != nil {
			t.Fatal(err)
		}
	}
	// Medication 8 disappears from the directory after the prescription
	// was written.
	delete(f.refs.medications, 8)

	views, err := f.svc.ListPrescriptionsByDiagnosis(context.Background(), testFacility, d.ID)
	if err != nil {
		t.Fatalf("ListPrescriptionsByDiagnosis: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d prescriptions", len(views))
	}
	if views[0].MedicationName != "Amoxicillin" {
		t.Errorf("views[0].MedicationName = %q", views[0].MedicationName)
	}
	if views[1].MedicationName != UnknownMedicationName {
		t.Errorf("views[1].MedicationName = %q, want UNKNOWN", views[1].MedicationName)
	}
}

func TestStoreClosedOnEveryPath(t *testing.T) {
	f := newClinicalFixture()
	f.refs.patients[5] = true
	f.refs.physicians[10] = true

	con := &Consultation{PatientID: 5, PhysicianID: 10, Reason: "checkup"}
	if err := f.svc.CreateConsultation(context.Background(), testFacility, con); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetConsultation(context.Background(), testFacility, con.ID); err != nil {
		t.Fatal(err)
	}
	// Error path: missing diagnosis.
	if _, err := f.svc.GetDiagnosis(context.Background(), testFacility, 999); err == nil {
		t.Fatal("expected error")
	}

	if f.store.opens != f.store.closes {
		t.Errorf("opens = %d, closes = %d; every open must be matched", f.store.opens, f.store.closes)
	}
}
