package clinical

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Consultation Repository ===========

type consultationRepoPG struct{ q queryable }

const consultationCols = `id, ts, patient_id, physician_id, reason`

func scanConsultation(row pgx.Row) (*Consultation, error) {
	var c Consultation
	err := row.Scan(&c.ID, &c.Timestamp, &c.PatientID, &c.PhysicianID, &c.Reason)
	return &c, err
}

func (r *consultationRepoPG) Create(ctx context.Context, c *Consultation) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO consultation (ts, patient_id, physician_id, reason)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		c.Timestamp, c.PatientID, c.PhysicianID, c.Reason).Scan(&c.ID)
}

func (r *consultationRepoPG) GetByID(ctx context.Context, id int64) (*Consultation, error) {
	return scanConsultation(r.q.QueryRow(ctx, `SELECT `+consultationCols+` FROM consultation WHERE id = $1`, id))
}

func (r *consultationRepoPG) List(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM consultation`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.q.Query(ctx, `
		SELECT `+consultationCols+` FROM consultation
		ORDER BY ts DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *consultationRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Consultation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+consultationCols+` FROM consultation
		WHERE patient_id = $1 ORDER BY ts DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *consultationRepoPG) Update(ctx context.Context, c *Consultation) error {
	_, err := r.q.Exec(ctx, `
		UPDATE consultation SET ts=$2, patient_id=$3, physician_id=$4, reason=$5 WHERE id = $1`,
		c.ID, c.Timestamp, c.PatientID, c.PhysicianID, c.Reason)
	return err
}

func (r *consultationRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM consultation WHERE id = $1`, id)
	return err
}

// =========== Diagnosis Repository ===========

type diagnosisRepoPG struct{ q queryable }

const diagnosisCols = `id, consultation_id, disease_name, observations`

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.ConsultationID, &d.DiseaseName, &d.Observations)
	return &d, err
}

func (r *diagnosisRepoPG) Create(ctx context.Context, d *Diagnosis) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO diagnosis (consultation_id, disease_name, observations)
		VALUES ($1, $2, $3) RETURNING id`,
		d.ConsultationID, d.DiseaseName, d.Observations).Scan(&d.ID)
}

func (r *diagnosisRepoPG) GetByID(ctx context.Context, id int64) (*Diagnosis, error) {
	return scanDiagnosis(r.q.QueryRow(ctx, `SELECT `+diagnosisCols+` FROM diagnosis WHERE id = $1`, id))
}

func (r *diagnosisRepoPG) ListByConsultation(ctx context.Context, consultationID int64) ([]*Diagnosis, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+diagnosisCols+` FROM diagnosis WHERE consultation_id = $1 ORDER BY id`, consultationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *diagnosisRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Diagnosis, error) {
	rows, err := r.q.Query(ctx, `
		SELECT d.id, d.consultation_id, d.disease_name, d.observations
		FROM diagnosis d
		JOIN consultation c ON c.id = d.consultation_id
		WHERE c.patient_id = $1 ORDER BY d.id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *diagnosisRepoPG) Update(ctx context.Context, d *Diagnosis) error {
	_, err := r.q.Exec(ctx, `
		UPDATE diagnosis SET disease_name=$2, observations=$3 WHERE id = $1`,
		d.ID, d.DiseaseName, d.Observations)
	return err
}

func (r *diagnosisRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM diagnosis WHERE id = $1`, id)
	return err
}

func (r *diagnosisRepoPG) DeleteByConsultation(ctx context.Context, consultationID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM diagnosis WHERE consultation_id = $1`, consultationID)
	return err
}

// =========== Prescription Repository ===========

type prescriptionRepoPG struct{ q queryable }

const prescriptionCols = `id, diagnosis_id, medication_id, instructions`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.DiagnosisID, &p.MedicationID, &p.Instructions)
	return &p, err
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO prescription (diagnosis_id, medication_id, instructions)
		VALUES ($1, $2, $3) RETURNING id`,
		p.DiagnosisID, p.MedicationID, p.Instructions).Scan(&p.ID)
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id int64) (*Prescription, error) {
	return scanPrescription(r.q.QueryRow(ctx, `SELECT `+prescriptionCols+` FROM prescription WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) ListByDiagnosis(ctx context.Context, diagnosisID int64) ([]*Prescription, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+prescriptionCols+` FROM prescription WHERE diagnosis_id = $1 ORDER BY id`, diagnosisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Prescription, error) {
	rows, err := r.q.Query(ctx, `
		SELECT p.id, p.diagnosis_id, p.medication_id, p.instructions
		FROM prescription p
		JOIN diagnosis d ON d.id = p.diagnosis_id
		JOIN consultation c ON c.id = d.consultation_id
		WHERE c.patient_id = $1 ORDER BY p.id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := r.q.Exec(ctx, `
		UPDATE prescription SET medication_id=$2, instructions=$3 WHERE id = $1`,
		p.ID, p.MedicationID, p.Instructions)
	return err
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	return err
}

func (r *prescriptionRepoPG) DeleteByDiagnosis(ctx context.Context, diagnosisID int64) error {
	_, err := r.q.Exec(ctx, `DELETE FROM prescription WHERE diagnosis_id = $1`, diagnosisID)
	return err
}

func (r *prescriptionRepoPG) DeleteByConsultation(ctx context.Context, consultationID int64) error {
	_, err := r.q.Exec(ctx, `
		DELETE FROM prescription WHERE diagnosis_id IN (
			SELECT id FROM diagnosis WHERE consultation_id = $1)`, consultationID)
	return err
}
