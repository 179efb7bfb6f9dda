package directory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Facility Repository ===========

type facilityRepoPG struct{ pool *pgxpool.Pool }

func NewFacilityRepoPG(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepoPG{pool: pool}
}

const facilityCols = `id, name, address, created_at, updated_at`

func scanFacility(row pgx.Row) (*Facility, error) {
	var f Facility
	err := row.Scan(&f.ID, &f.Name, &f.Address, &f.CreatedAt, &f.UpdatedAt)
	return &f, err
}

func (r *facilityRepoPG) Create(ctx context.Context, f *Facility) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO facility (name, address) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		f.Name, f.Address).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (r *facilityRepoPG) GetByID(ctx context.Context, id int64) (*Facility, error) {
	return scanFacility(r.pool.QueryRow(ctx, `SELECT `+facilityCols+` FROM facility WHERE id = $1`, id))
}

func (r *facilityRepoPG) List(ctx context.Context, limit, offset int) ([]*Facility, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM facility`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+facilityCols+` FROM facility ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}

func (r *facilityRepoPG) Update(ctx context.Context, f *Facility) error {
	_, err := r.pool.Exec(ctx, `UPDATE facility SET name=$2, address=$3, updated_at=NOW() WHERE id = $1`,
		f.ID, f.Name, f.Address)
	return err
}

func (r *facilityRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM facility WHERE id = $1`, id)
	return err
}

func (r *facilityRepoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM facility WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// =========== Staff Repository ===========

type staffRepoPG struct{ pool *pgxpool.Pool }

func NewStaffRepoPG(pool *pgxpool.Pool) StaffRepository {
	return &staffRepoPG{pool: pool}
}

const staffCols = `id, national_id, name, surname, role, password_hash, facility_id, created_at, updated_at`

func scanStaff(row pgx.Row) (*StaffMember, error) {
	var s StaffMember
	err := row.Scan(&s.ID, &s.NationalID, &s.Name, &s.Surname, &s.Role, &s.PasswordHash, &s.FacilityID,
		&s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *staffRepoPG) Create(ctx context.Context, s *StaffMember) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO staff_member (national_id, name, surname, role, password_hash, facility_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		s.NationalID, s.Name, s.Surname, s.Role, s.PasswordHash, s.FacilityID).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *staffRepoPG) GetByID(ctx context.Context, id int64) (*StaffMember, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM staff_member WHERE id = $1`, id))
}

func (r *staffRepoPG) GetByNationalID(ctx context.Context, nationalID string) (*StaffMember, error) {
	return scanStaff(r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM staff_member WHERE national_id = $1`, nationalID))
}

func (r *staffRepoPG) List(ctx context.Context, limit, offset int) ([]*StaffMember, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff_member`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+staffCols+` FROM staff_member ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*StaffMember
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *staffRepoPG) Update(ctx context.Context, s *StaffMember) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE staff_member SET name=$2, surname=$3, role=$4, facility_id=$5, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Name, s.Surname, s.Role, s.FacilityID)
	return err
}

func (r *staffRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM staff_member WHERE id = $1`, id)
	return err
}

// =========== Specialty Repository ===========

type specialtyRepoPG struct{ pool *pgxpool.Pool }

func NewSpecialtyRepoPG(pool *pgxpool.Pool) SpecialtyRepository {
	return &specialtyRepoPG{pool: pool}
}

func (r *specialtyRepoPG) Create(ctx context.Context, sp *Specialty) error {
	return r.pool.QueryRow(ctx, `INSERT INTO specialty (name) VALUES ($1) RETURNING id`, sp.Name).Scan(&sp.ID)
}

func (r *specialtyRepoPG) GetByID(ctx context.Context, id int64) (*Specialty, error) {
	var sp Specialty
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM specialty WHERE id = $1`, id).Scan(&sp.ID, &sp.Name)
	return &sp, err
}

func (r *specialtyRepoPG) List(ctx context.Context, limit, offset int) ([]*Specialty, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM specialty`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM specialty ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Specialty
	for rows.Next() {
		var sp Specialty
		if err := rows.Scan(&sp.ID, &sp.Name); err != nil {
			return nil, 0, err
		}
		items = append(items, &sp)
	}
	return items, total, rows.Err()
}

func (r *specialtyRepoPG) Update(ctx context.Context, sp *Specialty) error {
	_, err := r.pool.Exec(ctx, `UPDATE specialty SET name=$2 WHERE id = $1`, sp.ID, sp.Name)
	return err
}

func (r *specialtyRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM specialty WHERE id = $1`, id)
	return err
}

func (r *specialtyRepoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM specialty WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// =========== Physician Repository ===========

type physicianRepoPG struct{ pool *pgxpool.Pool }

func NewPhysicianRepoPG(pool *pgxpool.Pool) PhysicianRepository {
	return &physicianRepoPG{pool: pool}
}

func (r *physicianRepoPG) Create(ctx context.Context, p *Physician) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO physician (staff_id, specialty_id) VALUES ($1, $2) RETURNING id`,
		p.StaffID, p.SpecialtyID).Scan(&p.ID)
}

func (r *physicianRepoPG) GetByID(ctx context.Context, id int64) (*Physician, error) {
	var p Physician
	err := r.pool.QueryRow(ctx, `SELECT id, staff_id, specialty_id FROM physician WHERE id = $1`, id).
		Scan(&p.ID, &p.StaffID, &p.SpecialtyID)
	return &p, err
}

func (r *physicianRepoPG) GetByStaffID(ctx context.Context, staffID int64) (*Physician, error) {
	var p Physician
	err := r.pool.QueryRow(ctx, `SELECT id, staff_id, specialty_id FROM physician WHERE staff_id = $1`, staffID).
		Scan(&p.ID, &p.StaffID, &p.SpecialtyID)
	return &p, err
}

func (r *physicianRepoPG) List(ctx context.Context, limit, offset int) ([]*Physician, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM physician`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, staff_id, specialty_id FROM physician ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Physician
	for rows.Next() {
		var p Physician
		if err := rows.Scan(&p.ID, &p.StaffID, &p.SpecialtyID); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}

func (r *physicianRepoPG) Update(ctx context.Context, p *Physician) error {
	_, err := r.pool.Exec(ctx, `UPDATE physician SET specialty_id=$2 WHERE id = $1`, p.ID, p.SpecialtyID)
	return err
}

func (r *physicianRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM physician WHERE id = $1`, id)
	return err
}

func (r *physicianRepoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM physician WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

const patientCols = `id, national_id, name, surname, birth_date, address, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.NationalID, &p.Name, &p.Surname, &p.BirthDate, &p.Address,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient (national_id, name, surname, birth_date, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.NationalID, p.Name, p.Surname, p.BirthDate, p.Address).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByNationalID(ctx context.Context, nationalID string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE national_id = $1`, nationalID))
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE patient SET name=$2, surname=$3, birth_date=$4, address=$5, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Surname, p.BirthDate, p.Address)
	return err
}

func (r *patientRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	return err
}

func (r *patientRepoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM patient WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// =========== Medication Repository ===========

type medicationRepoPG struct{ pool *pgxpool.Pool }

func NewMedicationRepoPG(pool *pgxpool.Pool) MedicationRepository {
	return &medicationRepoPG{pool: pool}
}

const medicationCols = `id, generic_name, brand_name, manufacturer`

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.GenericName, &m.BrandName, &m.Manufacturer)
	return &m, err
}

func (r *medicationRepoPG) Create(ctx context.Context, m *Medication) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO medication (generic_name, brand_name, manufacturer)
		VALUES ($1, $2, $3) RETURNING id`,
		m.GenericName, m.BrandName, m.Manufacturer).Scan(&m.ID)
}

func (r *medicationRepoPG) GetByID(ctx context.Context, id int64) (*Medication, error) {
	return scanMedication(r.pool.QueryRow(ctx, `SELECT `+medicationCols+` FROM medication WHERE id = $1`, id))
}

func (r *medicationRepoPG) List(ctx context.Context, limit, offset int) ([]*Medication, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medication`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+medicationCols+` FROM medication ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *medicationRepoPG) Update(ctx context.Context, m *Medication) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE medication SET generic_name=$2, brand_name=$3, manufacturer=$4 WHERE id = $1`,
		m.ID, m.GenericName, m.BrandName, m.Manufacturer)
	return err
}

func (r *medicationRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM medication WHERE id = $1`, id)
	return err
}

func (r *medicationRepoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM medication WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *medicationRepoPG) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT id, generic_name FROM medication WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
