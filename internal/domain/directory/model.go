package directory

import "time"

// Facility is a medical center registered in the shared directory. The
// administrative facility carries no clinical store of its own.
type Facility struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StaffMember is an employee record. Role is ADMIN, PHYSICIAN or nil.
// A non-ADMIN role requires a facility binding.
type StaffMember struct {
	ID           int64     `json:"id"`
	NationalID   string    `json:"national_id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Role         *string   `json:"role,omitempty"`
	PasswordHash string    `json:"-"`
	FacilityID   *int64    `json:"facility_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Specialty struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Physician links a staff member to a specialty. StaffID is unique: one
// physician record per staff member.
type Physician struct {
	ID          int64 `json:"id"`
	StaffID     int64 `json:"staff_id"`
	SpecialtyID int64 `json:"specialty_id"`
}

type Patient struct {
	ID         int64      `json:"id"`
	NationalID string     `json:"national_id"`
	Name       string     `json:"name"`
	Surname    string     `json:"surname"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Address    *string    `json:"address,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Medication struct {
	ID           int64   `json:"id"`
	GenericName  string  `json:"generic_name"`
	BrandName    *string `json:"brand_name,omitempty"`
	Manufacturer *string `json:"manufacturer,omitempty"`
}
