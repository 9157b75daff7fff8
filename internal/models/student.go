package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Program identifies the institution a student is enrolled in.
type Program string

const (
	ProgramMRHSS Program = "MRHSS"
	ProgramMRA   Program = "MRA"
	ProgramRFL   Program = "RFL"
)

// HostelProgram is the only program offering boarding; ScholarshipProgram is trust-managed.
const (
	HostelProgram      = ProgramMRA
	ScholarshipProgram = ProgramRFL
)

// Valid reports whether p is a known program.
func (p Program) Valid() bool {
	switch p {
	case ProgramMRHSS, ProgramMRA, ProgramRFL:
		return true
	}
	return false
}

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "ACTIVE"
	EnrollmentStatusInactive EnrollmentStatus = "INACTIVE"
)

// Enrollment captures a student's membership in a program.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	Program   Program          `db:"program" json:"program"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// GuardianInfo is stored as a JSON document on the student row.
type GuardianInfo struct {
	Name     string `json:"name" validate:"required,min=3"`
	Relation string `json:"relation" validate:"required"`
	Phone    string `json:"phone" validate:"required,min=7,max=20"`
	Address  string `json:"address,omitempty"`
}

// Value implements driver.Valuer.
func (g GuardianInfo) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner.
func (g *GuardianInfo) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*g = GuardianInfo{}
		return nil
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	default:
		return fmt.Errorf("guardian info: unsupported type %T", src)
	}
}

// Student is the profile attached to a student account.
type Student struct {
	ID             string       `db:"id" json:"id"`
	UserID         string       `db:"user_id" json:"user_id"`
	RegistrationNo string       `db:"registration_no" json:"registration_no"`
	FullName       string       `db:"full_name" json:"full_name"`
	ClassID        string       `db:"class_id" json:"class_id"`
	NeedsHostel    bool         `db:"needs_hostel" json:"needs_hostel"`
	IsBeneficiary  bool         `db:"is_beneficiary" json:"is_beneficiary"`
	Guardian       GuardianInfo `db:"guardian" json:"guardian"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches a student with account and current-enrollment context.
type StudentDetail struct {
	Student
	Email          string   `db:"email" json:"email"`
	CurrentProgram *Program `db:"current_program" json:"current_program,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search   string
	ClassID  string
	Program  Program
	Page     int
	PageSize int
}

// StudentRemark is a teacher's note about a student.
type StudentRemark struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Remark    string    `db:"remark" json:"remark"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
