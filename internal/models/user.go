package models

import "time"

// Role represents the available roles for the RBAC system.
type Role string

const (
	RoleSuperAdmin    Role = "SUPER_ADMIN"
	RoleSectionHead   Role = "SECTION_HEAD"
	RoleFeeDept       Role = "FEE_DEPT"
	RoleAdmissionDept Role = "ADMISSION_DEPT"
	RoleExamDept      Role = "EXAM_DEPT"
	RoleTrustManager  Role = "TRUST_MANAGER"
	RoleTeacher       Role = "TEACHER"
	RoleStudent       Role = "STUDENT"
)

// AllRoles lists every role in hierarchy order.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleSectionHead,
	RoleFeeDept,
	RoleAdmissionDept,
	RoleExamDept,
	RoleTrustManager,
	RoleTeacher,
	RoleStudent,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents an application account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         Role      `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Actor returns the authorization view of the user.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role, Active: u.Active}
}

// Actor is the resolved session principal passed explicitly into every operation.
type Actor struct {
	ID     string `json:"id"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}

// Credential is a one-time plaintext credential handed back to the caller. It is never persisted.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
