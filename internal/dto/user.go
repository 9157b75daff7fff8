package dto

import "github.com/noah-isme/trust-erp-api/internal/models"

// CreateStaffRequest creates a non-student account.
type CreateStaffRequest struct {
	Email    string      `json:"email" validate:"required,email,max=254"`
	FullName string      `json:"fullName" validate:"required,notblank,min=3,max=120"`
	Role     models.Role `json:"role" validate:"required,role"`
}

// ChangeRoleRequest moves an account to another role.
type ChangeRoleRequest struct {
	UserID string      `json:"userId" validate:"required,uuid"`
	Role   models.Role `json:"role" validate:"required,role"`
}

// SetUserStatusRequest activates or deactivates an account.
type SetUserStatusRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Active *bool  `json:"active" validate:"required"`
}

// ResetPasswordRequest replaces an account's credential. A blank password is generated.
type ResetPasswordRequest struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	NewPassword string `json:"newPassword,omitempty" validate:"omitempty,min=8,max=72"`
}
