package dto

import "github.com/noah-isme/trust-erp-api/internal/models"

// RegisterStudentRequest admits a student and creates their account.
type RegisterStudentRequest struct {
	Email          string              `json:"email" validate:"required,email,max=254"`
	FullName       string              `json:"fullName" validate:"required,notblank,min=3,max=120"`
	RegistrationNo string              `json:"registrationNo" validate:"required,identifier"`
	ClassID        string              `json:"classId" validate:"required,uuid"`
	ProgramType    models.Program      `json:"programType" validate:"required,program"`
	NeedsHostel    bool                `json:"needsHostel"`
	Guardian       models.GuardianInfo `json:"guardian" validate:"required"`
}

// RegisterStudentResponse carries the one-time credential of the new account.
type RegisterStudentResponse struct {
	Student    models.Student    `json:"student"`
	Enrollment models.Enrollment `json:"enrollment"`
	Credential models.Credential `json:"credential"`
}

// AddRemarkRequest records a teacher's note about a student.
type AddRemarkRequest struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	Remark    string `json:"remark" validate:"required,notblank,min=3,max=1000"`
}

// SetBeneficiaryRequest flags a student for free tuition.
type SetBeneficiaryRequest struct {
	StudentID   string `json:"studentId" validate:"required,uuid"`
	Beneficiary *bool  `json:"beneficiary" validate:"required"`
}
