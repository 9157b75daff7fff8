package models

import "time"

// Audit action types. The vocabulary is stable; consumers filter on it.
const (
	AuditActionCreateUser             = "CREATE_USER"
	AuditActionActivateUser           = "ACTIVATE_USER"
	AuditActionDeactivateUser         = "DEACTIVATE_USER"
	AuditActionResetPassword          = "RESET_PASSWORD"
	AuditActionCreateClass            = "CREATE_CLASS"
	AuditActionCreateSubject          = "CREATE_SUBJECT"
	AuditActionAssignTeacher          = "ASSIGN_TEACHER"
	AuditActionRegisterStudent        = "REGISTER_STUDENT"
	AuditActionMarkAttendance         = "MARK_ATTENDANCE"
	AuditActionAddRemark              = "ADD_REMARK"
	AuditActionUploadMarks            = "UPLOAD_MARKS"
	AuditActionSetAcademicPerformance = "SET_ACADEMIC_PERFORMANCE"
	AuditActionDefineFeeStructure     = "DEFINE_FEE_STRUCTURE"
	AuditActionGenerateBulkVouchers   = "GENERATE_BULK_VOUCHERS"
	AuditActionPayVoucher             = "PAY_VOUCHER"
	AuditActionSetBeneficiary         = "SET_BENEFICIARY"
	AuditActionRecordDisbursement     = "RECORD_DISBURSEMENT"
	AuditActionSubmitEvaluation       = "SUBMIT_EVALUATION"
	AuditActionCreateSurvey           = "CREATE_SURVEY"
	AuditActionSubmitFeedback         = "SUBMIT_FEEDBACK"
)

// AuditActionChangeRole returns the action type recorded when a user moves to role.
func AuditActionChangeRole(role Role) string {
	return "CHANGE_ROLE_" + string(role)
}

// AuditLog is an append-only record of a privileged mutation.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	ActionType string    `db:"action_type" json:"action_type"`
	TargetID   *string   `db:"target_id" json:"target_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"timestamp"`
}

// AuditLogEntry is an audit row joined with the actor's email for display.
type AuditLogEntry struct {
	AuditLog
	ActorEmail string `db:"actor_email" json:"actor_email"`
}

// AuditFilter narrows audit queries. Matching is case-insensitive substring.
type AuditFilter struct {
	ActorEmailContains string
	ActionTypeContains string
	Limit              int
}
