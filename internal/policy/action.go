package policy

import "fmt"

// Action is the closed set of operations the policy engine decides on.
type Action int

const (
	ActionCreateStaff Action = iota
	ActionChangeRole
	ActionSetUserStatus
	ActionResetPassword
	ActionCreateClass
	ActionCreateSubject
	ActionAssignTeacher
	ActionRegisterStudent
	ActionViewStudents
	ActionMarkAttendance
	ActionAddRemark
	ActionUploadMarks
	ActionSetAcademicPerformance
	ActionDefineFeeStructure
	ActionGenerateVouchers
	ActionPayVoucher
	ActionSetBeneficiary
	ActionViewVouchers
	ActionRecordDisbursement
	ActionSubmitEvaluation
	ActionCreateSurvey
	ActionSubmitFeedback
	ActionViewFeedback
	ActionViewAuditLog
	ActionViewAcademics
	ActionViewOwnAssignments

	actionCount
)

var actionNames = [actionCount]string{
	ActionCreateStaff:            "create_staff",
	ActionChangeRole:             "change_role",
	ActionSetUserStatus:          "set_user_status",
	ActionResetPassword:          "reset_password",
	ActionCreateClass:            "create_class",
	ActionCreateSubject:          "create_subject",
	ActionAssignTeacher:          "assign_teacher",
	ActionRegisterStudent:        "register_student",
	ActionViewStudents:           "view_students",
	ActionMarkAttendance:         "mark_attendance",
	ActionAddRemark:              "add_remark",
	ActionUploadMarks:            "upload_marks",
	ActionSetAcademicPerformance: "set_academic_performance",
	ActionDefineFeeStructure:     "define_fee_structure",
	ActionGenerateVouchers:       "generate_vouchers",
	ActionPayVoucher:             "pay_voucher",
	ActionSetBeneficiary:         "set_beneficiary",
	ActionViewVouchers:           "view_vouchers",
	ActionRecordDisbursement:     "record_disbursement",
	ActionSubmitEvaluation:       "submit_evaluation",
	ActionCreateSurvey:           "create_survey",
	ActionSubmitFeedback:         "submit_feedback",
	ActionViewFeedback:           "view_feedback",
	ActionViewAuditLog:           "view_audit_log",
	ActionViewAcademics:          "view_academics",
	ActionViewOwnAssignments:     "view_own_assignments",
}

// String implements fmt.Stringer.
func (a Action) String() string {
	if !a.valid() {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

func (a Action) valid() bool {
	return a >= 0 && a < actionCount
}

// Actions returns every defined action.
func Actions() []Action {
	out := make([]Action, 0, actionCount)
	for a := Action(0); a < actionCount; a++ {
		out = append(out, a)
	}
	return out
}
