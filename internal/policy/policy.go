// Package policy decides which actor may perform which action on which resource.
// Decisions are pure: every resource fact is resolved by the caller beforehand.
package policy

import (
	"fmt"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

type roleSet uint16

func roleBit(r models.Role) roleSet {
	switch r {
	case models.RoleSuperAdmin:
		return 1 << 0
	case models.RoleSectionHead:
		return 1 << 1
	case models.RoleFeeDept:
		return 1 << 2
	case models.RoleAdmissionDept:
		return 1 << 3
	case models.RoleExamDept:
		return 1 << 4
	case models.RoleTrustManager:
		return 1 << 5
	case models.RoleTeacher:
		return 1 << 6
	case models.RoleStudent:
		return 1 << 7
	}
	return 0
}

func roles(rs ...models.Role) roleSet {
	var set roleSet
	for _, r := range rs {
		set |= roleBit(r)
	}
	return set
}

func (s roleSet) has(r models.Role) bool {
	bit := roleBit(r)
	return bit != 0 && s&bit != 0
}

const (
	superAdmin    = models.RoleSuperAdmin
	sectionHead   = models.RoleSectionHead
	feeDept       = models.RoleFeeDept
	admissionDept = models.RoleAdmissionDept
	examDept      = models.RoleExamDept
	trustManager  = models.RoleTrustManager
	teacher       = models.RoleTeacher
	student       = models.RoleStudent
)

// allowList is indexed by Action; init rejects any action left without an entry.
var allowList = [actionCount]roleSet{
	ActionCreateStaff:            roles(superAdmin),
	ActionChangeRole:             roles(superAdmin),
	ActionSetUserStatus:          roles(superAdmin),
	ActionResetPassword:          roles(superAdmin, sectionHead, admissionDept, trustManager),
	ActionCreateClass:            roles(superAdmin, sectionHead),
	ActionCreateSubject:          roles(superAdmin, sectionHead),
	ActionAssignTeacher:          roles(superAdmin, sectionHead),
	ActionRegisterStudent:        roles(superAdmin, admissionDept),
	ActionViewStudents:           roles(superAdmin, sectionHead, admissionDept, feeDept, examDept, trustManager),
	ActionMarkAttendance:         roles(superAdmin, sectionHead, teacher),
	ActionAddRemark:              roles(superAdmin, sectionHead, teacher),
	ActionUploadMarks:            roles(superAdmin, examDept),
	ActionSetAcademicPerformance: roles(superAdmin, trustManager),
	ActionDefineFeeStructure:     roles(superAdmin, feeDept),
	ActionGenerateVouchers:       roles(superAdmin, feeDept),
	ActionPayVoucher:             roles(superAdmin, feeDept),
	ActionSetBeneficiary:         roles(superAdmin, feeDept),
	ActionViewVouchers:           roles(superAdmin, feeDept, student),
	ActionRecordDisbursement:     roles(superAdmin, trustManager),
	ActionSubmitEvaluation:       roles(superAdmin, sectionHead),
	ActionCreateSurvey:           roles(superAdmin, sectionHead),
	ActionSubmitFeedback:         roles(student),
	ActionViewFeedback:           roles(superAdmin, sectionHead),
	ActionViewAuditLog:           roles(superAdmin),
	ActionViewAcademics:          roles(superAdmin, sectionHead, feeDept, admissionDept, examDept, trustManager, teacher),
	ActionViewOwnAssignments:     roles(teacher),
}

// resetTargets encodes password-reset authority: actor role -> target roles.
var resetTargets = map[models.Role]roleSet{
	superAdmin:    roles(models.AllRoles...),
	sectionHead:   roles(teacher, student),
	admissionDept: roles(student),
	trustManager:  roles(student),
}

// rflScoped lists actions a TrustManager may only take on RFL students.
var rflScoped = map[Action]bool{
	ActionResetPassword:          true,
	ActionSetAcademicPerformance: true,
	ActionRecordDisbursement:     true,
}

func init() {
	for a := Action(0); a < actionCount; a++ {
		if actionNames[a] == "" {
			panic(fmt.Sprintf("policy: action %d has no name", int(a)))
		}
		if allowList[a] == 0 {
			panic(fmt.Sprintf("policy: action %s has no allow-list entry", actionNames[a]))
		}
	}
}

// Resource carries pre-resolved facts about the target of an action.
type Resource struct {
	// ClassTeacher is true when the actor holds a class-teacher assignment for the target class.
	ClassTeacher bool
	// TeachesStudentClass is true when the actor holds any assignment in the target student's current class.
	TeachesStudentClass bool
	// StudentProgram is the target student's current active program, empty if none.
	StudentProgram models.Program
	// TargetRole is the role of the target account for user-management actions.
	TargetRole models.Role
	// NewRole is the requested role for role changes.
	NewRole models.Role
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Authorize decides whether actor may perform action on res. Unknown roles and actions are denied.
func Authorize(actor models.Actor, action Action, res Resource) Decision {
	if !actor.Active {
		return deny("account is inactive")
	}
	if !action.valid() {
		return deny("unknown action")
	}
	if !allowList[action].has(actor.Role) {
		return deny("role %s may not %s", actor.Role, action)
	}

	switch action {
	case ActionMarkAttendance:
		if actor.Role == teacher && !res.ClassTeacher {
			return deny("only the class teacher may mark attendance for this class")
		}
	case ActionAddRemark:
		if actor.Role == teacher && !res.TeachesStudentClass {
			return deny("teacher is not assigned to the student's class")
		}
	case ActionResetPassword:
		if !resetTargets[actor.Role].has(res.TargetRole) {
			return deny("role %s may not reset passwords of %s accounts", actor.Role, res.TargetRole)
		}
	case ActionChangeRole:
		if res.TargetRole == student || res.NewRole == student {
			return deny("student accounts cannot change role")
		}
		if !res.NewRole.Valid() {
			return deny("unknown role %s", res.NewRole)
		}
	case ActionCreateStaff:
		if res.NewRole == student || !res.NewRole.Valid() {
			return deny("staff accounts cannot be created with role %s", res.NewRole)
		}
	}

	if actor.Role == trustManager && rflScoped[action] && res.StudentProgram != models.ScholarshipProgram {
		return deny("trust managers may only act on %s students", models.ScholarshipProgram)
	}

	return allow()
}

// RolesFor returns the roles allow-listed for action, for routing-layer checks.
func RolesFor(action Action) []models.Role {
	if !action.valid() {
		return nil
	}
	var out []models.Role
	for _, r := range models.AllRoles {
		if allowList[action].has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Permits reports whether role appears on action's allow-list, ignoring resource scoping.
func Permits(role models.Role, action Action) bool {
	return action.valid() && allowList[action].has(role)
}

// StudentScope returns the program a role's student visibility is restricted to, if any.
func StudentScope(role models.Role) (models.Program, bool) {
	if role == trustManager {
		return models.ScholarshipProgram, true
	}
	return "", false
}
