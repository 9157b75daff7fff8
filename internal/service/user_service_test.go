package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

type userFixture struct {
	*school
	svc     *UserService
	revoker *recordingRevoker
	audit   *auditRecorder
	expect  func(commit bool)
}

func newUserFixture(t *testing.T) *userFixture {
	sc := newSchool()
	mutations, mock, audit := newTestMutations(t)
	revoker := &recordingRevoker{}
	return &userFixture{
		school:  sc,
		svc:     NewUserService(sc.users, sc.students, sc.enrollments, sc.scope, mutations, revoker, nil, 10),
		revoker: revoker,
		audit:   audit,
		expect: func(commit bool) {
			if commit {
				expectCommit(mock)
				return
			}
			expectRollback(mock)
		},
	}
}

func TestCreateStaffReturnsOneTimeCredential(t *testing.T) {
	f := newUserFixture(t)

	f.expect(true)
	user, credential, err := f.svc.CreateStaff(context.Background(), activeActor(adminID, models.RoleSuperAdmin), dto.CreateStaffRequest{
		Email: "New.Clerk@School.test", FullName: "New Clerk", Role: models.RoleFeeDept,
	})
	require.NoError(t, err)
	assert.Equal(t, "new.clerk@school.test", user.Email)
	assert.True(t, user.Active)
	assert.Len(t, credential.Password, 10)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential.Password)))
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionCreateUser, f.audit.entries[0].ActionType)
}

func TestCreateStaffCannotCreateStudents(t *testing.T) {
	f := newUserFixture(t)

	_, _, err := f.svc.CreateStaff(context.Background(), activeActor(adminID, models.RoleSuperAdmin), dto.CreateStaffRequest{
		Email: "kid@school.test", FullName: "Some Kid", Role: models.RoleStudent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))
}

func TestChangeRoleRecordsRoleSpecificAuditAndRevokes(t *testing.T) {
	f := newUserFixture(t)

	f.expect(true)
	err := f.svc.ChangeRole(context.Background(), activeActor(adminID, models.RoleSuperAdmin), dto.ChangeRoleRequest{UserID: teacherID, Role: models.RoleSectionHead})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSectionHead, f.users.byID[teacherID].Role)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, "CHANGE_ROLE_SECTION_HEAD", f.audit.entries[0].ActionType)
	assert.Equal(t, []string{teacherID}, f.revoker.revoked)
}

func TestChangeRoleNeverInvolvesStudentAccounts(t *testing.T) {
	f := newUserFixture(t)
	admin := activeActor(adminID, models.RoleSuperAdmin)

	err := f.svc.ChangeRole(context.Background(), admin, dto.ChangeRoleRequest{UserID: userSID, Role: models.RoleTeacher})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))

	err = f.svc.ChangeRole(context.Background(), admin, dto.ChangeRoleRequest{UserID: teacherID, Role: models.RoleStudent})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))
	assert.Empty(t, f.revoker.revoked)
}

func TestChangeRoleToSameRoleIsBusinessRule(t *testing.T) {
	f := newUserFixture(t)

	f.expect(false)
	err := f.svc.ChangeRole(context.Background(), activeActor(adminID, models.RoleSuperAdmin), dto.ChangeRoleRequest{UserID: teacherID, Role: models.RoleTeacher})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrBusinessRule))
	assert.Empty(t, f.audit.entries)
}

func TestSetUserStatusBlocksSelfDeactivation(t *testing.T) {
	f := newUserFixture(t)
	admin := activeActor(adminID, models.RoleSuperAdmin)

	f.expect(false)
	err := f.svc.SetUserStatus(context.Background(), admin, dto.SetUserStatusRequest{UserID: adminID, Active: boolPtr(false)})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrBusinessRule))

	f.expect(true)
	require.NoError(t, f.svc.SetUserStatus(context.Background(), admin, dto.SetUserStatusRequest{UserID: teacherID, Active: boolPtr(false)}))
	assert.False(t, f.users.byID[teacherID].Active)
	assert.Equal(t, models.AuditActionDeactivateUser, f.audit.entries[0].ActionType)
	assert.Equal(t, []string{teacherID}, f.revoker.revoked)

	f.expect(false)
	err = f.svc.SetUserStatus(context.Background(), admin, dto.SetUserStatusRequest{UserID: teacherID, Active: boolPtr(false)})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrBusinessRule))
}

func TestResetPasswordFollowsRoleHierarchy(t *testing.T) {
	cases := []struct {
		name    string
		actor   models.Actor
		target  string
		allowed bool
	}{
		{name: "admin resets staff", actor: activeActor(adminID, models.RoleSuperAdmin), target: feeClerkID, allowed: true},
		{name: "section head resets teacher", actor: activeActor(sectionHeadID, models.RoleSectionHead), target: teacherID, allowed: true},
		{name: "section head resets fee clerk", actor: activeActor(sectionHeadID, models.RoleSectionHead), target: feeClerkID},
		{name: "admissions resets student", actor: activeActor(admissionsID, models.RoleAdmissionDept), target: userSID, allowed: true},
		{name: "admissions resets teacher", actor: activeActor(admissionsID, models.RoleAdmissionDept), target: teacherID},
		{name: "trust manager resets scholarship student", actor: activeActor(trustManagerID, models.RoleTrustManager), target: userRID, allowed: true},
		{name: "trust manager resets other student", actor: activeActor(trustManagerID, models.RoleTrustManager), target: userSID},
		{name: "teacher resets student", actor: activeActor(teacherID, models.RoleTeacher), target: userSID},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newUserFixture(t)
			if tc.allowed {
				f.expect(true)
			}
			credential, err := f.svc.ResetPassword(context.Background(), tc.actor, dto.ResetPasswordRequest{UserID: tc.target})
			if !tc.allowed {
				require.Error(t, err)
				assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))
				assert.Empty(t, f.users.passwords)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, credential.Password)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.users.passwords[tc.target]), []byte(credential.Password)))
			assert.Equal(t, []string{tc.target}, f.revoker.revoked)
		})
	}
}

func TestResetPasswordWithChosenPasswordReturnsNoSecret(t *testing.T) {
	f := newUserFixture(t)

	f.expect(true)
	credential, err := f.svc.ResetPassword(context.Background(), activeActor(adminID, models.RoleSuperAdmin), dto.ResetPasswordRequest{UserID: teacherID, NewPassword: "correct-horse"})
	require.NoError(t, err)
	assert.Empty(t, credential.Password)
	assert.Equal(t, "teacher@school.test", credential.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(f.users.passwords[teacherID]), []byte("correct-horse")))
}

// withdrawingScope resolves normally, then ends the student's enrollments before the write runs.
type withdrawingScope struct {
	*ScopeService
	enrollments *fakeEnrollments
	studentID   string
}

func (w *withdrawingScope) ForUser(ctx context.Context, userID string, newRole models.Role) (policy.Resource, error) {
	res, err := w.ScopeService.ForUser(ctx, userID, newRole)
	for i := range w.enrollments.rows {
		if w.enrollments.rows[i].StudentID == w.studentID {
			w.enrollments.rows[i].Status = models.EnrollmentStatusInactive
		}
	}
	return res, err
}

func TestResetPasswordRechecksScholarshipEnrollmentInTransaction(t *testing.T) {
	sc := newSchool()
	mutations, mock, audit := newTestMutations(t)
	revoker := &recordingRevoker{}
	scope := &withdrawingScope{ScopeService: sc.scope, enrollments: sc.enrollments, studentID: studentRID}
	svc := NewUserService(sc.users, sc.students, sc.enrollments, scope, mutations, revoker, nil, 10)

	expectRollback(mock)
	_, err := svc.ResetPassword(context.Background(), activeActor(trustManagerID, models.RoleTrustManager), dto.ResetPasswordRequest{UserID: userRID})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))
	assert.Empty(t, sc.users.passwords)
	assert.Empty(t, audit.entries)
	assert.Empty(t, revoker.revoked)
}
