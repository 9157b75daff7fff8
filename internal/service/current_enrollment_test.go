package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

func performance(studentID string) dto.AcademicPerformanceRequest {
	return dto.AcademicPerformanceRequest{StudentID: studentID, SubjectID: mathID, ExamTitle: "Finals", TotalMarks: 50, MarksObtained: 41}
}

func disbursement(studentID string) dto.RecordDisbursementRequest {
	return dto.RecordDisbursementRequest{StudentID: studentID, Amount: 900, Purpose: "Uniform", DisbursedOn: "2024-04-02"}
}

func TestNewerActiveEnrollmentMovesStudentOutOfScholarship(t *testing.T) {
	sc := newSchool()
	sc.enrollments.enroll(studentRID, models.ProgramMRHSS)
	manager := activeActor(trustManagerID, models.RoleTrustManager)

	grades, _, _ := newGradeService(t, sc, &fakeMarks{})
	_, err := grades.SetAcademicPerformance(context.Background(), manager, performance(studentRID))
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))

	mutations, _, _ := newTestMutations(t)
	disbursements := &disbursementRecorder{}
	scholarships := NewScholarshipService(disbursements, sc.enrollments, sc.scope, mutations)
	_, err = scholarships.RecordDisbursement(context.Background(), manager, disbursement(studentRID))
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))
	assert.Empty(t, disbursements.rows)
}

func TestNewerScholarshipEnrollmentBringsStudentIntoScope(t *testing.T) {
	sc := newSchool()
	sc.enrollments.enroll(studentSID, models.ProgramRFL)
	manager := activeActor(trustManagerID, models.RoleTrustManager)

	marks := &fakeMarks{}
	grades, _, expect := newGradeService(t, sc, marks)
	expect(true)
	_, err := grades.SetAcademicPerformance(context.Background(), manager, performance(studentSID))
	require.NoError(t, err)
	assert.Len(t, marks.rows, 1)

	mutations, mock, _ := newTestMutations(t)
	expectCommit(mock)
	scholarships := NewScholarshipService(&disbursementRecorder{}, sc.enrollments, sc.scope, mutations)
	row, err := scholarships.RecordDisbursement(context.Background(), manager, disbursement(studentSID))
	require.NoError(t, err)
	assert.Equal(t, studentSID, row.StudentID)
}

func TestGenerateVouchersBillsMultiplyEnrolledStudentOnce(t *testing.T) {
	f := newFeeFixture(t)
	f.enrollments.enroll(studentRID, models.ProgramMRHSS)
	f.enrollments.enroll(studentRID, models.ProgramRFL)
	f.defineStructure(t)

	f.expect(true)
	resp, err := f.svc.GenerateVouchers(context.Background(), activeActor(feeClerkID, models.RoleFeeDept), dto.GenerateVouchersRequest{ClassID: classAID, Month: "2024-04"})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Created)
	assert.Len(t, f.fees.vouchersFor(studentRID), 1)
}
