package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/models"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
)

func newSurveyFixture(t *testing.T) (*SurveyService, *fakeSurveys, *auditRecorder, func(commit bool)) {
	sc := newSchool()
	surveys := newFakeSurveys(models.Survey{ID: surveyID, Title: "Spring feedback", Metrics: pq.StringArray{"clarity", "punctuality"}, Active: true})
	mutations, mock, audit := newTestMutations(t)
	svc := NewSurveyService(surveys, sc.students, sc.assignments, mutations)
	return svc, surveys, audit, func(commit bool) {
		if commit {
			expectCommit(mock)
			return
		}
		expectRollback(mock)
	}
}

func feedbackFor(evaluatee string) dto.SubmitFeedbackRequest {
	return dto.SubmitFeedbackRequest{
		SurveyID:    surveyID,
		EvaluateeID: evaluatee,
		Ratings:     map[string]int{"clarity": 4, "punctuality": 5},
		Comment:     "  Explains well ",
	}
}

func TestSubmitFeedbackIsAnonymousAndSingleUse(t *testing.T) {
	svc, surveys, audit, expect := newSurveyFixture(t)
	student := activeActor(userSID, models.RoleStudent)

	expect(true)
	require.NoError(t, svc.SubmitFeedback(context.Background(), student, feedbackFor(otherTeacherID)))

	require.Len(t, surveys.feedback, 1)
	fb := surveys.feedback[0]
	assert.Equal(t, otherTeacherID, fb.EvaluateeID)
	assert.Equal(t, "Explains well", fb.Comment)
	require.Len(t, surveys.submissions, 1)
	assert.Equal(t, studentSID, surveys.submissions[0].StudentID)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, surveyID, *audit.entries[0].TargetID)
	assert.NotEqual(t, fb.ID, *audit.entries[0].TargetID)

	expect(false)
	err := svc.SubmitFeedback(context.Background(), student, feedbackFor(otherTeacherID))
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrDuplicate))
	assert.Contains(t, err.Error(), "already submitted")
	assert.Len(t, surveys.feedback, 1)
}

func TestSubmitFeedbackConcurrentDuplicateIsDetectedByConstraint(t *testing.T) {
	svc, surveys, _, expect := newSurveyFixture(t)
	student := activeActor(userSID, models.RoleStudent)

	expect(true)
	require.NoError(t, svc.SubmitFeedback(context.Background(), student, feedbackFor(teacherID)))

	surveys.hideSubmissions = true
	expect(false)
	err := svc.SubmitFeedback(context.Background(), student, feedbackFor(teacherID))
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrDuplicate))
	assert.Len(t, surveys.feedback, 1)
}

func TestSubmitFeedbackRejectsUndeclaredMetric(t *testing.T) {
	svc, surveys, _, expect := newSurveyFixture(t)

	req := feedbackFor(teacherID)
	req.Ratings = map[string]int{"clarity": 4, "punctuality": 5, "humour": 3}

	expect(false)
	err := svc.SubmitFeedback(context.Background(), activeActor(userSID, models.RoleStudent), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "is not a metric of this form", appErr.Fields["ratings.humour"])
	assert.Empty(t, surveys.submissions)
}

func TestSubmitFeedbackRequiresTeacherOfStudentsClass(t *testing.T) {
	svc, _, _, expect := newSurveyFixture(t)

	expect(false)
	err := svc.SubmitFeedback(context.Background(), activeActor(userSID, models.RoleStudent), feedbackFor(sectionHeadID))
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrBusinessRule))
}

func TestSubmitFeedbackOnlyForStudents(t *testing.T) {
	svc, _, _, _ := newSurveyFixture(t)

	err := svc.SubmitFeedback(context.Background(), activeActor(sectionHeadID, models.RoleSectionHead), feedbackFor(teacherID))
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))
}

func TestCreateSurveyNormalisesMetrics(t *testing.T) {
	svc, surveys, audit, expect := newSurveyFixture(t)

	expect(true)
	survey, err := svc.CreateSurvey(context.Background(), activeActor(sectionHeadID, models.RoleSectionHead), dto.CreateSurveyRequest{
		Title:   " Autumn ",
		Metrics: []string{"Clarity", "Homework_Load"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Autumn", survey.Title)
	assert.Equal(t, pq.StringArray{"clarity", "homework_load"}, survey.Metrics)
	assert.Contains(t, surveys.byID, survey.ID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, survey.ID, *audit.entries[0].TargetID)
}

func TestFeedbackSummaryAveragesPerMetric(t *testing.T) {
	svc, surveys, _, _ := newSurveyFixture(t)
	surveys.feedback = []models.Feedback{
		{SurveyID: surveyID, EvaluateeID: teacherID, Ratings: models.Ratings{"clarity": 4, "punctuality": 2}, Comment: "Zealous"},
		{SurveyID: surveyID, EvaluateeID: teacherID, Ratings: models.Ratings{"clarity": 5, "punctuality": 3}},
		{SurveyID: surveyID, EvaluateeID: teacherID, Ratings: models.Ratings{"clarity": 3, "punctuality": 4}, Comment: "Always on time"},
		{SurveyID: surveyID, EvaluateeID: otherTeacherID, Ratings: models.Ratings{"clarity": 1, "punctuality": 1}},
	}

	summary, err := svc.FeedbackSummary(context.Background(), activeActor(sectionHeadID, models.RoleSectionHead), surveyID, teacherID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Responses)
	assert.Equal(t, map[string]float64{"clarity": 4, "punctuality": 3}, summary.Averages)
	assert.Equal(t, []string{"Always on time", "Zealous"}, summary.Comments)

	_, err = svc.FeedbackSummary(context.Background(), activeActor(userSID, models.RoleStudent), surveyID, teacherID)
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrUnauthorized))
}
