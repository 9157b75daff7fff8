package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/trust-erp-api/internal/dto"
	"github.com/noah-isme/trust-erp-api/internal/middleware"
	"github.com/noah-isme/trust-erp-api/internal/models"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
	"github.com/noah-isme/trust-erp-api/pkg/response"
)

type feeServiceMock struct {
	generateResp *dto.GenerateVouchersResponse
	generateErr  error
	lastGenerate dto.GenerateVouchersRequest
	lastBenefit  dto.SetBeneficiaryRequest
	lastQuery    dto.VoucherQuery
	pdfErr       error
	called       bool
}

func (m *feeServiceMock) DefineFeeStructure(ctx context.Context, actor models.Actor, req dto.DefineFeeStructureRequest) (*models.FeeStructure, error) {
	m.called = true
	return &models.FeeStructure{ClassID: req.ClassID}, nil
}

func (m *feeServiceMock) GenerateVouchers(ctx context.Context, actor models.Actor, req dto.GenerateVouchersRequest) (*dto.GenerateVouchersResponse, error) {
	m.called = true
	m.lastGenerate = req
	return m.generateResp, m.generateErr
}

func (m *feeServiceMock) PayVoucher(ctx context.Context, actor models.Actor, req dto.PayVoucherRequest) (*models.FeeVoucher, error) {
	m.called = true
	return &models.FeeVoucher{ID: req.VoucherID, Status: models.VoucherStatusPaid}, nil
}

func (m *feeServiceMock) SetBeneficiary(ctx context.Context, actor models.Actor, req dto.SetBeneficiaryRequest) error {
	m.called = true
	m.lastBenefit = req
	return nil
}

func (m *feeServiceMock) ListVouchers(ctx context.Context, actor models.Actor, query dto.VoucherQuery) ([]models.VoucherDetail, error) {
	m.called = true
	m.lastQuery = query
	return []models.VoucherDetail{}, nil
}

func (m *feeServiceMock) WriteVoucherPDF(ctx context.Context, actor models.Actor, voucherID string, w io.Writer) error {
	m.called = true
	if m.pdfErr != nil {
		return m.pdfErr
	}
	_, err := w.Write([]byte("%PDF-1.3 test"))
	return err
}

type userServiceMock struct {
	lastReset dto.ResetPasswordRequest
	lastRole  dto.ChangeRoleRequest
	err       error
}

func (m *userServiceMock) CreateStaff(ctx context.Context, actor models.Actor, req dto.CreateStaffRequest) (*models.User, *models.Credential, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return &models.User{ID: "u-9", Email: req.Email, Role: req.Role, Active: true}, &models.Credential{Email: req.Email, Password: "s3cret-pass"}, nil
}

func (m *userServiceMock) ChangeRole(ctx context.Context, actor models.Actor, req dto.ChangeRoleRequest) error {
	m.lastRole = req
	return m.err
}

func (m *userServiceMock) SetUserStatus(ctx context.Context, actor models.Actor, req dto.SetUserStatusRequest) error {
	return m.err
}

func (m *userServiceMock) ResetPassword(ctx context.Context, actor models.Actor, req dto.ResetPasswordRequest) (*models.Credential, error) {
	m.lastReset = req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Credential{Email: "t@school.test", Password: "generated"}, nil
}

func newTestContext(method, target, body string, actor *models.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if actor != nil {
		c.Set(middleware.ContextUserKey, *actor)
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func feeClerk() *models.Actor {
	return &models.Actor{ID: "fee-1", Role: models.RoleFeeDept, Active: true}
}

func TestFeeHandlerGenerateVouchers(t *testing.T) {
	svc := &feeServiceMock{generateResp: &dto.GenerateVouchersResponse{ClassID: "c-1", Month: "2024-03", Created: 2}}
	h := NewFeeHandler(svc)

	c, w := newTestContext(http.MethodPost, "/fees/vouchers/generate", `{"classId":"c-1","month":"2024-03","fine":100}`, feeClerk())
	h.GenerateVouchers(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, dto.GenerateVouchersRequest{ClassID: "c-1", Month: "2024-03", Fine: 100}, svc.lastGenerate)
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestFeeHandlerRejectsMalformedBody(t *testing.T) {
	svc := &feeServiceMock{}
	h := NewFeeHandler(svc)

	c, w := newTestContext(http.MethodPost, "/fees/vouchers/generate", `{"classId":`, feeClerk())
	h.GenerateVouchers(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, svc.called)
	assert.Equal(t, appErrors.ErrValidation.Code, decode(t, w).Code)
}

func TestFeeHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{name: "business rule", err: appErrors.Clone(appErrors.ErrBusinessRule, "fee structure not defined for this class"), status: http.StatusUnprocessableEntity},
		{name: "timeout", err: &appErrors.Error{Code: appErrors.ErrTimeout.Code, Status: appErrors.ErrTimeout.Status, Message: "try again", Retryable: true}, status: http.StatusServiceUnavailable, retryable: true},
		{name: "internal", err: appErrors.Internal(assert.AnError, "failed to apply generate_vouchers"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewFeeHandler(&feeServiceMock{generateErr: tc.err})
			c, w := newTestContext(http.MethodPost, "/fees/vouchers/generate", `{"classId":"c-1","month":"2024-03"}`, feeClerk())
			h.GenerateVouchers(c)

			assert.Equal(t, tc.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tc.retryable, env.Retryable)
			assert.NotContains(t, env.Message, assert.AnError.Error())
		})
	}
}

func TestFeeHandlerBeneficiaryUsesPathID(t *testing.T) {
	svc := &feeServiceMock{}
	h := NewFeeHandler(svc)

	c, w := newTestContext(http.MethodPut, "/students/s-1/beneficiary", `{"studentId":"ignored","beneficiary":true}`, feeClerk())
	c.Params = gin.Params{{Key: "id", Value: "s-1"}}
	h.SetBeneficiary(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-1", svc.lastBenefit.StudentID)
	require.NotNil(t, svc.lastBenefit.Beneficiary)
	assert.True(t, *svc.lastBenefit.Beneficiary)
}

func TestFeeHandlerVoucherPDF(t *testing.T) {
	h := NewFeeHandler(&feeServiceMock{})
	student := &models.Actor{ID: "stu-1", Role: models.RoleStudent, Active: true}

	c, w := newTestContext(http.MethodGet, "/fees/vouchers/v-1/pdf", "", student)
	c.Params = gin.Params{{Key: "id", Value: "v-1"}}
	h.VoucherPDF(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "voucher-v-1.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	h = NewFeeHandler(&feeServiceMock{pdfErr: appErrors.Clone(appErrors.ErrNotFound, "voucher not found")})
	c, w = newTestContext(http.MethodGet, "/fees/vouchers/v-2/pdf", "", student)
	h.VoucherPDF(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlersRequireActor(t *testing.T) {
	svc := &feeServiceMock{}
	c, w := newTestContext(http.MethodGet, "/fees/vouchers", "", nil)
	NewFeeHandler(svc).ListVouchers(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, svc.called)
}

func TestUserHandlerResetPasswordWithoutBody(t *testing.T) {
	svc := &userServiceMock{}
	h := NewUserHandler(svc)
	admin := &models.Actor{ID: "admin-1", Role: models.RoleSuperAdmin, Active: true}

	c, w := newTestContext(http.MethodPost, "/users/u-1/password-reset", "", admin)
	c.Params = gin.Params{{Key: "id", Value: "u-1"}}
	h.ResetPassword(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ResetPasswordRequest{UserID: "u-1"}, svc.lastReset)
	data, ok := decode(t, w).Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "generated", data["password"])
}

func TestUserHandlerCreateStaffReturnsCredential(t *testing.T) {
	h := NewUserHandler(&userServiceMock{})
	admin := &models.Actor{ID: "admin-1", Role: models.RoleSuperAdmin, Active: true}

	c, w := newTestContext(http.MethodPost, "/users", `{"email":"clerk@school.test","fullName":"Clerk","role":"FEE_DEPT"}`, admin)
	h.CreateStaff(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	credential := data["credential"].(map[string]interface{})
	assert.Equal(t, "s3cret-pass", credential["password"])
	user := data["user"].(map[string]interface{})
	assert.NotContains(t, user, "password_hash")
}

func TestUserHandlerChangeRoleDenied(t *testing.T) {
	svc := &userServiceMock{err: appErrors.Clone(appErrors.ErrUnauthorized, "student accounts cannot change role")}
	h := NewUserHandler(svc)
	admin := &models.Actor{ID: "admin-1", Role: models.RoleSuperAdmin, Active: true}

	c, w := newTestContext(http.MethodPut, "/users/u-2/role", `{"role":"TEACHER"}`, admin)
	c.Params = gin.Params{{Key: "id", Value: "u-2"}}
	h.ChangeRole(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "u-2", svc.lastRole.UserID)
	assert.Equal(t, "student accounts cannot change role", decode(t, w).Message)
}

func TestRegisterRoutesGatesByAction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fees := &feeServiceMock{generateResp: &dto.GenerateVouchersResponse{Created: 1}}
	var current models.Actor
	session := func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, current)
		c.Next()
	}

	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), session, Handlers{
		Users:        NewUserHandler(&userServiceMock{}),
		Academics:    NewAcademicHandler(nil),
		Students:     NewStudentHandler(nil),
		Attendance:   NewAttendanceHandler(nil),
		Grades:       NewGradeHandler(nil),
		Fees:         NewFeeHandler(fees),
		Scholarships: NewScholarshipHandler(nil),
		Surveys:      NewSurveyHandler(nil, nil),
		Audit:        NewAuditHandler(nil),
	})

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/fees/vouchers/generate", strings.NewReader(`{"classId":"c-1","month":"2024-03"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	current = models.Actor{ID: "t-1", Role: models.RoleTeacher, Active: true}
	assert.Equal(t, http.StatusForbidden, post().Code)
	assert.False(t, fees.called)

	current = models.Actor{ID: "fee-1", Role: models.RoleFeeDept, Active: false}
	assert.Equal(t, http.StatusForbidden, post().Code)
	assert.False(t, fees.called)

	current = models.Actor{ID: "fee-1", Role: models.RoleFeeDept, Active: true}
	assert.Equal(t, http.StatusCreated, post().Code)
	assert.True(t, fees.called)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type academicServiceMock struct {
	calls int
}

func (m *academicServiceMock) ListClasses(ctx context.Context, actor models.Actor) ([]models.Class, error) {
	m.calls++
	return []models.Class{{ID: "c-1", Name: "Grade 9", Section: "A"}}, nil
}

func (m *academicServiceMock) ListSubjects(ctx context.Context, actor models.Actor) ([]models.Subject, error) {
	m.calls++
	return []models.Subject{{ID: "s-1", Code: "MATH", Name: "Mathematics"}}, nil
}

func (m *academicServiceMock) CreateClass(ctx context.Context, actor models.Actor, req dto.CreateClassRequest) (*models.Class, error) {
	m.calls++
	return &models.Class{}, nil
}

func (m *academicServiceMock) CreateSubject(ctx context.Context, actor models.Actor, req dto.CreateSubjectRequest) (*models.Subject, error) {
	m.calls++
	return &models.Subject{}, nil
}

func (m *academicServiceMock) AssignTeacher(ctx context.Context, actor models.Actor, req dto.AssignTeacherRequest) (*models.TeacherAssignment, error) {
	m.calls++
	return &models.TeacherAssignment{}, nil
}

func (m *academicServiceMock) ListAssignments(ctx context.Context, actor models.Actor, teacherID string) ([]models.TeacherAssignment, error) {
	m.calls++
	return nil, nil
}

func (m *academicServiceMock) MyAssignments(ctx context.Context, actor models.Actor) ([]models.TeacherAssignment, error) {
	m.calls++
	return []models.TeacherAssignment{{ID: "a-1", TeacherID: actor.ID, ClassID: "c-1"}}, nil
}

func TestRegisterRoutesDeniesInactiveActorOnAcademicReads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	academics := &academicServiceMock{}
	var current models.Actor
	session := func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, current)
		c.Next()
	}
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), session, Handlers{
		Users:        NewUserHandler(nil),
		Academics:    NewAcademicHandler(academics),
		Students:     NewStudentHandler(nil),
		Attendance:   NewAttendanceHandler(nil),
		Grades:       NewGradeHandler(nil),
		Fees:         NewFeeHandler(nil),
		Scholarships: NewScholarshipHandler(nil),
		Surveys:      NewSurveyHandler(nil, nil),
		Audit:        NewAuditHandler(nil),
	})
	get := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Code
	}
	paths := []string{"/api/v1/classes", "/api/v1/subjects", "/api/v1/me/assignments"}

	for _, role := range []models.Role{models.RoleSuperAdmin, models.RoleTeacher} {
		current = models.Actor{ID: "u-1", Role: role, Active: false}
		for _, path := range paths {
			assert.Equal(t, http.StatusForbidden, get(path), "%s %s", role, path)
		}
	}
	assert.Zero(t, academics.calls)

	current = models.Actor{ID: "t-1", Role: models.RoleTeacher, Active: true}
	for _, path := range paths {
		assert.Equal(t, http.StatusOK, get(path), path)
	}
	assert.Equal(t, 3, academics.calls)

	current = models.Actor{ID: "stu-1", Role: models.RoleStudent, Active: true}
	assert.Equal(t, http.StatusForbidden, get("/api/v1/classes"))
	current = models.Actor{ID: "a-1", Role: models.RoleSuperAdmin, Active: true}
	assert.Equal(t, http.StatusForbidden, get("/api/v1/me/assignments"))
	assert.Equal(t, 3, academics.calls)
}

func TestBindJSONReportsMistypedField(t *testing.T) {
	h := NewGradeHandler(nil)
	body := `{"classId":"c-1","subjectId":"s-1","examTitle":"Midterm","totalMarks":"abc","marks":[]}`
	c, w := newTestContext(http.MethodPost, "/marks", body, &models.Actor{ID: "exam-1", Role: models.RoleExamDept, Active: true})

	h.Upload(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Code)
	assert.Equal(t, map[string]string{"totalMarks": "must be a number"}, env.FieldErrors)
}
