package service

import (
	"context"
	"database/sql"
	"sort"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/trust-erp-api/internal/models"
)

const (
	adminID        = "0a000000-0000-4000-8000-000000000001"
	sectionHeadID  = "0a000000-0000-4000-8000-000000000002"
	feeClerkID     = "0a000000-0000-4000-8000-000000000003"
	admissionsID   = "0a000000-0000-4000-8000-000000000004"
	examinerID     = "0a000000-0000-4000-8000-000000000005"
	trustManagerID = "0a000000-0000-4000-8000-000000000006"
	teacherID      = "0a000000-0000-4000-8000-000000000007"
	otherTeacherID = "0a000000-0000-4000-8000-000000000008"

	classAID   = "0c000000-0000-4000-8000-00000000000a"
	classBID   = "0c000000-0000-4000-8000-00000000000b"
	mathID     = "05000000-0000-4000-8000-000000000001"
	surveyID   = "0e000000-0000-4000-8000-000000000001"
	studentSID = "0d000000-0000-4000-8000-000000000001"
	studentQID = "0d000000-0000-4000-8000-000000000002"
	studentRID = "0d000000-0000-4000-8000-000000000003"
	userSID    = "0b000000-0000-4000-8000-000000000001"
	userQID    = "0b000000-0000-4000-8000-000000000002"
	userRID    = "0b000000-0000-4000-8000-000000000003"
)

// newTestMutations returns a mutation service backed by a sqlmock transaction and an in-memory audit log.
func newTestMutations(t *testing.T) (*MutationService, sqlmock.Sqlmock, *auditRecorder) {
	t.Helper()
	db, mock := newTxProviderMock(t)
	audit := &auditRecorder{}
	return NewMutationService(db, audit, nil, nil), mock, audit
}

func expectCommit(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

type fakeUsers struct {
	byID      map[string]*models.User
	passwords map[string]string
}

func newFakeUsers(users ...models.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*models.User{}, passwords: map[string]string{}}
	for i := range users {
		u := users[i]
		f.byID[u.ID] = &u
	}
	return f
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsers) LockByID(ctx context.Context, q sqlx.ExtContext, id string) (*models.User, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeUsers) EmailExists(ctx context.Context, q sqlx.ExtContext, email string) (bool, error) {
	for _, u := range f.byID {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(ctx context.Context, q sqlx.ExtContext, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	clone := *user
	f.byID[user.ID] = &clone
	return nil
}

func (f *fakeUsers) UpdateRole(ctx context.Context, q sqlx.ExtContext, id string, role models.Role) error {
	f.byID[id].Role = role
	return nil
}

func (f *fakeUsers) UpdateStatus(ctx context.Context, q sqlx.ExtContext, id string, active bool) error {
	f.byID[id].Active = active
	return nil
}

func (f *fakeUsers) UpdatePassword(ctx context.Context, q sqlx.ExtContext, id, passwordHash string) error {
	f.passwords[id] = passwordHash
	return nil
}

type fakeEnrollments struct {
	rows []models.Enrollment
}

func (f *fakeEnrollments) Create(ctx context.Context, q sqlx.ExtContext, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	enrollment.CreatedAt = time.Now().Add(time.Duration(len(f.rows)) * time.Second)
	f.rows = append(f.rows, *enrollment)
	return nil
}

func (f *fakeEnrollments) enroll(studentID string, program models.Program) {
	_ = f.Create(context.Background(), nil, &models.Enrollment{StudentID: studentID, Program: program, Status: models.EnrollmentStatusActive})
}

func (f *fakeEnrollments) CurrentProgram(ctx context.Context, q sqlx.ExtContext, studentID string) (models.Program, error) {
	var current *models.Enrollment
	for i := range f.rows {
		e := &f.rows[i]
		if e.StudentID != studentID || e.Status != models.EnrollmentStatusActive {
			continue
		}
		if current == nil || e.CreatedAt.After(current.CreatedAt) {
			current = e
		}
	}
	if current == nil {
		return "", nil
	}
	return current.Program, nil
}

type fakeStudents struct {
	byID        map[string]*models.Student
	enrollments *fakeEnrollments
	remarks     []models.StudentRemark
	lastFilter  models.StudentFilter
}

func newFakeStudents(enrollments *fakeEnrollments, students ...models.Student) *fakeStudents {
	f := &fakeStudents{byID: map[string]*models.Student{}, enrollments: enrollments}
	for i := range students {
		s := students[i]
		f.byID[s.ID] = &s
	}
	return f
}

func (f *fakeStudents) detail(s *models.Student) *models.StudentDetail {
	d := &models.StudentDetail{Student: *s}
	if program, _ := f.enrollments.CurrentProgram(context.Background(), nil, s.ID); program != "" {
		d.CurrentProgram = &program
	}
	return d
}

func (f *fakeStudents) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f.detail(s), nil
}

func (f *fakeStudents) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	for _, s := range f.byID {
		if s.UserID == userID {
			return f.detail(s), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudents) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	f.lastFilter = filter
	var out []models.StudentDetail
	for _, s := range f.byID {
		d := f.detail(s)
		if filter.Program != "" && (d.CurrentProgram == nil || *d.CurrentProgram != filter.Program) {
			continue
		}
		if filter.ClassID != "" && s.ClassID != filter.ClassID {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeStudents) RegistrationNoExists(ctx context.Context, q sqlx.ExtContext, regNo string) (bool, error) {
	for _, s := range f.byID {
		if s.RegistrationNo == regNo {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudents) Create(ctx context.Context, q sqlx.ExtContext, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	clone := *student
	f.byID[student.ID] = &clone
	return nil
}

func (f *fakeStudents) CreateRemark(ctx context.Context, q sqlx.ExtContext, remark *models.StudentRemark) error {
	remark.ID = uuid.NewString()
	f.remarks = append(f.remarks, *remark)
	return nil
}

func (f *fakeStudents) SetBeneficiary(ctx context.Context, q sqlx.ExtContext, id string, beneficiary bool) error {
	s, ok := f.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.IsBeneficiary = beneficiary
	return nil
}

func (f *fakeStudents) ListIDsByClass(ctx context.Context, q sqlx.ExtContext, classID string) ([]string, error) {
	var ids []string
	for _, s := range f.byID {
		if s.ClassID == classID {
			ids = append(ids, s.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeClasses struct {
	byID map[string]models.Class
}

func newFakeClasses(ids ...string) *fakeClasses {
	f := &fakeClasses{byID: map[string]models.Class{}}
	for _, id := range ids {
		f.byID[id] = models.Class{ID: id, Name: "Class " + id[len(id)-1:]}
	}
	return f
}

func (f *fakeClasses) List(ctx context.Context) ([]models.Class, error) {
	out := make([]models.Class, 0, len(f.byID))
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClasses) FindByID(ctx context.Context, id string) (*models.Class, error) {
	c, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (f *fakeClasses) Create(ctx context.Context, q sqlx.ExtContext, class *models.Class) error {
	for _, c := range f.byID {
		if c.Name == class.Name && c.Section == class.Section {
			return &pq.Error{Code: "23505", Constraint: "classes_name_section_key"}
		}
	}
	class.ID = uuid.NewString()
	f.byID[class.ID] = *class
	return nil
}

type fakeSubjects struct {
	byID map[string]models.Subject
}

func newFakeSubjects(ids ...string) *fakeSubjects {
	f := &fakeSubjects{byID: map[string]models.Subject{}}
	for _, id := range ids {
		f.byID[id] = models.Subject{ID: id, Code: "MATH", Name: "Mathematics"}
	}
	return f
}

func (f *fakeSubjects) List(ctx context.Context) ([]models.Subject, error) {
	out := make([]models.Subject, 0, len(f.byID))
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeSubjects) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSubjects) Create(ctx context.Context, q sqlx.ExtContext, subject *models.Subject) error {
	subject.ID = uuid.NewString()
	f.byID[subject.ID] = *subject
	return nil
}

type fakeAssignments struct {
	rows []models.TeacherAssignment
}

func (f *fakeAssignments) assign(teacherID, classID string, subjectID *string) {
	f.rows = append(f.rows, models.TeacherAssignment{ID: uuid.NewString(), TeacherID: teacherID, ClassID: classID, SubjectID: subjectID})
}

func (f *fakeAssignments) IsClassTeacher(ctx context.Context, teacherID, classID string) (bool, error) {
	for _, a := range f.rows {
		if a.TeacherID == teacherID && a.ClassID == classID && a.IsClassTeacher() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignments) TeachesClass(ctx context.Context, teacherID, classID string) (bool, error) {
	for _, a := range f.rows {
		if a.TeacherID == teacherID && a.ClassID == classID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAssignments) ListByTeacher(ctx context.Context, teacherID string) ([]models.TeacherAssignment, error) {
	var out []models.TeacherAssignment
	for _, a := range f.rows {
		if a.TeacherID == teacherID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssignments) Create(ctx context.Context, q sqlx.ExtContext, assignment *models.TeacherAssignment) error {
	assignment.ID = uuid.NewString()
	f.rows = append(f.rows, *assignment)
	return nil
}

type fakeAttendance struct {
	rows map[string]models.Attendance
}

func newFakeAttendance() *fakeAttendance {
	return &fakeAttendance{rows: map[string]models.Attendance{}}
}

func (f *fakeAttendance) ReplaceForDate(ctx context.Context, q sqlx.ExtContext, date time.Time, records []models.Attendance) error {
	for i := range records {
		rec := &records[i]
		rec.ID = uuid.NewString()
		rec.Date = date
		f.rows[date.Format("2006-01-02")+"/"+rec.StudentID] = *rec
	}
	return nil
}

func (f *fakeAttendance) ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, rec := range f.rows {
		if rec.ClassID == classID && rec.Date.Equal(date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

type fakeMarks struct {
	rows []models.StudentMark
}

func (f *fakeMarks) ReplaceForExam(ctx context.Context, q sqlx.ExtContext, classID, subjectID, examTitle string, marks []models.StudentMark) error {
	submitted := map[string]bool{}
	for _, m := range marks {
		submitted[m.StudentID] = true
	}
	kept := f.rows[:0]
	for _, m := range f.rows {
		if m.SubjectID == subjectID && m.ExamTitle == examTitle && (m.ClassID == classID || submitted[m.StudentID]) {
			continue
		}
		kept = append(kept, m)
	}
	f.rows = kept
	for i := range marks {
		m := &marks[i]
		m.ID = uuid.NewString()
		m.ClassID = classID
		m.SubjectID = subjectID
		m.ExamTitle = examTitle
		f.rows = append(f.rows, *m)
	}
	return nil
}

func (f *fakeMarks) ReplaceForStudent(ctx context.Context, q sqlx.ExtContext, mark *models.StudentMark) error {
	kept := f.rows[:0]
	for _, m := range f.rows {
		if m.StudentID == mark.StudentID && m.SubjectID == mark.SubjectID && m.ExamTitle == mark.ExamTitle {
			continue
		}
		kept = append(kept, m)
	}
	mark.ID = uuid.NewString()
	f.rows = append(kept, *mark)
	return nil
}

func (f *fakeMarks) ListByExam(ctx context.Context, classID, subjectID, examTitle string) ([]models.StudentMark, error) {
	var out []models.StudentMark
	for _, m := range f.rows {
		if m.ClassID == classID && m.SubjectID == subjectID && m.ExamTitle == examTitle {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeFees struct {
	structures map[string]models.FeeStructure
	vouchers   []models.FeeVoucher
	students   *fakeStudents
}

func newFakeFees(students *fakeStudents) *fakeFees {
	return &fakeFees{structures: map[string]models.FeeStructure{}, students: students}
}

func (f *fakeFees) UpsertStructure(ctx context.Context, q sqlx.ExtContext, structure *models.FeeStructure) error {
	f.structures[structure.ClassID] = *structure
	return nil
}

func (f *fakeFees) FindStructure(ctx context.Context, q sqlx.ExtContext, classID string) (*models.FeeStructure, error) {
	s, ok := f.structures[classID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeFees) ListBillable(ctx context.Context, q sqlx.ExtContext, classID string, month time.Time) ([]models.BillableStudent, error) {
	ids, _ := f.students.ListIDsByClass(ctx, q, classID)
	var out []models.BillableStudent
	for _, id := range ids {
		s := f.students.byID[id]
		if s.IsBeneficiary || f.billed(id, month) {
			continue
		}
		if program, _ := f.students.enrollments.CurrentProgram(ctx, q, id); program == "" {
			continue
		}
		out = append(out, models.BillableStudent{StudentID: id, NeedsHostel: s.NeedsHostel})
	}
	return out, nil
}

func (f *fakeFees) billed(studentID string, month time.Time) bool {
	for _, v := range f.vouchers {
		if v.StudentID == studentID && v.Month.Equal(month) {
			return true
		}
	}
	return false
}

func (f *fakeFees) CreateVoucherIfAbsent(ctx context.Context, q sqlx.ExtContext, voucher *models.FeeVoucher) (bool, error) {
	if f.billed(voucher.StudentID, voucher.Month) {
		return false, nil
	}
	voucher.ID = uuid.NewString()
	f.vouchers = append(f.vouchers, *voucher)
	return true, nil
}

func (f *fakeFees) LockVoucher(ctx context.Context, q sqlx.ExtContext, id string) (*models.FeeVoucher, error) {
	for _, v := range f.vouchers {
		if v.ID == id {
			return &v, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFees) MarkPaid(ctx context.Context, q sqlx.ExtContext, id string, paidAt time.Time) error {
	for i := range f.vouchers {
		if f.vouchers[i].ID == id {
			f.vouchers[i].Status = models.VoucherStatusPaid
			f.vouchers[i].PaidAt = &paidAt
		}
	}
	return nil
}

func (f *fakeFees) FindVoucherDetail(ctx context.Context, id string) (*models.VoucherDetail, error) {
	for _, v := range f.vouchers {
		if v.ID == id {
			s := f.students.byID[v.StudentID]
			return &models.VoucherDetail{FeeVoucher: v, StudentName: s.FullName, RegistrationNo: s.RegistrationNo, ClassID: s.ClassID}, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeFees) ListVouchers(ctx context.Context, filter models.VoucherFilter) ([]models.VoucherDetail, error) {
	var out []models.VoucherDetail
	for _, v := range f.vouchers {
		if filter.StudentID != "" && v.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		d, _ := f.FindVoucherDetail(ctx, v.ID)
		if filter.ClassID != "" && d.ClassID != filter.ClassID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeFees) vouchersFor(studentID string) []models.FeeVoucher {
	var out []models.FeeVoucher
	for _, v := range f.vouchers {
		if v.StudentID == studentID {
			out = append(out, v)
		}
	}
	return out
}

type fakeSurveys struct {
	byID        map[string]models.Survey
	submissions []models.SurveySubmission
	feedback    []models.Feedback
	// hideSubmissions makes SubmissionExists miss, as a concurrent writer would.
	hideSubmissions bool
}

func newFakeSurveys(surveys ...models.Survey) *fakeSurveys {
	f := &fakeSurveys{byID: map[string]models.Survey{}}
	for _, s := range surveys {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeSurveys) FindByID(ctx context.Context, id string) (*models.Survey, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeSurveys) Create(ctx context.Context, q sqlx.ExtContext, survey *models.Survey) error {
	survey.ID = uuid.NewString()
	f.byID[survey.ID] = *survey
	return nil
}

func (f *fakeSurveys) SubmissionExists(ctx context.Context, q sqlx.ExtContext, surveyID, studentID, evaluateeID string) (bool, error) {
	if f.hideSubmissions {
		return false, nil
	}
	return f.submitted(surveyID, studentID, evaluateeID), nil
}

func (f *fakeSurveys) submitted(surveyID, studentID, evaluateeID string) bool {
	for _, s := range f.submissions {
		if s.SurveyID == surveyID && s.StudentID == studentID && s.EvaluateeID == evaluateeID {
			return true
		}
	}
	return false
}

func (f *fakeSurveys) CreateSubmission(ctx context.Context, q sqlx.ExtContext, s *models.SurveySubmission) error {
	if f.submitted(s.SurveyID, s.StudentID, s.EvaluateeID) {
		return &pq.Error{Code: "23505", Constraint: "survey_submissions_survey_id_student_id_evaluatee_id_key"}
	}
	s.ID = uuid.NewString()
	f.submissions = append(f.submissions, *s)
	return nil
}

func (f *fakeSurveys) CreateFeedback(ctx context.Context, q sqlx.ExtContext, fb *models.Feedback) error {
	fb.ID = uuid.NewString()
	f.feedback = append(f.feedback, *fb)
	return nil
}

func (f *fakeSurveys) ListFeedback(ctx context.Context, surveyID, evaluateeID string) ([]models.Feedback, error) {
	var out []models.Feedback
	for _, fb := range f.feedback {
		if fb.SurveyID == surveyID && fb.EvaluateeID == evaluateeID {
			out = append(out, fb)
		}
	}
	return out, nil
}

type recordingRevoker struct {
	revoked []string
}

func (r *recordingRevoker) Revoke(ctx context.Context, userID string) error {
	r.revoked = append(r.revoked, userID)
	return nil
}

// school wires the fakes into a small school: class A with students S (MRHSS), Q (MRA boarder) and
// R (RFL), a class teacher for A and a subject-only teacher for A.
type school struct {
	users       *fakeUsers
	enrollments *fakeEnrollments
	students    *fakeStudents
	classes     *fakeClasses
	subjects    *fakeSubjects
	assignments *fakeAssignments
	scope       *ScopeService
}

func newSchool() *school {
	users := newFakeUsers(
		models.User{ID: adminID, Email: "admin@school.test", Role: models.RoleSuperAdmin, Active: true},
		models.User{ID: sectionHeadID, Email: "head@school.test", Role: models.RoleSectionHead, Active: true},
		models.User{ID: feeClerkID, Email: "fees@school.test", Role: models.RoleFeeDept, Active: true},
		models.User{ID: admissionsID, Email: "admissions@school.test", Role: models.RoleAdmissionDept, Active: true},
		models.User{ID: examinerID, Email: "exams@school.test", Role: models.RoleExamDept, Active: true},
		models.User{ID: trustManagerID, Email: "trust@school.test", Role: models.RoleTrustManager, Active: true},
		models.User{ID: teacherID, Email: "teacher@school.test", Role: models.RoleTeacher, Active: true},
		models.User{ID: otherTeacherID, Email: "maths@school.test", Role: models.RoleTeacher, Active: true},
		models.User{ID: userSID, Email: "s@school.test", Role: models.RoleStudent, Active: true},
		models.User{ID: userQID, Email: "q@school.test", Role: models.RoleStudent, Active: true},
		models.User{ID: userRID, Email: "r@school.test", Role: models.RoleStudent, Active: true},
	)
	enrollments := &fakeEnrollments{}
	enrollments.enroll(studentSID, models.ProgramMRHSS)
	enrollments.enroll(studentQID, models.ProgramMRA)
	enrollments.enroll(studentRID, models.ProgramRFL)
	students := newFakeStudents(enrollments,
		models.Student{ID: studentSID, UserID: userSID, RegistrationNo: "REG-S", FullName: "Student S", ClassID: classAID},
		models.Student{ID: studentQID, UserID: userQID, RegistrationNo: "REG-Q", FullName: "Student Q", ClassID: classAID, NeedsHostel: true},
		models.Student{ID: studentRID, UserID: userRID, RegistrationNo: "REG-R", FullName: "Student R", ClassID: classAID},
	)
	assignments := &fakeAssignments{}
	assignments.assign(teacherID, classAID, nil)
	subject := mathID
	assignments.assign(otherTeacherID, classAID, &subject)

	return &school{
		users:       users,
		enrollments: enrollments,
		students:    students,
		classes:     newFakeClasses(classAID, classBID),
		subjects:    newFakeSubjects(mathID),
		assignments: assignments,
		scope:       NewScopeService(assignments, users, students),
	}
}
