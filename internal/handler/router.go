package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/trust-erp-api/internal/middleware"
	"github.com/noah-isme/trust-erp-api/internal/policy"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Users        *UserHandler
	Academics    *AcademicHandler
	Students     *StudentHandler
	Attendance   *AttendanceHandler
	Grades       *GradeHandler
	Fees         *FeeHandler
	Scholarships *ScholarshipHandler
	Surveys      *SurveyHandler
	Audit        *AuditHandler
}

// RegisterRoutes mounts the API under group. session must resolve the actor before any route runs.
func RegisterRoutes(group *gin.RouterGroup, session gin.HandlerFunc, h Handlers) {
	api := group.Group("", session)
	can := middleware.RequireAction

	users := api.Group("/users")
	users.POST("", can(policy.ActionCreateStaff), h.Users.CreateStaff)
	users.PUT("/:id/role", can(policy.ActionChangeRole), h.Users.ChangeRole)
	users.PUT("/:id/status", can(policy.ActionSetUserStatus), h.Users.SetStatus)
	users.POST("/:id/password-reset", can(policy.ActionResetPassword), h.Users.ResetPassword)

	api.GET("/classes", can(policy.ActionViewAcademics), h.Academics.ListClasses)
	api.POST("/classes", can(policy.ActionCreateClass), h.Academics.CreateClass)
	api.GET("/subjects", can(policy.ActionViewAcademics), h.Academics.ListSubjects)
	api.POST("/subjects", can(policy.ActionCreateSubject), h.Academics.CreateSubject)
	api.POST("/assignments", can(policy.ActionAssignTeacher), h.Academics.AssignTeacher)
	api.GET("/me/assignments", can(policy.ActionViewOwnAssignments), h.Academics.MyAssignments)
	api.GET("/teachers/:teacherId/assignments", can(policy.ActionAssignTeacher), h.Academics.ListAssignments)
	api.GET("/teachers/:teacherId/evaluations", can(policy.ActionSubmitEvaluation), h.Surveys.ListEvaluations)

	students := api.Group("/students")
	students.POST("", can(policy.ActionRegisterStudent), h.Students.Register)
	students.GET("", can(policy.ActionViewStudents), h.Students.List)
	students.GET("/:id", can(policy.ActionViewStudents), h.Students.Get)
	students.POST("/:id/remarks", can(policy.ActionAddRemark), h.Students.AddRemark)
	students.POST("/:id/performance", can(policy.ActionSetAcademicPerformance), h.Grades.AcademicPerformance)
	students.PUT("/:id/beneficiary", can(policy.ActionSetBeneficiary), h.Fees.SetBeneficiary)
	students.POST("/:id/disbursements", can(policy.ActionRecordDisbursement), h.Scholarships.Record)
	students.GET("/:id/disbursements", can(policy.ActionRecordDisbursement), h.Scholarships.List)

	api.POST("/attendance", can(policy.ActionMarkAttendance), h.Attendance.Mark)
	api.GET("/attendance", can(policy.ActionMarkAttendance), h.Attendance.List)

	api.POST("/marks", can(policy.ActionUploadMarks), h.Grades.Upload)
	api.GET("/marks", can(policy.ActionUploadMarks), h.Grades.List)

	fees := api.Group("/fees")
	fees.PUT("/structures", can(policy.ActionDefineFeeStructure), h.Fees.DefineStructure)
	fees.POST("/vouchers/generate", can(policy.ActionGenerateVouchers), h.Fees.GenerateVouchers)
	fees.GET("/vouchers", can(policy.ActionViewVouchers), h.Fees.ListVouchers)
	fees.POST("/vouchers/:id/pay", can(policy.ActionPayVoucher), h.Fees.Pay)
	fees.GET("/vouchers/:id/pdf", can(policy.ActionViewVouchers), h.Fees.VoucherPDF)

	api.POST("/evaluations", can(policy.ActionSubmitEvaluation), h.Surveys.SubmitEvaluation)
	api.POST("/surveys", can(policy.ActionCreateSurvey), h.Surveys.CreateSurvey)
	api.POST("/surveys/:id/feedback", can(policy.ActionSubmitFeedback), h.Surveys.SubmitFeedback)
	api.GET("/surveys/:id/feedback/:evaluateeId", can(policy.ActionViewFeedback), h.Surveys.Summary)

	api.GET("/audit-logs", can(policy.ActionViewAuditLog), h.Audit.List)
	api.GET("/audit-logs/export", can(policy.ActionViewAuditLog), h.Audit.Export)
}
