package dto

import "github.com/noah-isme/trust-erp-api/internal/models"

// AttendanceEntry is one student's status in an attendance sheet.
type AttendanceEntry struct {
	StudentID string                  `json:"studentId" validate:"required,uuid"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT LEAVE LATE"`
}

// MarkAttendanceRequest submits a class's attendance for one date.
type MarkAttendanceRequest struct {
	ClassID    string            `json:"classId" validate:"required,uuid"`
	Date       string            `json:"date" validate:"required,isodate"`
	Attendance []AttendanceEntry `json:"attendance" validate:"required,min=1,unique=StudentID,dive"`
}

// MarkEntry is one student's score.
type MarkEntry struct {
	StudentID     string  `json:"studentId" validate:"required,uuid"`
	MarksObtained float64 `json:"marksObtained" validate:"gte=0"`
}

// UploadMarksRequest submits exam marks for a class and subject.
type UploadMarksRequest struct {
	ClassID    string      `json:"classId" validate:"required,uuid"`
	SubjectID  string      `json:"subjectId" validate:"required,uuid"`
	ExamTitle  string      `json:"examTitle" validate:"required,notblank,min=2,max=120"`
	TotalMarks float64     `json:"totalMarks" validate:"gt=0"`
	Marks      []MarkEntry `json:"marks" validate:"required,min=1,unique=StudentID,dive"`
}

// AcademicPerformanceRequest records one scholarship student's result.
type AcademicPerformanceRequest struct {
	StudentID     string  `json:"studentId" validate:"required,uuid"`
	SubjectID     string  `json:"subjectId" validate:"required,uuid"`
	ExamTitle     string  `json:"examTitle" validate:"required,notblank,min=2,max=120"`
	TotalMarks    float64 `json:"totalMarks" validate:"gt=0"`
	MarksObtained float64 `json:"marksObtained" validate:"gte=0"`
}
