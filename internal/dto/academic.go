package dto

// CreateClassRequest defines a homeroom group.
type CreateClassRequest struct {
	Name    string `json:"name" validate:"required,notblank,max=64"`
	Section string `json:"section" validate:"omitempty,max=16"`
}

// CreateSubjectRequest defines a taught course.
type CreateSubjectRequest struct {
	Code string `json:"code" validate:"required,identifier"`
	Name string `json:"name" validate:"required,notblank,max=120"`
}

// AssignTeacherRequest links a teacher to a class. A missing, empty or "none" subject
// makes the teacher the class teacher.
type AssignTeacherRequest struct {
	TeacherID string  `json:"teacherId" validate:"required,uuid"`
	ClassID   string  `json:"classId" validate:"required,uuid"`
	SubjectID *string `json:"subjectId,omitempty" validate:"omitempty,uuid"`
}
