package dto

// SubmitEvaluationRequest rates a teacher on the evaluation form.
type SubmitEvaluationRequest struct {
	TeacherID string         `json:"teacherId" validate:"required,uuid"`
	Period    string         `json:"period" validate:"required,notblank,max=32"`
	Ratings   map[string]int `json:"ratings" validate:"required,min=1"`
	Comments  string         `json:"comments" validate:"max=2000"`
}

// CreateSurveyRequest declares a feedback survey and its metric set.
type CreateSurveyRequest struct {
	Title   string   `json:"title" validate:"required,notblank,min=3,max=160"`
	Metrics []string `json:"metrics" validate:"required,min=1,max=20,unique,dive,identifier"`
}

// SubmitFeedbackRequest is a student's anonymous response about one teacher.
type SubmitFeedbackRequest struct {
	SurveyID    string         `json:"surveyId" validate:"required,uuid"`
	EvaluateeID string         `json:"evaluateeId" validate:"required,uuid"`
	Ratings     map[string]int `json:"ratings" validate:"required,min=1"`
	Comment     string         `json:"comment" validate:"max=1000"`
}
