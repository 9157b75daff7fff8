package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Ratings maps a metric name to a 1..5 score. Persisted as a JSON document.
type Ratings map[string]int

// Value implements driver.Valuer.
func (r Ratings) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *Ratings) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = Ratings{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("ratings: unsupported type %T", src)
	}
	out := Ratings{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*r = out
	return nil
}

// StaffEvaluation is a section head's rating of a teacher.
type StaffEvaluation struct {
	ID          string    `db:"id" json:"id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	EvaluatorID string    `db:"evaluator_id" json:"evaluator_id"`
	Period      string    `db:"period" json:"period"`
	Ratings     Ratings   `db:"ratings" json:"ratings"`
	Comments    string    `db:"comments" json:"comments"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Survey declares the metric set students rate teachers on.
type Survey struct {
	ID        string         `db:"id" json:"id"`
	Title     string         `db:"title" json:"title"`
	Metrics   pq.StringArray `db:"metrics" json:"metrics"`
	Active    bool           `db:"active" json:"active"`
	CreatedBy string         `db:"created_by" json:"created_by"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// HasMetric reports whether name is declared by the survey.
func (s Survey) HasMetric(name string) bool {
	for _, m := range s.Metrics {
		if m == name {
			return true
		}
	}
	return false
}

// Feedback is an anonymous survey response. It carries no student reference.
type Feedback struct {
	ID          string    `db:"id" json:"id"`
	SurveyID    string    `db:"survey_id" json:"survey_id"`
	EvaluateeID string    `db:"evaluatee_id" json:"evaluatee_id"`
	Ratings     Ratings   `db:"ratings" json:"ratings"`
	Comment     string    `db:"comment" json:"comment,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SurveySubmission records that a student used their one response for a teacher.
type SurveySubmission struct {
	ID          string    `db:"id" json:"id"`
	SurveyID    string    `db:"survey_id" json:"survey_id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	EvaluateeID string    `db:"evaluatee_id" json:"evaluatee_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FeedbackSummary aggregates anonymous feedback for one evaluatee.
type FeedbackSummary struct {
	SurveyID    string             `json:"survey_id"`
	EvaluateeID string             `json:"evaluatee_id"`
	Responses   int                `json:"responses"`
	Averages    map[string]float64 `json:"averages"`
	Comments    []string           `json:"comments,omitempty"`
}
