package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
)

// Assignment is created by a course lecturer, then submitted by one student and graded by the lecturer.
type Assignment struct {
	ID        int          `json:"id" db:"id"`
	CourseID  int          `json:"courseId" db:"course_id"`
	StudentID null.Int     `json:"studentId" db:"student_id"` // set on submission
	File      null.String  `json:"file" db:"file"`
	Grade     null.Float64 `json:"grade" db:"grade"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`
}

func (a Assignment) IsSubmitted() bool { return a.StudentID.Valid }

// NewAssignment is bound from a multipart form; File is filled from the uploaded file or from Text.
type NewAssignment struct {
	CourseID int    `json:"courseId" form:"courseId" validate:"required,min=1"`
	Text     string `json:"text" form:"text"`
	File     string `json:"-" form:"-"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Text = core.CleanString(na.Text)
	return validate.Struct(na)
}

// Submission is bound from a multipart form; File is filled from the uploaded file or from Text.
type Submission struct {
	AssignmentID int    `json:"assignmentId" form:"assignmentId" validate:"required,min=1"`
	Text         string `json:"text" form:"text"`
	File         string `json:"-" form:"-"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	s.Text = core.CleanString(s.Text)
	return validate.Struct(s)
}

type GradeRequest struct {
	AssignmentID int      `json:"assignmentId" validate:"required,min=1"`
	Grade        *float64 `json:"grade" validate:"required,min=0,max=100"`
}

func (gr GradeRequest) Validate(validate *validator.Validate) error { return validate.Struct(gr) }

type QueryFilter struct {
	CourseIDs    []int // nil: no restriction; empty: matches nothing
	SubmittedBy  int
	OpenOnly     bool // not submitted yet
	UngradedOnly bool // submitted, not graded yet
}
