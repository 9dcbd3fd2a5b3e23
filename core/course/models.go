package course

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
)

// Enrollment statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Course struct {
	ID         int         `json:"id" db:"id"`
	Title      string      `json:"title" db:"title"`
	Credits    int         `json:"credits" db:"credits"`
	LecturerID int         `json:"lecturerId" db:"lecturer_id"`
	Syllabus   null.String `json:"syllabus" db:"syllabus"` // path of the uploaded file
	CreatedAt  time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time   `json:"updatedAt" db:"updated_at"`
}

func (c Course) IsOwnedBy(userID int) bool {
	return c.LecturerID == userID
}

type Enrollment struct {
	ID        int       `json:"id" db:"id"`
	CourseID  int       `json:"courseId" db:"course_id"`
	StudentID int       `json:"studentId" db:"student_id"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

func (e Enrollment) IsApproved() bool { return e.Status == StatusApproved }

// NewCourse contains information needed to create a new Course.
// It is bound from JSON or from a multipart form carrying the syllabus file.
type NewCourse struct {
	Title    string `json:"title" form:"title" validate:"required,notblank,max=200"`
	Credits  int    `json:"credits" form:"credits" validate:"required,min=1,max=60"`
	Syllabus string `json:"-" form:"-"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	return validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
// Empty fields keep their current value.
type UpdateCourse struct {
	Title    string `json:"title" form:"title" validate:"omitempty,max=200"`
	Credits  int    `json:"credits" form:"credits" validate:"omitempty,min=1,max=60"`
	Syllabus string `json:"-" form:"-"`
}

func (uc *UpdateCourse) Validate(orig Course, validate *validator.Validate) error {
	if title := core.CleanString(uc.Title); title != "" {
		uc.Title = title
	} else {
		uc.Title = orig.Title
	}
	if uc.Credits == 0 {
		uc.Credits = orig.Credits
	}
	if uc.Syllabus == "" {
		uc.Syllabus = orig.Syllabus.String
	}
	return validate.Struct(uc)
}

type EnrollRequest struct {
	CourseID int `json:"courseId" form:"courseId" validate:"required,min=1"`
}

func (er EnrollRequest) Validate(validate *validator.Validate) error { return validate.Struct(er) }

type EnrollmentDecision struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (ed *EnrollmentDecision) Validate(validate *validator.Validate) error {
	ed.Status = core.CleanString(ed.Status, true /* lower */)
	return validate.Struct(ed)
}

type QueryFilter struct {
	LecturerID int
	IDs        []int // nil: no restriction; empty: matches nothing
}

type EnrollmentFilter struct {
	CourseID  int
	StudentID int
	Statuses  []string
}

// EnrollmentStatusData feeds the enrollment status email template.
type EnrollmentStatusData struct {
	StudentName string
	CourseID    int
	CourseTitle string
	Status      string
}
