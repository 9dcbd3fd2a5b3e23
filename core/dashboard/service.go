// Package dashboard aggregates courses, enrollments and grades into per-role overviews.
package dashboard

import (
	"context"
	"errors"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

var (
	// errors
	ErrNotApproved     = core.NewPermissionError("enrollment not approved")
	ErrNotOwner        = core.NewPermissionError("only the course lecturer can view its grades")
	ErrStudentRequired = core.NewValidationError(
		errors.New("studentId is required"),
		core.FieldError{Field: "studentId", Error: "this field is required"},
	)
)

type (
	StudentDashboard struct {
		Courses []course.Course `json:"courses"`
		// Assignments maps a course ID to the student's average grade in it (null when nothing is graded).
		Assignments map[int]null.Float64 `json:"assignments"`
	}

	LecturerDashboard struct {
		Courses []course.Course `json:"courses"`
		// Assignments lists the submitted assignments waiting for a grade.
		Assignments []assignment.Assignment `json:"assignments"`
	}

	Overview struct {
		CourseCount        int `json:"courseCount"`
		UserCount          int `json:"userCount"`
		PendingEnrollments int `json:"pendingEnrollments"`
	}

	AdminDashboard struct {
		Overview Overview `json:"overview"`
	}

	Service interface {
		// CourseGrade returns the average grade of a student in a course.
		// Students get their own grade once approved; lecturers (course owner) and admins name the student.
		CourseGrade(ctx context.Context, actor user.User, courseID, studentID int) (null.Float64, error)
		Student(ctx context.Context, student user.User) (StudentDashboard, error)
		Lecturer(ctx context.Context, lecturer user.User) (LecturerDashboard, error)
		Admin(ctx context.Context) (AdminDashboard, error)
	}

	service struct {
		usrSvc        user.Service
		courseSvc     course.Service
		assignmentSvc assignment.Service
	}
)

var _ Service = (*service)(nil)

func NewService(usrSvc user.Service, courseSvc course.Service, assignmentSvc assignment.Service) Service {
	return &service{
		usrSvc:        usrSvc,
		courseSvc:     courseSvc,
		assignmentSvc: assignmentSvc,
	}
}

func (svc *service) CourseGrade(ctx context.Context, actor user.User, courseID, studentID int) (null.Float64, error) {
	c, err := svc.courseSvc.GetByID(ctx, courseID)
	if err != nil {
		return null.Float64{}, pkgerrors.Wrap(err, "finding course by ID")
	}

	switch {
	case actor.IsStudent():
		e, err := svc.courseSvc.GetEnrollment(ctx, c.ID, actor.ID)
		if err != nil {
			if core.IsNotFound(err) {
				return null.Float64{}, ErrNotApproved
			}
			return null.Float64{}, pkgerrors.Wrap(err, "finding enrollment")
		}
		if !e.IsApproved() {
			return null.Float64{}, ErrNotApproved
		}
		studentID = actor.ID
	case actor.IsLecturer() && !c.IsOwnedBy(actor.ID):
		return null.Float64{}, ErrNotOwner
	case studentID <= 0:
		return null.Float64{}, ErrStudentRequired
	}

	return svc.assignmentSvc.AverageGrade(ctx, c.ID, studentID)
}

func (svc *service) Student(ctx context.Context, student user.User) (StudentDashboard, error) {
	enrollments, err := svc.courseSvc.QueryEnrollments(ctx, course.EnrollmentFilter{
		StudentID: student.ID,
		Statuses:  []string{course.StatusApproved},
	})
	if err != nil {
		return StudentDashboard{}, pkgerrors.Wrap(err, "querying approved enrollments")
	}

	ids := make([]int, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := svc.courseSvc.Query(ctx, &course.QueryFilter{IDs: ids}, nil)
	if err != nil {
		return StudentDashboard{}, pkgerrors.Wrap(err, "querying enrolled courses")
	}

	grades := make(map[int]null.Float64, len(courses))
	for _, c := range courses {
		avg, err := svc.assignmentSvc.AverageGrade(ctx, c.ID, student.ID)
		if err != nil {
			return StudentDashboard{}, pkgerrors.Wrap(err, "averaging grades")
		}
		grades[c.ID] = avg
	}
	return StudentDashboard{Courses: nonNilCourses(courses), Assignments: grades}, nil
}

func (svc *service) Lecturer(ctx context.Context, lecturer user.User) (LecturerDashboard, error) {
	courses, err := svc.courseSvc.Query(ctx, &course.QueryFilter{LecturerID: lecturer.ID}, nil)
	if err != nil {
		return LecturerDashboard{}, pkgerrors.Wrap(err, "querying owned courses")
	}

	ids := make([]int, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	ungraded, err := svc.assignmentSvc.Query(ctx, assignment.QueryFilter{CourseIDs: ids, UngradedOnly: true})
	if err != nil {
		return LecturerDashboard{}, pkgerrors.Wrap(err, "querying ungraded assignments")
	}
	if ungraded == nil {
		ungraded = []assignment.Assignment{}
	}
	sort.Slice(ungraded, func(i, j int) bool { return ungraded[i].ID < ungraded[j].ID })
	return LecturerDashboard{Courses: nonNilCourses(courses), Assignments: ungraded}, nil
}

func (svc *service) Admin(ctx context.Context) (AdminDashboard, error) {
	var (
		ov  Overview
		err error
	)
	if ov.CourseCount, err = svc.courseSvc.Count(ctx); err != nil {
		return AdminDashboard{}, pkgerrors.Wrap(err, "counting courses")
	}
	if ov.UserCount, err = svc.usrSvc.Count(ctx); err != nil {
		return AdminDashboard{}, pkgerrors.Wrap(err, "counting users")
	}
	if ov.PendingEnrollments, err = svc.courseSvc.CountEnrollments(ctx, course.StatusPending); err != nil {
		return AdminDashboard{}, pkgerrors.Wrap(err, "counting pending enrollments")
	}
	return AdminDashboard{Overview: ov}, nil
}

func nonNilCourses(courses []course.Course) []course.Course {
	if courses == nil {
		return []course.Course{}
	}
	return courses
}
