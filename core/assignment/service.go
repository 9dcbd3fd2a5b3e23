package assignment

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/notification"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("assignment not found")
	ErrCourseNotFound    = core.NewNotFoundError("course not found")
	ErrNotCourseLecturer = core.NewPermissionError("only the course lecturer can create assignments")
	ErrCannotGrade       = core.NewPermissionError("only the course lecturer can grade assignments")
	ErrCannotDelete      = core.NewPermissionError("only the course lecturer or an admin can delete assignments")
	ErrNotEnrolled       = core.NewPermissionError("student not enrolled in course")
	ErrTakenByOther      = core.NewPermissionError("assignment already submitted by another student")
	ErrNotSubmitted      = core.NewValidationError(errors.New("assignment has not been submitted yet"))
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id int) (Assignment, error)
		QueryAssignments(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignment(ctx context.Context, id int) error
		// AverageGrade averages the graded assignments of a student in a course; null when none is graded.
		AverageGrade(ctx context.Context, courseID, studentID int) (null.Float64, error)
	}

	Service interface {
		Create(ctx context.Context, lecturer user.User, na NewAssignment) (Assignment, error)
		QueryFor(ctx context.Context, actor user.User) ([]Assignment, error)
		Query(ctx context.Context, filter QueryFilter) ([]Assignment, error)
		Submit(ctx context.Context, student user.User, sub Submission) (Assignment, error)
		Grade(ctx context.Context, lecturer user.User, gr GradeRequest) (Assignment, error)
		Delete(ctx context.Context, actor user.User, id int) error
		AverageGrade(ctx context.Context, courseID, studentID int) (null.Float64, error)
	}

	service struct {
		repo      Repository
		courseSvc course.Service
		notifier  notification.Publisher
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courseSvc course.Service, notifier notification.Publisher) Service {
	return &service{
		repo:      repo,
		courseSvc: courseSvc,
		notifier:  notifier,
	}
}

func (svc *service) getCourse(ctx context.Context, id int) (course.Course, error) {
	c, err := svc.courseSvc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return course.Course{}, ErrCourseNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}
	return c, nil
}

func (svc *service) Create(ctx context.Context, lecturer user.User, na NewAssignment) (Assignment, error) {
	c, err := svc.getCourse(ctx, na.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if !c.IsOwnedBy(lecturer.ID) {
		return Assignment{}, ErrNotCourseLecturer
	}

	now := time.Now().UTC()
	a, err := svc.repo.CreateAssignment(ctx, Assignment{
		CourseID:  c.ID,
		File:      null.NewString(na.File, na.File != ""),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	svc.notifier.Notify(ctx, fmt.Sprintf("New assignment created for course %d", c.ID))
	return a, nil
}

// QueryFor lists what the actor may see: everything for admins, the assignments of their courses
// for lecturers, own submissions plus open assignments of enrolled courses for students.
func (svc *service) QueryFor(ctx context.Context, actor user.User) ([]Assignment, error) {
	switch actor.Role {
	case user.RoleAdmin:
		return svc.repo.QueryAssignments(ctx, QueryFilter{})

	case user.RoleLecturer:
		courses, err := svc.courseSvc.Query(ctx, &course.QueryFilter{LecturerID: actor.ID}, nil)
		if err != nil {
			return nil, errors.Wrap(err, "querying lecturer courses")
		}
		ids := make([]int, 0, len(courses))
		for _, c := range courses {
			ids = append(ids, c.ID)
		}
		return svc.repo.QueryAssignments(ctx, QueryFilter{CourseIDs: ids})

	case user.RoleStudent:
		submitted, err := svc.repo.QueryAssignments(ctx, QueryFilter{SubmittedBy: actor.ID})
		if err != nil {
			return nil, errors.Wrap(err, "querying submitted assignments")
		}
		enrollments, err := svc.courseSvc.QueryEnrollments(ctx, course.EnrollmentFilter{
			StudentID: actor.ID,
			Statuses:  []string{course.StatusPending, course.StatusApproved},
		})
		if err != nil {
			return nil, errors.Wrap(err, "querying enrollments")
		}
		ids := make([]int, 0, len(enrollments))
		for _, e := range enrollments {
			ids = append(ids, e.CourseID)
		}
		open, err := svc.repo.QueryAssignments(ctx, QueryFilter{CourseIDs: ids, OpenOnly: true})
		if err != nil {
			return nil, errors.Wrap(err, "querying open assignments")
		}
		all := append(submitted, open...)
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		return all, nil
	}
	return []Assignment{}, nil
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, filter)
}

func (svc *service) Submit(ctx context.Context, student user.User, sub Submission) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, sub.AssignmentID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}

	e, err := svc.courseSvc.GetEnrollment(ctx, a.CourseID, student.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return Assignment{}, ErrNotEnrolled
		}
		return Assignment{}, errors.Wrap(err, "finding enrollment")
	}
	if e.Status == course.StatusRejected {
		return Assignment{}, ErrNotEnrolled
	}
	if a.StudentID.Valid && a.StudentID.Int != student.ID {
		return Assignment{}, ErrTakenByOther
	}

	a.StudentID = null.IntFrom(student.ID)
	a.File = null.NewString(sub.File, sub.File != "")
	a.Grade = null.Float64{} // a resubmission needs grading again
	a.UpdatedAt = time.Now().UTC()
	if a, err = svc.repo.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	svc.notifier.Notify(ctx, fmt.Sprintf("Assignment %d submitted by student %d", a.ID, student.ID))
	return a, nil
}

func (svc *service) Grade(ctx context.Context, lecturer user.User, gr GradeRequest) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, gr.AssignmentID)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	c, err := svc.getCourse(ctx, a.CourseID)
	if err != nil {
		return Assignment{}, err
	}
	if !c.IsOwnedBy(lecturer.ID) {
		return Assignment{}, ErrCannotGrade
	}
	if !a.IsSubmitted() {
		return Assignment{}, ErrNotSubmitted
	}

	a.Grade = null.Float64FromPtr(gr.Grade)
	a.UpdatedAt = time.Now().UTC()
	if a, err = svc.repo.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	svc.notifier.Notify(ctx, fmt.Sprintf("Assignment %d graded: %s", a.ID, strconv.FormatFloat(a.Grade.Float64, 'f', -1, 64)))
	return a, nil
}

func (svc *service) Delete(ctx context.Context, actor user.User, id int) error {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}
	if !actor.IsAdmin() {
		c, err := svc.getCourse(ctx, a.CourseID)
		if err != nil {
			return err
		}
		if !c.IsOwnedBy(actor.ID) {
			return ErrCannotDelete
		}
	}

	if err = svc.repo.DeleteAssignment(ctx, a.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	svc.notifier.Notify(ctx, fmt.Sprintf("Assignment %d deleted", a.ID))
	return nil
}

func (svc *service) AverageGrade(ctx context.Context, courseID, studentID int) (null.Float64, error) {
	return svc.repo.AverageGrade(ctx, courseID, studentID)
}
