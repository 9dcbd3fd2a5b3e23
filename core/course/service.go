package course

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/notification"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("course not found")
	ErrNotFoundOrNotOwner = core.NewNotFoundError("course not found or not authorized")
	ErrEnrollmentNotFound = core.NewNotFoundError("enrollment not found")
	ErrAlreadyEnrolled    = core.NewConflictError("already enrolled in this course")
	ErrNotCourseLecturer  = core.NewPermissionError("only the course lecturer can manage its enrollments")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id int) (Course, error)
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		CountCourses(ctx context.Context) (int, error)

		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id int) (Enrollment, error)
		GetEnrollment(ctx context.Context, courseID, studentID int) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id int) error
		CountEnrollments(ctx context.Context, status string) (int, error)
	}

	Service interface {
		Create(ctx context.Context, lecturer user.User, nc NewCourse) (Course, error)
		// GetOwned returns ErrNotFoundOrNotOwner when the course is missing or not owned by the lecturer.
		GetOwned(ctx context.Context, lecturer user.User, id int) (Course, error)
		Update(ctx context.Context, orig Course, uc UpdateCourse) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetByID(ctx context.Context, id int) (Course, error)
		Count(ctx context.Context) (int, error)

		Enroll(ctx context.Context, student user.User, courseID int) (Enrollment, error)
		Drop(ctx context.Context, student user.User, courseID int) error
		GetEnrollment(ctx context.Context, courseID, studentID int) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
		CourseEnrollments(ctx context.Context, actor user.User, courseID int) ([]Enrollment, error)
		DecideEnrollment(ctx context.Context, actor user.User, enrollmentID int, ed EnrollmentDecision) (Enrollment, error)
		CountEnrollments(ctx context.Context, status string) (int, error)
	}

	service struct {
		repo     Repository
		usrSvc   user.Service
		mailSvc  core.EmailService
		notifier notification.Publisher
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService, notifier notification.Publisher) Service {
	return &service{
		repo:     repo,
		usrSvc:   usrSvc,
		mailSvc:  mailSvc,
		notifier: notifier,
	}
}

func (svc *service) Create(ctx context.Context, lecturer user.User, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	c, err := svc.repo.CreateCourse(ctx, Course{
		Title:      nc.Title,
		Credits:    nc.Credits,
		LecturerID: lecturer.ID,
		Syllabus:   null.NewString(nc.Syllabus, nc.Syllabus != ""),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	svc.notifier.Notify(ctx, "New course created: "+c.Title)
	return c, nil
}

func (svc *service) GetOwned(ctx context.Context, lecturer user.User, id int) (Course, error) {
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return Course{}, ErrNotFoundOrNotOwner
		}
		return Course{}, errors.Wrap(err, "finding course by ID")
	}
	if !c.IsOwnedBy(lecturer.ID) {
		return Course{}, ErrNotFoundOrNotOwner
	}
	return c, nil
}

func (svc *service) Update(ctx context.Context, orig Course, uc UpdateCourse) (Course, error) {
	orig.Title = uc.Title
	orig.Credits = uc.Credits
	orig.Syllabus = null.NewString(uc.Syllabus, uc.Syllabus != "")
	orig.UpdatedAt = time.Now().UTC()

	c, err := svc.repo.UpdateCourse(ctx, orig)
	if err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	svc.notifier.Notify(ctx, "Course updated: "+c.Title)
	return c, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id int) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) Count(ctx context.Context) (int, error) {
	return svc.repo.CountCourses(ctx)
}

func (svc *service) Enroll(ctx context.Context, student user.User, courseID int) (Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Enrollment{}, errors.Wrap(err, "finding course by ID")
	}

	if _, err := svc.repo.GetEnrollment(ctx, courseID, student.ID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if !core.IsNotFound(err) {
		return Enrollment{}, errors.Wrap(err, "finding enrollment")
	}

	now := time.Now().UTC()
	e, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		CourseID:  courseID,
		StudentID: student.ID,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "creating enrollment")
	}
	svc.notifier.Notify(ctx, fmt.Sprintf("Enrollment pending for course %d", courseID))
	return e, nil
}

func (svc *service) Drop(ctx context.Context, student user.User, courseID int) error {
	e, err := svc.repo.GetEnrollment(ctx, courseID, student.ID)
	if err != nil {
		return errors.Wrap(err, "finding enrollment")
	}
	if err = svc.repo.DeleteEnrollment(ctx, e.ID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	svc.notifier.Notify(ctx, fmt.Sprintf("Dropped course %d", courseID))
	return nil
}

func (svc *service) GetEnrollment(ctx context.Context, courseID, studentID int) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, courseID, studentID)
}

func (svc *service) QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

func (svc *service) CourseEnrollments(ctx context.Context, actor user.User, courseID int) ([]Enrollment, error) {
	c, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "finding course by ID")
	}
	if !(actor.IsAdmin() || c.IsOwnedBy(actor.ID)) {
		return nil, ErrNotCourseLecturer
	}
	return svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseID: c.ID})
}

func (svc *service) DecideEnrollment(ctx context.Context, actor user.User, enrollmentID int, ed EnrollmentDecision) (Enrollment, error) {
	e, err := svc.repo.GetEnrollmentByID(ctx, enrollmentID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "finding enrollment by ID")
	}
	c, err := svc.repo.GetCourseByID(ctx, e.CourseID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "finding course by ID")
	}
	if !(actor.IsAdmin() || c.IsOwnedBy(actor.ID)) {
		return Enrollment{}, ErrNotCourseLecturer
	}

	e.Status = ed.Status
	e.UpdatedAt = time.Now().UTC()
	if e, err = svc.repo.UpdateEnrollment(ctx, e); err != nil {
		return Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	svc.notifier.Notify(ctx, fmt.Sprintf("Enrollment %d %s for course %d", e.ID, e.Status, e.CourseID))

	if student, err := svc.usrSvc.GetByID(ctx, e.StudentID); err == nil {
		svc.sendStatusMail(student, c, e)
	}
	return e, nil
}

func (svc *service) CountEnrollments(ctx context.Context, status string) (int, error) {
	return svc.repo.CountEnrollments(ctx, status)
}

func (svc *service) sendStatusMail(student user.User, c Course, e Enrollment) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      fmt.Sprintf("Enrollment %s: %s", e.Status, c.Title),
		TemplateName: "enrollment_status",
		TemplateData: EnrollmentStatusData{
			StudentName: student.Name,
			CourseID:    c.ID,
			CourseTitle: c.Title,
			Status:      e.Status,
		},
	})
}
