package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/user"
	emailsvc "github.com/Iamayomi/academic-management-platform/services/email"
	inmemdb "github.com/Iamayomi/academic-management-platform/storage/database/inmem"
	testutil "github.com/Iamayomi/academic-management-platform/tests"
)

type fixture struct {
	svc      course.Service
	repo     course.Repository
	usrRepo  user.Repository
	mailSvc  *emailsvc.ConsoleServiceMock
	notifier *testutil.Publisher

	lecturer, other, student, admin user.User
}

func setup(t *testing.T) fixture {
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(conf, testutil.NewLogger(conf))

	db := inmemdb.Open()
	f := fixture{
		repo:     inmemdb.NewCourseRepository(db),
		usrRepo:  inmemdb.NewUserRepository(db),
		mailSvc:  emailsvc.NewConsoleServiceMock(conf),
		notifier: new(testutil.Publisher),
	}
	f.svc = course.NewService(f.repo, user.NewService(f.usrRepo, f.mailSvc), f.mailSvc, f.notifier)

	f.lecturer = testutil.CreateUser(t, f.usrRepo, "Lecturer", "lecturer@example.com", "", user.RoleLecturer, true)
	f.other = testutil.CreateUser(t, f.usrRepo, "Other", "other@example.com", "", user.RoleLecturer, true)
	f.student = testutil.CreateUser(t, f.usrRepo, "Student", "student@example.com", "", user.RoleStudent, true)
	f.admin = testutil.CreateUser(t, f.usrRepo, "Admin", "admin@example.com", "", user.RoleAdmin, true)
	return f
}

func TestService_CreateAndUpdate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, f.lecturer, course.NewCourse{Title: "Algorithms", Credits: 3})
	require.NoError(t, err)
	assert.Equal(t, f.lecturer.ID, c.LecturerID)
	assert.False(t, c.Syllabus.Valid)

	_, err = f.svc.GetOwned(ctx, f.other, c.ID)
	assert.Equal(t, course.ErrNotFoundOrNotOwner, err)
	_, err = f.svc.GetOwned(ctx, f.lecturer, 999)
	assert.Equal(t, course.ErrNotFoundOrNotOwner, err)

	orig, err := f.svc.GetOwned(ctx, f.lecturer, c.ID)
	require.NoError(t, err)
	updated, err := f.svc.Update(ctx, orig, course.UpdateCourse{Title: "Advanced Algorithms", Credits: 4, Syllabus: "uploads/s.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "Advanced Algorithms", updated.Title)
	assert.Equal(t, 4, updated.Credits)
	assert.Equal(t, "uploads/s.pdf", updated.Syllabus.String)

	assert.Equal(t, []string{
		"New course created: Algorithms",
		"Course updated: Advanced Algorithms",
	}, f.notifier.Messages())
}

func TestService_EnrollAndDrop(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.repo, "Algorithms", 3, f.lecturer)

	_, err := f.svc.Enroll(ctx, f.student, 999)
	assert.True(t, core.IsNotFound(err))

	e, err := f.svc.Enroll(ctx, f.student, c.ID)
	require.NoError(t, err)
	assert.Equal(t, course.StatusPending, e.Status)

	_, err = f.svc.Enroll(ctx, f.student, c.ID)
	assert.Equal(t, course.ErrAlreadyEnrolled, err)

	require.NoError(t, f.svc.Drop(ctx, f.student, c.ID))
	err = f.svc.Drop(ctx, f.student, c.ID)
	assert.True(t, core.IsNotFound(err))

	assert.Equal(t, []string{
		"Enrollment pending for course 1",
		"Dropped course 1",
	}, f.notifier.Messages())
}

func TestService_DecideEnrollment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.repo, "Algorithms", 3, f.lecturer)
	e := testutil.CreateEnrollment(t, f.repo, c, f.student, course.StatusPending)

	tests := []struct {
		name       string
		actor      user.User
		status     string
		wantErr    error
		wantStatus string
	}{
		{name: "not owner", actor: f.other, status: course.StatusApproved, wantErr: course.ErrNotCourseLecturer, wantStatus: course.StatusPending},
		{name: "owner rejects", actor: f.lecturer, status: course.StatusRejected, wantStatus: course.StatusRejected},
		{name: "admin approves", actor: f.admin, status: course.StatusApproved, wantStatus: course.StatusApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.mailSvc.Reset()

			_, err := f.svc.DecideEnrollment(ctx, tt.actor, e.ID, course.EnrollmentDecision{Status: tt.status})
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Empty(t, f.mailSvc.SentMessages())
			} else {
				require.NoError(t, err)
				msgs := f.mailSvc.SentMessages()
				require.Len(t, msgs, 1)
				assert.Equal(t, f.student.Email, msgs[0].To[0].Address)
				assert.Contains(t, msgs[0].Subject, tt.status)
			}

			got, err := f.svc.GetEnrollment(ctx, c.ID, f.student.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}

	_, err := f.svc.DecideEnrollment(ctx, f.lecturer, 999, course.EnrollmentDecision{Status: course.StatusApproved})
	assert.True(t, core.IsNotFound(err))
}

func TestService_CourseEnrollments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := testutil.CreateCourse(t, f.repo, "Algorithms", 3, f.lecturer)
	testutil.CreateEnrollment(t, f.repo, c, f.student, course.StatusPending)

	_, err := f.svc.CourseEnrollments(ctx, f.other, c.ID)
	assert.Equal(t, course.ErrNotCourseLecturer, err)

	for _, actor := range []user.User{f.lecturer, f.admin} {
		enrollments, err := f.svc.CourseEnrollments(ctx, actor, c.ID)
		require.NoError(t, err)
		require.Len(t, enrollments, 1)
		assert.Equal(t, f.student.ID, enrollments[0].StudentID)
	}

	count, err := f.svc.CountEnrollments(ctx, course.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
