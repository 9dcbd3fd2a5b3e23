package assignment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/user"
	emailsvc "github.com/Iamayomi/academic-management-platform/services/email"
	inmemdb "github.com/Iamayomi/academic-management-platform/storage/database/inmem"
	testutil "github.com/Iamayomi/academic-management-platform/tests"
)

type fixture struct {
	svc        assignment.Service
	repo       assignment.Repository
	courseRepo course.Repository
	notifier   *testutil.Publisher

	lecturer, other, student, outsider, admin user.User
	algo, networks                            course.Course
}

func setup(t *testing.T) fixture {
	conf := testutil.NewConfig()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	f := fixture{
		repo:       inmemdb.NewAssignmentRepository(db),
		courseRepo: inmemdb.NewCourseRepository(db),
		notifier:   new(testutil.Publisher),
	}
	courseSvc := course.NewService(f.courseRepo, user.NewService(usrRepo, mailSvc), mailSvc, f.notifier)
	f.svc = assignment.NewService(f.repo, courseSvc, f.notifier)

	f.lecturer = testutil.CreateUser(t, usrRepo, "Lecturer", "lecturer@example.com", "", user.RoleLecturer, true)
	f.other = testutil.CreateUser(t, usrRepo, "Other", "other@example.com", "", user.RoleLecturer, true)
	f.student = testutil.CreateUser(t, usrRepo, "Student", "student@example.com", "", user.RoleStudent, true)
	f.outsider = testutil.CreateUser(t, usrRepo, "Outsider", "outsider@example.com", "", user.RoleStudent, true)
	f.admin = testutil.CreateUser(t, usrRepo, "Admin", "admin@example.com", "", user.RoleAdmin, true)

	f.algo = testutil.CreateCourse(t, f.courseRepo, "Algorithms", 3, f.lecturer)
	f.networks = testutil.CreateCourse(t, f.courseRepo, "Networks", 2, f.other)
	testutil.CreateEnrollment(t, f.courseRepo, f.algo, f.student, course.StatusApproved)
	testutil.CreateEnrollment(t, f.courseRepo, f.networks, f.outsider, course.StatusRejected)
	return f
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.lecturer, assignment.NewAssignment{CourseID: 999})
	assert.Equal(t, assignment.ErrCourseNotFound, err)
	_, err = f.svc.Create(ctx, f.other, assignment.NewAssignment{CourseID: f.algo.ID})
	assert.Equal(t, assignment.ErrNotCourseLecturer, err)

	a, err := f.svc.Create(ctx, f.lecturer, assignment.NewAssignment{CourseID: f.algo.ID, File: "uploads/a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, f.algo.ID, a.CourseID)
	assert.Equal(t, "uploads/a.pdf", a.File.String)
	assert.False(t, a.IsSubmitted())

	a, err = f.svc.Create(ctx, f.lecturer, assignment.NewAssignment{CourseID: f.algo.ID})
	require.NoError(t, err)
	assert.False(t, a.File.Valid)

	assert.Len(t, f.notifier.Messages(), 2)
	assert.Equal(t, "New assignment created for course 1", f.notifier.Messages()[0])
}

func TestService_SubmitAndGrade(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := testutil.CreateAssignment(t, f.repo, f.algo, user.User{}, nil)
	other := testutil.CreateAssignment(t, f.repo, f.networks, user.User{}, nil)

	_, err := f.svc.Grade(ctx, f.lecturer, assignment.GradeRequest{AssignmentID: a.ID, Grade: testutil.Float64Ptr(80)})
	assert.Equal(t, assignment.ErrNotSubmitted, err)

	_, err = f.svc.Submit(ctx, f.student, assignment.Submission{AssignmentID: other.ID, File: "uploads/x.txt"})
	assert.Equal(t, assignment.ErrNotEnrolled, err)
	_, err = f.svc.Submit(ctx, f.outsider, assignment.Submission{AssignmentID: other.ID, File: "uploads/x.txt"})
	assert.Equal(t, assignment.ErrNotEnrolled, err)
	_, err = f.svc.Submit(ctx, f.student, assignment.Submission{AssignmentID: 999})
	assert.True(t, core.IsNotFound(err))

	sub, err := f.svc.Submit(ctx, f.student, assignment.Submission{AssignmentID: a.ID, File: "uploads/answer.txt"})
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, sub.StudentID.Int)
	assert.Equal(t, "uploads/answer.txt", sub.File.String)

	_, err = f.svc.Grade(ctx, f.other, assignment.GradeRequest{AssignmentID: a.ID, Grade: testutil.Float64Ptr(80)})
	assert.Equal(t, assignment.ErrCannotGrade, err)

	graded, err := f.svc.Grade(ctx, f.lecturer, assignment.GradeRequest{AssignmentID: a.ID, Grade: testutil.Float64Ptr(72.5)})
	require.NoError(t, err)
	assert.Equal(t, 72.5, graded.Grade.Float64)

	avg, err := f.svc.AverageGrade(ctx, f.algo.ID, f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 72.5, avg.Float64)

	// resubmitting clears the grade
	sub, err = f.svc.Submit(ctx, f.student, assignment.Submission{AssignmentID: a.ID, File: "uploads/answer2.txt"})
	require.NoError(t, err)
	assert.False(t, sub.Grade.Valid)

	assert.Contains(t, f.notifier.Messages(), "Assignment 1 graded: 72.5")
}

func TestService_QueryFor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	open := testutil.CreateAssignment(t, f.repo, f.algo, user.User{}, nil)
	mine := testutil.CreateAssignment(t, f.repo, f.algo, f.student, nil)
	foreign := testutil.CreateAssignment(t, f.repo, f.networks, user.User{}, nil)

	ids := func(as []assignment.Assignment) []int {
		res := make([]int, 0, len(as))
		for _, a := range as {
			res = append(res, a.ID)
		}
		return res
	}

	tests := []struct {
		name  string
		actor user.User
		want  []int
	}{
		{name: "admin", actor: f.admin, want: []int{open.ID, mine.ID, foreign.ID}},
		{name: "lecturer", actor: f.lecturer, want: []int{open.ID, mine.ID}},
		{name: "other lecturer", actor: f.other, want: []int{foreign.ID}},
		{name: "student", actor: f.student, want: []int{open.ID, mine.ID}},
		{name: "rejected student", actor: f.outsider, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.QueryFor(ctx, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestService_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a1 := testutil.CreateAssignment(t, f.repo, f.algo, user.User{}, nil)
	a2 := testutil.CreateAssignment(t, f.repo, f.algo, user.User{}, nil)

	assert.Equal(t, assignment.ErrCannotDelete, f.svc.Delete(ctx, f.other, a1.ID))
	require.NoError(t, f.svc.Delete(ctx, f.lecturer, a1.ID))
	require.NoError(t, f.svc.Delete(ctx, f.admin, a2.ID))
	assert.True(t, core.IsNotFound(f.svc.Delete(ctx, f.admin, a2.ID)))

	all, err := f.svc.Query(ctx, assignment.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
