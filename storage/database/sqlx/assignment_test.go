package sqlxrepos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/user"
	"github.com/Iamayomi/academic-management-platform/tests"
)

func TestAssignmentRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	usrRepo := NewUserRepository(db)
	courseRepo := NewCourseRepository(db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	lect := testutil.CreateUser(t, usrRepo, "Lect", "lect@test.cd", "", user.RoleLecturer, true)
	stud := testutil.CreateUser(t, usrRepo, "Stud", "stud@test.cd", "", user.RoleStudent, true)
	c1 := testutil.CreateCourse(t, courseRepo, "Algorithms", 6, lect)
	c2 := testutil.CreateCourse(t, courseRepo, "Databases", 3, lect)

	open := testutil.CreateAssignment(t, repo, c1, user.User{}, nil)
	ungraded := testutil.CreateAssignment(t, repo, c1, stud, nil)
	graded1 := testutil.CreateAssignment(t, repo, c1, stud, testutil.Float64Ptr(70))
	graded2 := testutil.CreateAssignment(t, repo, c1, stud, testutil.Float64Ptr(85))
	other := testutil.CreateAssignment(t, repo, c2, stud, testutil.Float64Ptr(40))

	got, err := repo.GetAssignmentByID(ctx, ungraded.ID)
	require.NoError(t, err)
	assert.Equal(t, null.IntFrom(stud.ID), got.StudentID)
	assert.False(t, got.Grade.Valid)
	assert.True(t, got.IsSubmitted())

	_, err = repo.GetAssignmentByID(ctx, 999)
	assert.Equal(t, assignment.ErrNotFound, err)

	ids := func(as []assignment.Assignment) []int {
		res := make([]int, 0, len(as))
		for _, a := range as {
			res = append(res, a.ID)
		}
		return res
	}
	tests := []struct {
		name   string
		filter assignment.QueryFilter
		want   []int
	}{
		{name: "all", want: []int{open.ID, ungraded.ID, graded1.ID, graded2.ID, other.ID}},
		{name: "by course", filter: assignment.QueryFilter{CourseIDs: []int{c2.ID}}, want: []int{other.ID}},
		{name: "no course", filter: assignment.QueryFilter{CourseIDs: []int{}}, want: []int{}},
		{name: "open", filter: assignment.QueryFilter{OpenOnly: true}, want: []int{open.ID}},
		{name: "ungraded", filter: assignment.QueryFilter{UngradedOnly: true}, want: []int{ungraded.ID}},
		{
			name:   "submitted by",
			filter: assignment.QueryFilter{SubmittedBy: stud.ID, CourseIDs: []int{c1.ID}},
			want:   []int{ungraded.ID, graded1.ID, graded2.ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as, err := repo.QueryAssignments(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(as))
		})
	}

	avg, err := repo.AverageGrade(ctx, c1.ID, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, null.Float64From(77.5), avg)

	avg, err = repo.AverageGrade(ctx, c2.ID, lect.ID)
	require.NoError(t, err)
	assert.False(t, avg.Valid)

	open.StudentID = null.IntFrom(stud.ID)
	open.Grade = null.Float64From(100)
	_, err = repo.UpdateAssignment(ctx, open)
	require.NoError(t, err)

	open.Grade = null.Float64From(101)
	_, err = repo.UpdateAssignment(ctx, open)
	assert.Equal(t, core.ErrMissingValue, err)

	require.NoError(t, repo.DeleteAssignment(ctx, other.ID))
	assert.Equal(t, assignment.ErrNotFound, repo.DeleteAssignment(ctx, other.ID))
}
