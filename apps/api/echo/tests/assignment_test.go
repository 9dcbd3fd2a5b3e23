package tests

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Iamayomi/academic-management-platform/apps/api/echo"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/user"
	testutil "github.com/Iamayomi/academic-management-platform/tests"
)

func Test_assignmentApi_create(t *testing.T) {
	app := setup(t)

	owner := app.createUser(t, "Owner", "owner@test.cd", user.RoleLecturer)
	other := app.createUser(t, "Other", "other@test.cd", user.RoleLecturer)
	student := app.createUser(t, "Student", "student@test.cd", user.RoleStudent)
	c := testutil.CreateCourse(t, app.courseRepo, "Algorithms", 4, owner)

	body := func(courseID int, text string) []byte {
		return marshalObj(t, map[string]interface{}{"courseId": courseID, "text": text})
	}

	tests := []httpTest{
		{name: "lecturer required", body: body(c.ID, "lol"), token: app.token(t, student), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{
			name: "missing course", body: []byte(`{"text": "lol"}`), token: app.token(t, owner),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"courseId": "this field is required"}),
		},
		{name: "unknown course", body: body(999, "lol"), token: app.token(t, owner), wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "course not found"})},
		{
			name: "not course lecturer", body: body(c.ID, "lol"), token: app.token(t, other),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "only the course lecturer can create assignments"}),
		},
		{name: "text assignment", body: body(c.ID, " Read chapter 1 "), token: app.token(t, owner), wantCode: http.StatusCreated, extra: "Read chapter 1"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/v1/assignments", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			text, ok := tt.extra.(string)
			if !ok {
				return
			}
			var a assignment.Assignment
			unmarshalBody(t, rec, &a)
			assert.Equal(t, c.ID, a.CourseID)
			assert.False(t, a.StudentID.Valid)
			assert.False(t, a.Grade.Valid)
			require.True(t, a.File.Valid)
			assert.True(t, strings.HasPrefix(filepath.Base(a.File.String), "text_"))

			saved, err := os.ReadFile(filepath.FromSlash(a.File.String))
			require.NoError(t, err)
			assert.Equal(t, text, string(saved))
		})
	}

	// uploaded file
	req, rec := newMultipartRequest(t, http.MethodPost, "/api/v1/assignments", app.token(t, owner),
		map[string]string{"courseId": fmt.Sprint(c.ID)}, "file", "homework.md", []byte("# Homework"))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var a assignment.Assignment
	unmarshalBody(t, rec, &a)
	assert.Equal(t, ".md", filepath.Ext(a.File.String))
	saved, err := os.ReadFile(filepath.FromSlash(a.File.String))
	require.NoError(t, err)
	assert.Equal(t, "# Homework", string(saved))

	// neither file nor text
	req, rec = newAuthRequest(http.MethodPost, "/api/v1/assignments", app.token(t, owner), body(c.ID, ""))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	unmarshalBody(t, rec, &a)
	assert.False(t, a.File.Valid)
}

func Test_assignmentApi_query(t *testing.T) {
	app := setup(t)

	owner := app.createUser(t, "Owner", "owner@test.cd", user.RoleLecturer)
	other := app.createUser(t, "Other", "other@test.cd", user.RoleLecturer)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	student := app.createUser(t, "Student", "student@test.cd", user.RoleStudent)
	peer := app.createUser(t, "Peer", "peer@test.cd", user.RoleStudent)

	algo := testutil.CreateCourse(t, app.courseRepo, "Algorithms", 4, owner)
	bio := testutil.CreateCourse(t, app.courseRepo, "Biology", 2, other)
	chem := testutil.CreateCourse(t, app.courseRepo, "Chemistry", 3, other)
	testutil.CreateEnrollment(t, app.courseRepo, algo, student, course.StatusPending)
	testutil.CreateEnrollment(t, app.courseRepo, chem, student, course.StatusRejected)

	a1 := testutil.CreateAssignment(t, app.assignmentRepo, algo, user.User{}, nil)    // open, enrolled course
	a2 := testutil.CreateAssignment(t, app.assignmentRepo, algo, peer, nil)           // taken by peer
	a3 := testutil.CreateAssignment(t, app.assignmentRepo, bio, student, nil)         // own submission
	a4 := testutil.CreateAssignment(t, app.assignmentRepo, bio, user.User{}, nil)     // open, not enrolled
	a5 := testutil.CreateAssignment(t, app.assignmentRepo, chem, user.User{}, nil)    // open, rejected
	a6 := testutil.CreateAssignment(t, app.assignmentRepo, algo, student, testutil.Float64Ptr(50))

	tests := []httpTest{
		{name: "auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "admin", token: app.token(t, admin), wantCode: http.StatusOK, wantData: marshalList(t, a1, a2, a3, a4, a5, a6)},
		{name: "owner", token: app.token(t, owner), wantCode: http.StatusOK, wantData: marshalList(t, a1, a2, a6)},
		{name: "other lecturer", token: app.token(t, other), wantCode: http.StatusOK, wantData: marshalList(t, a3, a4, a5)},
		{name: "student", token: app.token(t, student), wantCode: http.StatusOK, wantData: marshalList(t, a1, a3, a6)},
		{
			name: "lecturer without courses", token: app.token(t, app.createUser(t, "New", "new@test.cd", user.RoleLecturer)),
			wantCode: http.StatusOK, wantData: marshalList(t),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/v1/assignments", tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_submit(t *testing.T) {
	app := setup(t)

	lecturer := app.createUser(t, "Lecturer", "lecturer@test.cd", user.RoleLecturer)
	student := app.createUser(t, "Student", "student@test.cd", user.RoleStudent)
	peer := app.createUser(t, "Peer", "peer@test.cd", user.RoleStudent)
	outsider := app.createUser(t, "Outsider", "outsider@test.cd", user.RoleStudent)
	rejected := app.createUser(t, "Rejected", "rejected@test.cd", user.RoleStudent)

	c := testutil.CreateCourse(t, app.courseRepo, "Algorithms", 4, lecturer)
	testutil.CreateEnrollment(t, app.courseRepo, c, student, course.StatusPending)
	testutil.CreateEnrollment(t, app.courseRepo, c, peer, course.StatusApproved)
	testutil.CreateEnrollment(t, app.courseRepo, c, rejected, course.StatusRejected)

	open := testutil.CreateAssignment(t, app.assignmentRepo, c, user.User{}, nil)
	taken := testutil.CreateAssignment(t, app.assignmentRepo, c, peer, nil)
	graded := testutil.CreateAssignment(t, app.assignmentRepo, c, student, testutil.Float64Ptr(60))

	body := func(id int, text string) []byte {
		return marshalObj(t, map[string]interface{}{"assignmentId": id, "text": text})
	}
	notEnrolled := marshalObj(t, httpErr{Error: "student not enrolled in course"})

	tests := []httpTest{
		{name: "student required", body: body(open.ID, "answer"), token: app.token(t, lecturer), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{
			name: "missing assignment", body: []byte(`{}`), token: app.token(t, student),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"assignmentId": "this field is required"}),
		},
		{name: "unknown assignment", body: body(999, "answer"), token: app.token(t, student), wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "assignment not found"})},
		{name: "not enrolled", body: body(open.ID, "answer"), token: app.token(t, outsider), wantCode: http.StatusForbidden, wantData: notEnrolled},
		{name: "enrollment rejected", body: body(open.ID, "answer"), token: app.token(t, rejected), wantCode: http.StatusForbidden, wantData: notEnrolled},
		{
			name: "taken by another student", body: body(taken.ID, "answer"), token: app.token(t, student),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "assignment already submitted by another student"}),
		},
		{name: "submit open assignment", body: body(open.ID, "my answer"), token: app.token(t, student), wantCode: http.StatusOK, extra: open.ID},
		{name: "resubmit clears grade", body: body(graded.ID, "better answer"), token: app.token(t, student), wantCode: http.StatusOK, extra: graded.ID},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/api/v1/assignments/submit", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if id, ok := tt.extra.(int); ok {
				a, err := app.assignmentRepo.GetAssignmentByID(context.Background(), id)
				require.NoError(t, err)
				assert.Equal(t, student.ID, a.StudentID.Int)
				assert.False(t, a.Grade.Valid)
				require.True(t, a.File.Valid)
				tt.wantData = marshalObj(t, a)
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_grade(t *testing.T) {
	app := setup(t)

	owner := app.createUser(t, "Owner", "owner@test.cd", user.RoleLecturer)
	other := app.createUser(t, "Other", "other@test.cd", user.RoleLecturer)
	student := app.createUser(t, "Student", "student@test.cd", user.RoleStudent)
	c := testutil.CreateCourse(t, app.courseRepo, "Algorithms", 4, owner)

	open := testutil.CreateAssignment(t, app.assignmentRepo, c, user.User{}, nil)
	submitted := testutil.CreateAssignment(t, app.assignmentRepo, c, student, nil)

	body := func(id int, grade interface{}) []byte {
		return marshalObj(t, map[string]interface{}{"assignmentId": id, "grade": grade})
	}

	tests := []httpTest{
		{name: "lecturer required", body: body(submitted.ID, 80), token: app.token(t, student), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{
			name: "missing grade", body: body(submitted.ID, nil), token: app.token(t, owner),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"grade": "this field is required"}),
		},
		{
			name: "grade out of range", body: body(submitted.ID, 101), token: app.token(t, owner),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"grade": "grade must be 100 or less"}),
		},
		{name: "unknown assignment", body: body(999, 80), token: app.token(t, owner), wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "assignment not found"})},
		{
			name: "not course lecturer", body: body(submitted.ID, 80), token: app.token(t, other),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "only the course lecturer can grade assignments"}),
		},
		{
			name: "not submitted", body: body(open.ID, 80), token: app.token(t, owner),
			wantCode: http.StatusBadRequest, wantData: marshalObj(t, httpErr{Error: "assignment has not been submitted yet"}),
		},
		{name: "zero grade", body: body(submitted.ID, 0), token: app.token(t, owner), wantCode: http.StatusOK, extra: 0.0},
		{name: "grade", body: body(submitted.ID, 87.5), token: app.token(t, owner), wantCode: http.StatusOK, extra: 87.5},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/api/v1/assignments/grade", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if grade, ok := tt.extra.(float64); ok {
				tt.wantData = marshalObj(t, MessageResponse{Message: "Assignment graded"})
				a, err := app.assignmentRepo.GetAssignmentByID(context.Background(), submitted.ID)
				require.NoError(t, err)
				require.True(t, a.Grade.Valid)
				assert.Equal(t, grade, a.Grade.Float64)
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assignmentApi_delete(t *testing.T) {
	app := setup(t)

	owner := app.createUser(t, "Owner", "owner@test.cd", user.RoleLecturer)
	other := app.createUser(t, "Other", "other@test.cd", user.RoleLecturer)
	admin := app.createUser(t, "Admin", "admin@test.cd", user.RoleAdmin)
	student := app.createUser(t, "Student", "student@test.cd", user.RoleStudent)
	c := testutil.CreateCourse(t, app.courseRepo, "Algorithms", 4, owner)

	a1 := testutil.CreateAssignment(t, app.assignmentRepo, c, user.User{}, nil)
	a2 := testutil.CreateAssignment(t, app.assignmentRepo, c, student, nil)

	path := func(id int) string { return fmt.Sprintf("/api/v1/assignments/%d", id) }
	deleted := marshalObj(t, MessageResponse{Message: "Assignment deleted successfully"})
	notFound := marshalObj(t, httpErr{Error: "assignment not found"})

	tests := []httpTest{
		{name: "student forbidden", path: path(a1.ID), token: app.token(t, student), wantCode: http.StatusForbidden, wantData: marshalObj(t, errForbidden)},
		{
			name: "not course lecturer", path: path(a1.ID), token: app.token(t, other),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "only the course lecturer or an admin can delete assignments"}),
		},
		{name: "invalid id", path: "/api/v1/assignments/lol", token: app.token(t, owner), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "owner", path: path(a1.ID), token: app.token(t, owner), wantCode: http.StatusOK, wantData: deleted},
		{name: "already deleted", path: path(a1.ID), token: app.token(t, owner), wantCode: http.StatusNotFound, wantData: notFound},
		{name: "admin", path: path(a2.ID), token: app.token(t, admin), wantCode: http.StatusOK, wantData: deleted},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	remaining, err := app.assignmentRepo.QueryAssignments(context.Background(), assignment.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
