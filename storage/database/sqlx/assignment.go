package sqlxrepos

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/storage/database"
)

const assignmentColumns = "id, course_id, student_id, file, grade, created_at, updated_at"

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) assignment.Repository {
	return &assignmentRepository{exec: exec}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	q := repo.exec.Rebind(`INSERT INTO assignments (course_id, student_id, file, grade, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := repo.exec.GetContext(ctx, &a.ID, q,
		a.CourseID, a.StudentID, a.File, a.Grade, a.CreatedAt.UTC(), a.UpdatedAt.UTC()); err != nil {
		return assignment.Assignment{}, database.TrapError(err, nil, "inserting assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id int) (assignment.Assignment, error) {
	var a assignment.Assignment
	q := repo.exec.Rebind("SELECT " + assignmentColumns + " FROM assignments WHERE id = ?")
	if err := repo.exec.GetContext(ctx, &a, q, id); err != nil {
		return assignment.Assignment{}, database.TrapError(err, assignment.ErrNotFound, "finding assignment by ID")
	}
	return a, nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var where whereClause
	if filter.CourseIDs != nil {
		where.addIn("course_id", filter.CourseIDs, len(filter.CourseIDs) == 0)
	}
	if filter.SubmittedBy != 0 {
		where.add("student_id = ?", filter.SubmittedBy)
	}
	if filter.OpenOnly {
		where.add("student_id IS NULL")
	}
	if filter.UngradedOnly {
		where.add("student_id IS NOT NULL AND grade IS NULL")
	}

	assignments := make([]assignment.Assignment, 0)
	q := "SELECT " + assignmentColumns + " FROM assignments" + where.String() + " ORDER BY id ASC"
	if err := selectQuery(ctx, repo.exec, &assignments, q, where.args...); err != nil {
		return nil, database.TrapError(err, nil, "querying assignments")
	}
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	err := execAffecting(ctx, repo.exec, assignment.ErrNotFound,
		"UPDATE assignments SET student_id = ?, file = ?, grade = ?, updated_at = ? WHERE id = ?",
		a.StudentID, a.File, a.Grade, a.UpdatedAt.UTC(), a.ID)
	if err != nil {
		return assignment.Assignment{}, database.TrapError(err, assignment.ErrNotFound, "updating assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id int) error {
	err := execAffecting(ctx, repo.exec, assignment.ErrNotFound, "DELETE FROM assignments WHERE id = ?", id)
	return database.TrapError(err, assignment.ErrNotFound, "deleting assignment")
}

func (repo *assignmentRepository) AverageGrade(ctx context.Context, courseID, studentID int) (null.Float64, error) {
	var avg null.Float64
	q := repo.exec.Rebind("SELECT AVG(grade) FROM assignments WHERE course_id = ? AND student_id = ? AND grade IS NOT NULL")
	if err := repo.exec.GetContext(ctx, &avg, q, courseID, studentID); err != nil {
		return null.Float64{}, database.TrapError(err, nil, "averaging grades")
	}
	return avg, nil
}
