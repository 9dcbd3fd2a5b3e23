package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses.rows[a.CourseID]; !ok {
		return assignment.Assignment{}, core.ErrInvalidReference
	}
	a.ID = repo.db.assignments.nextPK()
	repo.db.assignments.put(a.ID, a)
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id int) (assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.assignments.rows[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.assignments.list(func(a *assignment.Assignment) bool {
		if filter.CourseIDs != nil && !containsInt(filter.CourseIDs, a.CourseID) {
			return false
		}
		if filter.SubmittedBy != 0 && !(a.StudentID.Valid && a.StudentID.Int == filter.SubmittedBy) {
			return false
		}
		if filter.OpenOnly && a.StudentID.Valid {
			return false
		}
		if filter.UngradedOnly && (!a.StudentID.Valid || a.Grade.Valid) {
			return false
		}
		return true
	}), nil
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments.rows[a.ID]; !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	if a.StudentID.Valid {
		if _, ok := repo.db.users.rows[a.StudentID.Int]; !ok {
			return assignment.Assignment{}, core.ErrInvalidReference
		}
	}
	repo.db.assignments.put(a.ID, a)
	return a, nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.assignments.rows[id]; !ok {
		return assignment.ErrNotFound
	}
	delete(repo.db.assignments.rows, id)
	return nil
}

func (repo *assignmentRepository) AverageGrade(_ context.Context, courseID, studentID int) (null.Float64, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var sum float64
	var n int
	for _, a := range repo.db.assignments.rows {
		if a.CourseID == courseID && a.StudentID.Valid && a.StudentID.Int == studentID && a.Grade.Valid {
			sum += a.Grade.Float64
			n++
		}
	}
	if n == 0 {
		return null.Float64{}, nil
	}
	return null.Float64From(sum / float64(n)), nil
}
