package sqlxrepos

import (
	"context"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/storage/database"
)

const (
	courseColumns     = "id, title, credits, lecturer_id, syllabus, created_at, updated_at"
	enrollmentColumns = "id, course_id, student_id, status, created_at, updated_at"
)

var courseOrderColumns = map[string]string{
	"id":         "id",
	"title":      "title",
	"credits":    "credits",
	"lecturerId": "lecturer_id",
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
}

type courseRepository struct {
	exec core.DBExecutor
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(exec core.DBExecutor) course.Repository {
	return &courseRepository{exec: exec}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := repo.exec.Rebind(`INSERT INTO courses (title, credits, lecturer_id, syllabus, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	if err := repo.exec.GetContext(ctx, &c.ID, q,
		c.Title, c.Credits, c.LecturerID, c.Syllabus, c.CreatedAt.UTC(), c.UpdatedAt.UTC()); err != nil {
		return course.Course{}, database.TrapError(err, nil, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id int) (course.Course, error) {
	var c course.Course
	q := repo.exec.Rebind("SELECT " + courseColumns + " FROM courses WHERE id = ?")
	if err := repo.exec.GetContext(ctx, &c, q, id); err != nil {
		return course.Course{}, database.TrapError(err, course.ErrNotFound, "finding course by ID")
	}
	return c, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var where whereClause
	if filter != nil {
		if filter.LecturerID != 0 {
			where.add("lecturer_id = ?", filter.LecturerID)
		}
		if filter.IDs != nil {
			where.addIn("id", filter.IDs, len(filter.IDs) == 0)
		}
	}

	q := "SELECT " + courseColumns + " FROM courses" + where.String() +
		" ORDER BY " + core.OrderByClause(ordering, courseOrderColumns, "id ASC")

	courses := make([]course.Course, 0)
	if err := selectQuery(ctx, repo.exec, &courses, q, where.args...); err != nil {
		return nil, database.TrapError(err, nil, "querying courses")
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	err := execAffecting(ctx, repo.exec, course.ErrNotFound,
		"UPDATE courses SET title = ?, credits = ?, syllabus = ?, updated_at = ? WHERE id = ?",
		c.Title, c.Credits, c.Syllabus, c.UpdatedAt.UTC(), c.ID)
	if err != nil {
		return course.Course{}, database.TrapError(err, course.ErrNotFound, "updating course")
	}
	return c, nil
}

func (repo *courseRepository) CountCourses(ctx context.Context) (int, error) {
	var count int
	if err := repo.exec.GetContext(ctx, &count, "SELECT COUNT(*) FROM courses"); err != nil {
		return 0, database.TrapError(err, nil, "counting courses")
	}
	return count, nil
}

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	q := repo.exec.Rebind(`INSERT INTO enrollments (course_id, student_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	if err := repo.exec.GetContext(ctx, &e.ID, q,
		e.CourseID, e.StudentID, e.Status, e.CreatedAt.UTC(), e.UpdatedAt.UTC()); err != nil {
		return course.Enrollment{}, database.TrapError(err, nil, "inserting enrollment")
	}
	return e, nil
}

func (repo *courseRepository) GetEnrollmentByID(ctx context.Context, id int) (course.Enrollment, error) {
	var e course.Enrollment
	q := repo.exec.Rebind("SELECT " + enrollmentColumns + " FROM enrollments WHERE id = ?")
	if err := repo.exec.GetContext(ctx, &e, q, id); err != nil {
		return course.Enrollment{}, database.TrapError(err, course.ErrEnrollmentNotFound, "finding enrollment by ID")
	}
	return e, nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, courseID, studentID int) (course.Enrollment, error) {
	var e course.Enrollment
	q := repo.exec.Rebind("SELECT " + enrollmentColumns + " FROM enrollments WHERE course_id = ? AND student_id = ?")
	if err := repo.exec.GetContext(ctx, &e, q, courseID, studentID); err != nil {
		return course.Enrollment{}, database.TrapError(err, course.ErrEnrollmentNotFound, "finding enrollment")
	}
	return e, nil
}

func (repo *courseRepository) QueryEnrollments(ctx context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	var where whereClause
	if filter.CourseID != 0 {
		where.add("course_id = ?", filter.CourseID)
	}
	if filter.StudentID != 0 {
		where.add("student_id = ?", filter.StudentID)
	}
	if len(filter.Statuses) > 0 {
		where.addIn("status", filter.Statuses, false)
	}

	enrollments := make([]course.Enrollment, 0)
	q := "SELECT " + enrollmentColumns + " FROM enrollments" + where.String() + " ORDER BY id ASC"
	if err := selectQuery(ctx, repo.exec, &enrollments, q, where.args...); err != nil {
		return nil, database.TrapError(err, nil, "querying enrollments")
	}
	return enrollments, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	err := execAffecting(ctx, repo.exec, course.ErrEnrollmentNotFound,
		"UPDATE enrollments SET status = ?, updated_at = ? WHERE id = ?",
		e.Status, e.UpdatedAt.UTC(), e.ID)
	if err != nil {
		return course.Enrollment{}, database.TrapError(err, course.ErrEnrollmentNotFound, "updating enrollment")
	}
	return e, nil
}

func (repo *courseRepository) DeleteEnrollment(ctx context.Context, id int) error {
	err := execAffecting(ctx, repo.exec, course.ErrEnrollmentNotFound, "DELETE FROM enrollments WHERE id = ?", id)
	return database.TrapError(err, course.ErrEnrollmentNotFound, "deleting enrollment")
}

func (repo *courseRepository) CountEnrollments(ctx context.Context, status string) (int, error) {
	var where whereClause
	if status != "" {
		where.add("status = ?", status)
	}
	var count int
	if err := getQuery(ctx, repo.exec, &count, "SELECT COUNT(*) FROM enrollments"+where.String(), where.args...); err != nil {
		return 0, database.TrapError(err, nil, "counting enrollments")
	}
	return count, nil
}
