package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users.rows[c.LecturerID]; !ok {
		return course.Course{}, core.ErrInvalidReference
	}
	c.ID = repo.db.courses.nextPK()
	repo.db.courses.put(c.ID, c)
	return c, nil
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id int) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses.rows[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := repo.db.courses.list(func(c *course.Course) bool {
		if filter == nil {
			return true
		}
		if filter.LecturerID != 0 && c.LecturerID != filter.LecturerID {
			return false
		}
		if filter.IDs != nil && !containsInt(filter.IDs, c.ID) {
			return false
		}
		return true
	})

	sort.SliceStable(courses, func(i, j int) bool {
		a, b := courses[i], courses[j]
		for _, ord := range ordering {
			var cmp int
			switch ord.Field {
			case "id":
				cmp = compareInts(a.ID, b.ID)
			case "title":
				cmp = strings.Compare(a.Title, b.Title)
			case "credits":
				cmp = compareInts(a.Credits, b.Credits)
			case "lecturerId":
				cmp = compareInts(a.LecturerID, b.LecturerID)
			case "createdAt":
				cmp = compareTimes(a.CreatedAt, b.CreatedAt)
			}
			if cmp != 0 {
				if ord.Ascending {
					return cmp < 0
				}
				return cmp > 0
			}
		}
		return false
	})
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses.rows[c.ID]; !ok {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses.put(c.ID, c)
	return c, nil
}

func (repo *courseRepository) CountCourses(_ context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.courses.rows), nil
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses.rows[e.CourseID]; !ok {
		return course.Enrollment{}, core.ErrInvalidReference
	}
	if _, ok := repo.db.users.rows[e.StudentID]; !ok {
		return course.Enrollment{}, core.ErrInvalidReference
	}
	for _, other := range repo.db.enrollments.rows {
		if other.CourseID == e.CourseID && other.StudentID == e.StudentID {
			return course.Enrollment{}, core.ErrDuplicateRecord
		}
	}
	e.ID = repo.db.enrollments.nextPK()
	repo.db.enrollments.put(e.ID, e)
	return e, nil
}

func (repo *courseRepository) GetEnrollmentByID(_ context.Context, id int) (course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.db.enrollments.rows[id]; ok {
		return *e, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) GetEnrollment(_ context.Context, courseID, studentID int) (course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, e := range repo.db.enrollments.rows {
		if e.CourseID == courseID && e.StudentID == studentID {
			return *e, nil
		}
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) QueryEnrollments(_ context.Context, filter course.EnrollmentFilter) ([]course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.enrollments.list(func(e *course.Enrollment) bool {
		if filter.CourseID != 0 && e.CourseID != filter.CourseID {
			return false
		}
		if filter.StudentID != 0 && e.StudentID != filter.StudentID {
			return false
		}
		if len(filter.Statuses) > 0 && !containsString(filter.Statuses, e.Status) {
			return false
		}
		return true
	}), nil
}

func (repo *courseRepository) UpdateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.enrollments.rows[e.ID]; !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	repo.db.enrollments.put(e.ID, e)
	return e, nil
}

func (repo *courseRepository) DeleteEnrollment(_ context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.enrollments.rows[id]; !ok {
		return course.ErrEnrollmentNotFound
	}
	delete(repo.db.enrollments.rows, id)
	return nil
}

func (repo *courseRepository) CountEnrollments(_ context.Context, status string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, e := range repo.db.enrollments.rows {
		if status == "" || e.Status == status {
			count++
		}
	}
	return count, nil
}
