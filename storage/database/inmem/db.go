// Package inmemdb keeps the repositories in process memory. Data is lost on exit.
package inmemdb

import (
	"sort"
	"sync"

	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

type (
	table[T any] struct {
		rows   map[int]*T
		lastPK int
	}

	// DB guards all its tables with a single lock so that references can be checked across tables.
	DB struct {
		mu          sync.RWMutex
		users       *table[user.User]
		courses     *table[course.Course]
		enrollments *table[course.Enrollment]
		assignments *table[assignment.Assignment]
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int]*T)}
}

func (t *table[T]) nextPK() int {
	t.lastPK++
	return t.lastPK
}

// put stores a copy of row.
func (t *table[T]) put(id int, row T) {
	t.rows[id] = &row
}

// list returns copies of the rows matching keep, ordered by primary key.
func (t *table[T]) list(keep func(*T) bool) []T {
	ids := make([]int, 0, len(t.rows))
	for id, row := range t.rows {
		if keep == nil || keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	rows := make([]T, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, *t.rows[id])
	}
	return rows
}

func Open() *DB {
	return &DB{
		users:       newTable[user.User](),
		courses:     newTable[course.Course](),
		enrollments: newTable[course.Enrollment](),
		assignments: newTable[assignment.Assignment](),
	}
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
