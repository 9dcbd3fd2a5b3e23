// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/mail"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/user"
	"github.com/Iamayomi/academic-management-platform/services/logger"
	"github.com/Iamayomi/academic-management-platform/storage/database"
)

var dbCount int64

// UnusablePasswordHash is stored for users created without a password; no password matches it.
var UnusablePasswordHash = []byte("!")

// NewConfig returns a TEST configuration that does not depend on the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Env:              "TEST",
		Build:            "test",
		TestMode:         true,
		AppName:          "Academic Management Platform",
		SecretKey:        "test-secret-key",
		DefaultFromEmail: mail.Address{Name: "Academic Management Platform", Address: "noreply@test.local"},
		FrontendBaseURL:  "http://localhost:3000",
		Server: core.ServerConfig{
			Host:                      "localhost",
			APIPrefix:                 "/api/v1",
			AllowedOrigins:            []string{"http://localhost:3000"},
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        30 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			DisableReqLogs:            true,
		},
		Database: core.DatabaseConfig{Engine: database.EngineSQLite, Name: "academia_test"},
		Uploads:  core.UploadsConfig{Dir: "uploads", MaxSize: "10M"},
		AI:       core.AIConfig{Timeout: time.Second},
	}
}

// NewLogger returns a logger that neither prints nor reports.
func NewLogger(conf *core.Config) core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", 0), conf)
	l.Enable(false)
	return l
}

// PrepareDB opens a fresh, migrated in-memory sqlite database that is closed when t ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conf := NewConfig()
	conf.Database.URL = fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbCount, 1))

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("database.Open(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("database.Migrate(): %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	} else {
		usr.PasswordHash = UnusablePasswordHash
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo course.Repository, title string, credits int, lecturer user.User) course.Course {
	t.Helper()

	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Title:      title,
		Credits:    credits,
		LecturerID: lecturer.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}

func CreateEnrollment(t *testing.T, repo course.Repository, c course.Course, student user.User, status string) course.Enrollment {
	t.Helper()

	now := time.Now().UTC()
	e, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		CourseID:  c.ID,
		StudentID: student.ID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createEnrollment() failed: %v", err)
	}
	return e
}

// CreateAssignment creates an assignment of c; a non-zero student marks it as submitted
// and a non-nil grade as graded.
func CreateAssignment(
	t *testing.T,
	repo assignment.Repository,
	c course.Course,
	student user.User,
	grade *float64,
) assignment.Assignment {
	t.Helper()

	now := time.Now().UTC()
	a := assignment.Assignment{
		CourseID:  c.ID,
		File:      null.StringFrom("uploads/assignment.txt"),
		Grade:     null.Float64FromPtr(grade),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if student.ID != 0 {
		a.StudentID = null.IntFrom(student.ID)
	}
	a, err := repo.CreateAssignment(context.Background(), a)
	if err != nil {
		t.Fatalf("createAssignment() failed: %v", err)
	}
	return a
}

func Float64Ptr(f float64) *float64 { return &f }

// Publisher records the notifications it is given.
type Publisher struct {
	mu   sync.Mutex
	msgs []string
}

func (p *Publisher) Notify(_ context.Context, message string) {
	p.mu.Lock()
	p.msgs = append(p.msgs, message)
	p.mu.Unlock()
}

func (p *Publisher) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.msgs...)
}
