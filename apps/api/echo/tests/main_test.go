package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Iamayomi/academic-management-platform/apps/api/echo"
	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/ai"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/dashboard"
	"github.com/Iamayomi/academic-management-platform/core/notification"
	"github.com/Iamayomi/academic-management-platform/core/user"
	aisvc "github.com/Iamayomi/academic-management-platform/services/ai"
	emailsvc "github.com/Iamayomi/academic-management-platform/services/email"
	"github.com/Iamayomi/academic-management-platform/services/pubsub"
	storagesvc "github.com/Iamayomi/academic-management-platform/services/storage"
	inmemdb "github.com/Iamayomi/academic-management-platform/storage/database/inmem"
	testutil "github.com/Iamayomi/academic-management-platform/tests"
)

type testApp struct {
	conf           *core.Config
	server         *Server
	usrRepo        user.Repository
	courseRepo     course.Repository
	assignmentRepo assignment.Repository
	mailSvc        *emailsvc.ConsoleServiceMock
	relay          *notification.Relay
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := testutil.NewConfig()
	conf.Uploads.Dir = t.TempDir()
	logger := testutil.NewLogger(conf)

	// set up DB & repos
	db := inmemdb.Open()
	app := &testApp{
		conf:           conf,
		usrRepo:        inmemdb.NewUserRepository(db),
		courseRepo:     inmemdb.NewCourseRepository(db),
		assignmentRepo: inmemdb.NewAssignmentRepository(db),
		mailSvc:        emailsvc.NewConsoleServiceMock(conf),
	}

	// set up notifications
	broker := pubsub.NewMemoryBroker(0)
	t.Cleanup(func() { _ = broker.Close() })
	notifier := notification.NewPublisher(broker, logger)
	app.relay = notification.NewRelay(broker, logger)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, app.relay.Start(ctx))
	t.Cleanup(func() {
		cancel()
		_ = app.relay.Stop()
	})

	// set up services
	storage, err := storagesvc.NewDiskStorage(conf.Uploads.Dir)
	require.NoError(t, err)
	usrSvc := user.NewService(app.usrRepo, app.mailSvc)
	courseSvc := course.NewService(app.courseRepo, usrSvc, app.mailSvc, notifier)
	assignmentSvc := assignment.NewService(app.assignmentRepo, courseSvc, notifier)
	dashboardSvc := dashboard.NewService(usrSvc, courseSvc, assignmentSvc)
	aiSvc := ai.NewService(aisvc.MockGenerator{}, aisvc.MockGenerator{}, logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	// set up server
	app.server = NewServer(
		ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			CourseSvc:     courseSvc,
			AssignmentSvc: assignmentSvc,
			DashboardSvc:  dashboardSvc,
			AISvc:         aiSvc,
			Storage:       storage,
			Relay:         app.relay,
			Validate:      validate,
			Translator:    translator,
		},
	)
	return app
}

func (app *testApp) createUser(t *testing.T, name, email, role string, isActive ...bool) user.User {
	t.Helper()
	active := len(isActive) == 0 || isActive[0]
	return testutil.CreateUser(t, app.usrRepo, name, email, "Pass-w0rd!", role, active)
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	return getToken(t, app.conf, usr)
}

func Test_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to "+app.conf.AppName+" API!", rec.Body.String())
}

func Test_unknownRoute(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/api/v1/lol")
	app.server.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "Not Found"})}, rec)
}

func Test_cors(t *testing.T) {
	app := setup(t)

	tests := []struct {
		name       string
		origin     string
		wantHeader string
	}{
		{name: "allowed origin", origin: "http://localhost:3000", wantHeader: "http://localhost:3000"},
		{name: "unknown origin", origin: "http://evil.test", wantHeader: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodOptions, "/api/v1/courses")
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			app.server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
