package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/Iamayomi/academic-management-platform/apps/api/echo"
	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/ai"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/dashboard"
	"github.com/Iamayomi/academic-management-platform/core/notification"
	"github.com/Iamayomi/academic-management-platform/core/user"
	aisvc "github.com/Iamayomi/academic-management-platform/services/ai"
	emailsvc "github.com/Iamayomi/academic-management-platform/services/email"
	logsvc "github.com/Iamayomi/academic-management-platform/services/logger"
	"github.com/Iamayomi/academic-management-platform/services/pubsub"
	storagesvc "github.com/Iamayomi/academic-management-platform/services/storage"
	"github.com/Iamayomi/academic-management-platform/storage/database"
	inmemdb "github.com/Iamayomi/academic-management-platform/storage/database/inmem"
	sqlxrepos "github.com/Iamayomi/academic-management-platform/storage/database/sqlx"
)

type repositories struct {
	users       user.Repository
	courses     course.Repository
	assignments assignment.Repository
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := newLogger("API : ", conf)
	dbLogger := newLogger("DB : ", conf)
	relayLogger := newLogger("RELAY : ", conf)

	// set up DB
	repos, err := setUpRepositories(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up notifications
	broker, err := setUpBroker(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up broker: %v", err), err)
	}
	defer func() { _ = broker.Close() }()
	notifier := notification.NewPublisher(broker, relayLogger)
	relay := notification.NewRelay(broker, relayLogger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	storage, err := storagesvc.NewDiskStorage(conf.Uploads.Dir)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up uploads dir: %v", err), err)
	}

	usrSvc := user.NewService(repos.users, mailSvc)
	courseSvc := course.NewService(repos.courses, usrSvc, mailSvc, notifier)
	assignmentSvc := assignment.NewService(repos.assignments, courseSvc, notifier)
	dashboardSvc := dashboard.NewService(usrSvc, courseSvc, assignmentSvc)
	aiSvc := newAIService(conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	if err = relay.Start(relayCtx); err != nil {
		logger.Fatal(fmt.Sprintf("starting notification relay: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus collectors.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			CourseSvc:     courseSvc,
			AssignmentSvc: assignmentSvc,
			DashboardSvc:  dashboardSvc,
			AISvc:         aiSvc,
			Storage:       storage,
			Relay:         relay,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}

		if err = relay.Stop(); err != nil {
			relayLogger.Error(fmt.Sprintf("stopping relay: %v", err), err)
		}
	}
}

func newLogger(prefix string, conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	return logger
}

func setUpRepositories(conf *core.Config) (repositories, error) {
	if conf.Database.Engine == database.EngineInMemory {
		db := inmemdb.Open()
		return repositories{
			users:       inmemdb.NewUserRepository(db),
			courses:     inmemdb.NewCourseRepository(db),
			assignments: inmemdb.NewAssignmentRepository(db),
			close:       func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return repositories{}, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return repositories{}, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return repositories{}, err
	}
	return repositories{
		users:       sqlxrepos.NewUserRepository(db),
		courses:     sqlxrepos.NewCourseRepository(db),
		assignments: sqlxrepos.NewAssignmentRepository(db),
		close:       db.Close,
	}, nil
}

func setUpBroker(conf *core.Config, logger core.Logger) (notification.Broker, error) {
	if conf.Redis.URL == "" {
		logger.Warn("REDIS url not set: notifications stay in-process")
		return pubsub.NewMemoryBroker(0), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()
	return pubsub.NewRedisBroker(ctx, conf)
}

func newAIService(conf *core.Config, logger core.Logger) ai.Service {
	mock := aisvc.MockGenerator{}
	if conf.AI.APIKey == "" {
		return ai.NewService(mock, mock, logger)
	}
	return ai.NewService(aisvc.NewChatGenerator(conf.AI), mock, logger)
}
