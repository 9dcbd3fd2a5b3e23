package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/course"
	"github.com/Iamayomi/academic-management-platform/core/dashboard"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

type courseApi struct {
	svc          course.Service
	dashboardSvc dashboard.Service
	storage      core.FileStorage
	validate     *validator.Validate
}

func registerCourseAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps ServerDeps) {
	api := courseApi{
		svc:          deps.CourseSvc,
		dashboardSvc: deps.DashboardSvc,
		storage:      deps.Storage,
		validate:     deps.Validate,
	}

	cg := g.Group("/courses")
	cg.GET("", api.query, auth...)
	cg.POST("", api.create, withRoles(auth, user.RoleLecturer)...)

	// dashboards
	cg.GET("/students/dashboard", api.studentDashboard, withRoles(auth, user.RoleStudent)...)
	cg.GET("/lecturers/dashboard", api.lecturerDashboard, withRoles(auth, user.RoleLecturer)...)
	cg.GET("/admins/dashboard", api.adminDashboard, withRoles(auth, user.RoleAdmin)...)

	// enrollments
	cg.POST("/enroll", api.enroll, withRoles(auth, user.RoleStudent)...)
	cg.DELETE("/enroll/:courseId", api.drop, withRoles(auth, user.RoleStudent)...)
	cg.PUT("/enrollments/:id", api.decideEnrollment, withRoles(auth, user.RoleLecturer, user.RoleAdmin)...)

	// detail endpoints
	cg.GET("/:id", api.retrieve, auth...)
	cg.PUT("/:id", api.update, withRoles(auth, user.RoleLecturer)...)
	cg.GET("/:id/enrollments", api.enrollments, withRoles(auth, user.RoleLecturer, user.RoleAdmin)...)
	cg.GET("/:id/grades", api.grade, auth...)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	lecturer, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.NewCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.Syllabus, err = saveUpload(ctx, api.storage, "syllabus"); err != nil {
		return errors.Wrap(err, "saving syllabus")
	}

	c, err := api.svc.Create(ctx.Request().Context(), lecturer, data)
	if err != nil {
		discardUpload(ctx, api.storage, data.Syllabus)
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) update(ctx echo.Context) error {
	lecturer, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id", course.ErrNotFoundOrNotOwner)
	if err != nil {
		return err
	}
	orig, err := api.svc.GetOwned(ctx.Request().Context(), lecturer, id)
	if err != nil {
		return errors.Wrap(err, "finding owned course")
	}

	var data course.UpdateCourse
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if data.Syllabus, err = saveUpload(ctx, api.storage, "syllabus"); err != nil {
		return errors.Wrap(err, "saving syllabus")
	}
	uploaded := data.Syllabus
	if err = data.Validate(orig, api.validate); err != nil {
		discardUpload(ctx, api.storage, uploaded)
		return err
	}

	c, err := api.svc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		discardUpload(ctx, api.storage, uploaded)
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), nil, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id", course.ErrNotFound)
	if err != nil {
		return err
	}
	c, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	student, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.EnrollRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if _, err = api.svc.Enroll(ctx.Request().Context(), student, data.CourseID); err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, MessageResponse{Message: "Enrollment request sent"})
}

func (api *courseApi) drop(ctx echo.Context) error {
	student, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	courseID, err := paramID(ctx, "courseId", course.ErrEnrollmentNotFound)
	if err != nil {
		return err
	}

	if err = api.svc.Drop(ctx.Request().Context(), student, courseID); err != nil {
		return errors.Wrap(err, "dropping course")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Course dropped successfully"})
}

func (api *courseApi) enrollments(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id", course.ErrNotFound)
	if err != nil {
		return err
	}

	enrollments, err := api.svc.CourseEnrollments(ctx.Request().Context(), actor, id)
	if err != nil {
		return errors.Wrap(err, "querying course enrollments")
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) decideEnrollment(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id", course.ErrEnrollmentNotFound)
	if err != nil {
		return err
	}

	var data course.EnrollmentDecision
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollmentDecision")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	e, err := api.svc.DecideEnrollment(ctx.Request().Context(), actor, id, data)
	if err != nil {
		return errors.Wrap(err, "deciding enrollment")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *courseApi) grade(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "id", course.ErrNotFound)
	if err != nil {
		return err
	}

	var studentID int
	if actor.IsStudent() {
		studentID = actor.ID
	} else if sid := ctx.QueryParam("studentId"); sid != "" {
		if studentID, err = strconv.Atoi(sid); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "studentId", Error: "must be a valid ID"})
		}
	}

	grade, err := api.dashboardSvc.CourseGrade(ctx.Request().Context(), actor, id, studentID)
	if err != nil {
		return errors.Wrap(err, "computing course grade")
	}
	return ctx.JSON(http.StatusOK, GradeResponse{Grade: grade.Ptr()})
}

func (api *courseApi) studentDashboard(ctx echo.Context) error {
	student, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	dash, err := api.dashboardSvc.Student(ctx.Request().Context(), student)
	if err != nil {
		return errors.Wrap(err, "building student dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *courseApi) lecturerDashboard(ctx echo.Context) error {
	lecturer, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	dash, err := api.dashboardSvc.Lecturer(ctx.Request().Context(), lecturer)
	if err != nil {
		return errors.Wrap(err, "building lecturer dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *courseApi) adminDashboard(ctx echo.Context) error {
	dash, err := api.dashboardSvc.Admin(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building admin dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

type GradeResponse struct {
	Grade *float64 `json:"grade"`
}
