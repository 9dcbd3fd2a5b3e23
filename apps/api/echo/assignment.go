package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/assignment"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

type assignmentApi struct {
	svc      assignment.Service
	storage  core.FileStorage
	validate *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps ServerDeps) {
	api := assignmentApi{
		svc:      deps.AssignmentSvc,
		storage:  deps.Storage,
		validate: deps.Validate,
	}

	ag := g.Group("/assignments")
	ag.GET("", api.query, auth...)
	ag.POST("", api.create, withRoles(auth, user.RoleLecturer)...)
	ag.POST("/submit", api.submit, withRoles(auth, user.RoleStudent)...)
	ag.PUT("/grade", api.grade, withRoles(auth, user.RoleLecturer)...)
	ag.DELETE("/:assignmentId", api.destroy, withRoles(auth, user.RoleLecturer, user.RoleAdmin)...)
}

// Handlers

func (api *assignmentApi) create(ctx echo.Context) error {
	lecturer, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assignment.NewAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.File, err = saveFileOrText(ctx, api.storage, "file", data.Text); err != nil {
		return errors.Wrap(err, "saving assignment file")
	}

	a, err := api.svc.Create(ctx.Request().Context(), lecturer, data)
	if err != nil {
		discardUpload(ctx, api.storage, data.File)
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) query(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	assignments, err := api.svc.QueryFor(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) submit(ctx echo.Context) error {
	student, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assignment.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}
	if data.File, err = saveFileOrText(ctx, api.storage, "file", data.Text); err != nil {
		return errors.Wrap(err, "saving submission file")
	}

	a, err := api.svc.Submit(ctx.Request().Context(), student, data)
	if err != nil {
		discardUpload(ctx, api.storage, data.File)
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) grade(ctx echo.Context) error {
	lecturer, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assignment.GradeRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if _, err = api.svc.Grade(ctx.Request().Context(), lecturer, data); err != nil {
		return errors.Wrap(err, "grading assignment")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Assignment graded"})
}

func (api *assignmentApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	id, err := paramID(ctx, "assignmentId", assignment.ErrNotFound)
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), actor, id); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Assignment deleted successfully"})
}
