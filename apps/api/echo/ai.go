package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Iamayomi/academic-management-platform/core/ai"
	"github.com/Iamayomi/academic-management-platform/core/user"
)

type aiApi struct {
	svc      ai.Service
	validate *validator.Validate
}

func registerAIAPI(g *echo.Group, auth []echo.MiddlewareFunc, deps ServerDeps) {
	api := aiApi{svc: deps.AISvc, validate: deps.Validate}

	ag := g.Group("/ai")
	ag.POST("/recommend", api.recommend, auth...)
	ag.POST("/syllabus", api.syllabus, withRoles(auth, user.RoleLecturer)...)
}

func (api *aiApi) recommend(ctx echo.Context) error {
	var data ai.RecommendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecommendRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	courses, err := api.svc.Recommend(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recommending courses")
	}
	return ctx.JSON(http.StatusOK, RecommendResponse{Courses: courses})
}

func (api *aiApi) syllabus(ctx echo.Context) error {
	var data ai.SyllabusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SyllabusRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	syllabus, err := api.svc.Syllabus(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating syllabus")
	}
	return ctx.JSON(http.StatusOK, SyllabusResponse{Syllabus: syllabus})
}

type (
	RecommendResponse struct {
		Courses []string `json:"courses"`
	}

	SyllabusResponse struct {
		Syllabus string `json:"syllabus"`
	}
)
