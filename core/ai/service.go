// Package ai serves course recommendations and syllabus drafts from a pluggable Generator.
package ai

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/Iamayomi/academic-management-platform/core"
)

type (
	Generator interface {
		RecommendCourses(ctx context.Context, interest string) ([]string, error)
		GenerateSyllabus(ctx context.Context, topic string) (string, error)
	}

	RecommendRequest struct {
		Interest string `json:"interest" validate:"required,notblank,max=200"`
	}

	SyllabusRequest struct {
		Topic string `json:"topic" validate:"required,notblank,max=200"`
	}

	Service interface {
		Recommend(ctx context.Context, req RecommendRequest) ([]string, error)
		Syllabus(ctx context.Context, req SyllabusRequest) (string, error)
	}

	service struct {
		gen      Generator
		fallback Generator
		logger   core.Logger
	}
)

func (r *RecommendRequest) Validate(validate *validator.Validate) error {
	r.Interest = core.CleanString(r.Interest)
	return validate.Struct(r)
}

func (r *SyllabusRequest) Validate(validate *validator.Validate) error {
	r.Topic = core.CleanString(r.Topic)
	return validate.Struct(r)
}

// NewService returns a Service backed by gen. When gen fails, fallback answers instead.
func NewService(gen, fallback Generator, logger core.Logger) Service {
	return &service{gen: gen, fallback: fallback, logger: logger}
}

func (svc *service) Recommend(ctx context.Context, req RecommendRequest) ([]string, error) {
	courses, err := svc.gen.RecommendCourses(ctx, req.Interest)
	if err == nil && len(courses) > 0 {
		return courses, nil
	}
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("ai: recommending courses: %v", err), err)
	}
	return svc.fallback.RecommendCourses(ctx, req.Interest)
}

func (svc *service) Syllabus(ctx context.Context, req SyllabusRequest) (string, error) {
	syllabus, err := svc.gen.GenerateSyllabus(ctx, req.Topic)
	if err == nil && syllabus != "" {
		return syllabus, nil
	}
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("ai: generating syllabus: %v", err), err)
	}
	return svc.fallback.GenerateSyllabus(ctx, req.Topic)
}
