package aisvc

import (
	"context"
	"fmt"

	"github.com/Iamayomi/academic-management-platform/core/ai"
)

// MockGenerator answers with canned content. It is used when no AI provider is configured
// and as the fallback when the provider fails.
type MockGenerator struct{}

var _ ai.Generator = MockGenerator{}

func (MockGenerator) RecommendCourses(_ context.Context, _ string) ([]string, error) {
	return []string{"Introduction to AI", "Data Science Basics", "Machine Learning 101"}, nil
}

func (MockGenerator) GenerateSyllabus(_ context.Context, topic string) (string, error) {
	return fmt.Sprintf("Syllabus for %s\nWeek 1: Introduction\nWeek 2: Core Concepts\nWeek 3: Advanced Topics", topic), nil
}
