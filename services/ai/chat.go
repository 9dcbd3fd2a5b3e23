package aisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/Iamayomi/academic-management-platform/core"
	"github.com/Iamayomi/academic-management-platform/core/ai"
)

type (
	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	chatRequest struct {
		Model     string        `json:"model"`
		Messages  []chatMessage `json:"messages"`
		MaxTokens int           `json:"max_tokens,omitempty"`
	}

	chatResponse struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}

	// ChatGenerator talks to an OpenAI-compatible chat completions API.
	ChatGenerator struct {
		baseURL string
		apiKey  string
		model   string
		client  *rest.Client
	}
)

var _ ai.Generator = (*ChatGenerator)(nil)

func NewChatGenerator(conf core.AIConfig) *ChatGenerator {
	return &ChatGenerator{
		baseURL: conf.BaseURL,
		apiKey:  conf.APIKey,
		model:   conf.Model,
		client:  &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
	}
}

func (g *ChatGenerator) RecommendCourses(ctx context.Context, interest string) ([]string, error) {
	answer, err := g.complete(ctx,
		"You are an academic advisor. Answer with one course title per line and nothing else.",
		fmt.Sprintf("Recommend up to 5 university courses for a student interested in: %s", interest),
	)
	if err != nil {
		return nil, err
	}
	return parseCourseList(answer), nil
}

func (g *ChatGenerator) GenerateSyllabus(ctx context.Context, topic string) (string, error) {
	return g.complete(ctx,
		"You are a university lecturer writing concise weekly course syllabi.",
		fmt.Sprintf("Write a syllabus for a course about: %s", topic),
	)
}

func (g *ChatGenerator) complete(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		MaxTokens: 512,
	})
	if err != nil {
		return "", errors.Wrap(err, "json.Marshal()")
	}

	req := rest.Request{
		Method:  rest.Post,
		BaseURL: g.baseURL + "/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + g.apiKey,
			"Content-Type":  "application/json",
		},
		Body: body,
	}
	resp, err := g.send(ctx, req)
	if err != nil {
		return "", errors.Wrap(err, "chat completion request")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("chat completion: unexpected status %d", resp.StatusCode)
	}

	var cr chatResponse
	if err = json.Unmarshal([]byte(resp.Body), &cr); err != nil {
		return "", errors.Wrap(err, "json.Unmarshal()")
	}
	if len(cr.Choices) == 0 {
		return "", errors.New("chat completion: no choices")
	}
	return strings.TrimSpace(cr.Choices[0].Message.Content), nil
}

// send is rest.Client.Send bound to ctx.
func (g *ChatGenerator) send(ctx context.Context, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, err
	}
	httpResp, err := g.client.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(httpResp)
}

var listMarker = regexp.MustCompile(`^\s*(\d+[.)]|[-*•])\s*`)

// parseCourseList turns a line-per-course answer into titles, dropping list markers.
func parseCourseList(answer string) []string {
	var courses []string
	for _, line := range strings.Split(answer, "\n") {
		line = listMarker.ReplaceAllString(line, "")
		if line = strings.TrimSpace(line); line != "" {
			courses = append(courses, line)
		}
	}
	return courses
}
