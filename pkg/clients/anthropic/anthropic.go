package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	model      = "claude-3-haiku-20240307"
	maxTokens  = 400
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("care advice is not configured")

// Client produces short plant care notes.
type Client interface {
	CareAdvice(ctx context.Context, req CareRequest) (string, error)
}

// CareRequest describes the plant the advice is for.
type CareRequest struct {
	Name         string
	Species      string
	Disease      string
	PeriodDays   int
	TemperatureC *float64
}

type anthropicClient struct {
	httpClient *resty.Client
	url        string
	enabled    bool
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	return newClient(apiKey, apiURL)
}

func newClient(apiKey, url string) *anthropicClient {
	client := resty.New().
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client, url: url, enabled: apiKey != ""}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

const systemPrompt = `You are a houseplant care assistant. Answer with at most five short bullet points.
Cover watering, light and, when a disease is named, treatment. Do not ask questions.`

// CareAdvice asks the model for a care note about the described plant.
func (c *anthropicClient) CareAdvice(ctx context.Context, req CareRequest) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}

	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: buildPrompt(req)}},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post(c.url)
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: %s", resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", fmt.Errorf("empty response from ai")
	}

	return strings.TrimSpace(respBody.Content[0].Text), nil
}

func buildPrompt(req CareRequest) string {
	var b strings.Builder
	species := req.Species
	if species == "" {
		species = "unknown species"
	}
	fmt.Fprintf(&b, "Plant: %s (%s).\n", req.Name, species)
	if req.PeriodDays > 0 {
		fmt.Fprintf(&b, "Current watering interval: every %d days.\n", req.PeriodDays)
	}
	if req.Disease != "" {
		fmt.Fprintf(&b, "Detected leaf condition: %s.\n", req.Disease)
	}
	if req.TemperatureC != nil {
		fmt.Fprintf(&b, "Outdoor temperature: %.1f°C.\n", *req.TemperatureC)
	}
	b.WriteString("How should I care for it this week?")
	return b.String()
}
