package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"server/internal/domain"
)

const (
	defaultModel     = "gpt-4o"
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 2000

	systemPrompt = "You are a professional travel planner."
)

// Options configures the OpenAI-compatible chat-completions client. All state
// lives in the constructed Client; there is no package-level configuration.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	// Temperature is used as given and must be in [0,2]. Callers own the
	// default (the config layer uses 0.7).
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// Client requests itineraries from a chat-completions endpoint and turns the
// free-form model output into validated domain days.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	client      *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewClient validates the options and constructs a Client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	if opts.Temperature < 0 || opts.Temperature > 2 {
		return nil, fmt.Errorf("temperature %v out of range [0,2]", opts.Temperature)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		model:       model,
		baseURL:     baseURL,
		temperature: opts.Temperature,
		maxTokens:   maxTokens,
		client:      client,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// GenerateItinerary performs a single chat completion and extracts a validated
// itinerary from the response text. Transport and status problems wrap
// domain.ErrServiceFailure; unusable output wraps domain.ErrParseFailure or
// domain.ErrSchemaViolation. No retries happen here.
func (c *Client) GenerateItinerary(ctx context.Context, destination string, days int) ([]domain.Day, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(destination, days)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", domain.ErrServiceFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrServiceFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: generation service returned status %d", domain.ErrServiceFailure, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrServiceFailure, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty completion", domain.ErrServiceFailure)
	}

	candidate, err := extractJSONArray(out.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailure, err)
	}
	return domain.ParseItinerary([]byte(candidate))
}

// extractJSONArray slices from the first '[' to the last ']' inclusive. The
// model tends to wrap the array in prose or markdown fencing; this heuristic
// relies on the prompt anchoring exactly one top-level array. A response with
// several top-level arrays mis-slices and fails downstream validation, which
// fails the job rather than storing a wrong itinerary.
func extractJSONArray(content string) (string, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return "", errors.New("no JSON array in model output")
	}
	return content[start : end+1], nil
}

func buildPrompt(destination string, days int) string {
	return fmt.Sprintf(`Generate a detailed %d-day travel itinerary to %s.
Include diverse activities with specific locations and times.

Output must be in this EXACT JSON format:
[
  {
    "day": 1,
    "theme": "Cultural Exploration",
    "activities": [
      {
        "time": "9:00 AM",
        "description": "Visit local museum",
        "location": "National Museum of History"
      },
      {
        "time": "1:00 PM",
        "description": "Lunch at traditional restaurant",
        "location": "Old Town Cafe"
      }
    ]
  }
]`, days, destination)
}
