package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

const openRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterClient implements the Client interface using OpenRouter's
// chat-completions API.
type OpenRouterClient struct {
	apiKey       string
	model        string
	baseURL      string
	systemPrompt string
	httpClient   *http.Client
	logger       *log.Logger
}

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	Model        string // e.g., "meta-llama/llama-3.1-8b-instruct"
	BaseURL      string // Optional override for tests
	SystemPrompt string // Optional custom system prompt
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// NewOpenRouterClient creates a new OpenRouter client. An empty API key is
// allowed; the client then always answers with the echo fallback.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	model := cfg.Model
	if model == "" {
		model = "meta-llama/llama-3.1-8b-instruct"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openRouterAPIURL
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		model:        model,
		baseURL:      baseURL,
		systemPrompt: systemPrompt,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// chatRequest represents an OpenRouter chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents an OpenRouter chat completion response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// GenerateReply asks the model for a reply to the transcript given the prior
// conversation. Any failure degrades to the echo fallback rather than
// surfacing an error.
func (c *OpenRouterClient) GenerateReply(ctx context.Context, transcript string, history []Message) string {
	if c.apiKey == "" {
		return EchoReply(transcript)
	}

	reply, err := c.complete(ctx, transcript, history)
	if err != nil {
		c.logger.Printf("llm: falling back to echo: %v", err)
		return EchoReply(transcript)
	}

	reply = sanitizeReply(reply)
	if reply == "" {
		return EchoReply(transcript)
	}
	return reply
}

func (c *OpenRouterClient) complete(ctx context.Context, transcript string, history []Message) (string, error) {
	chatMsgs := []chatMessage{
		{Role: "system", Content: c.systemPrompt},
	}
	for _, m := range history {
		chatMsgs = append(chatMsgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	chatMsgs = append(chatMsgs, chatMessage{Role: "user", Content: transcript})

	req := chatRequest{
		Model:       c.model,
		Messages:    chatMsgs,
		Temperature: 0.5,
		MaxTokens:   150,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenRouter API error: %s - %s", resp.Status, string(respBody))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return chatResp.Choices[0].Message.Content, nil
}
