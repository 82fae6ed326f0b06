// generator.go
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Prompt pair sent to the completion API. The model is instructed to answer
// with a bare JSON object matching the AnalysisResult wire shape.
const generatorSystemPrompt = "You are a data generator that creates realistic Instagram follower analysis data. Always return valid JSON only."

const generatorUserPrompt = `Generate a realistic Instagram followers analysis for a person. Create JSON data with:
- total_following: random number between 200-800
- total_followers: random number between 150-600
- Generate a list of 3-12 usernames of people who don't follow back (realistic Instagram usernames)

Return ONLY a JSON object in this exact format:
{
  "total_following": number,
  "total_followers": number,
  "not_following_back_list": [
    {"username": "realistic_username", "url": "https://instagram.com/realistic_username"}
  ]
}`

// chatMessage is one message in a chat completion exchange.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// CompletionClient calls an OpenAI-compatible chat completion endpoint. Any
// provider offering the same request/response shape works.
type CompletionClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewCompletionClient creates a completion client from generator settings.
func NewCompletionClient(settings GeneratorSettings) *CompletionClient {
	return &CompletionClient{
		baseURL:     strings.TrimSuffix(settings.BaseURL, "/"),
		apiKey:      settings.APIKey,
		model:       settings.Model,
		temperature: settings.Temperature,
		httpClient: &http.Client{
			Timeout: time.Duration(settings.Timeout) * time.Second,
		},
	}
}

// Complete sends one system/user prompt pair and returns the response text.
// A single attempt is made; failures surface directly to the caller.
func (c *CompletionClient) Complete(ctx context.Context, system, user string) (string, error) {
	request := chatCompletionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.temperature,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var response chatCompletionResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}

	return response.Choices[0].Message.Content, nil
}

// GenerativeAnalyzer synthesizes plausible analysis results through the
// completion API. The uploaded bytes are not inspected; only the file name
// travels through. A response that is not a valid JSON document matching the
// result shape is a hard failure, with no repair or retry.
type GenerativeAnalyzer struct {
	client *CompletionClient
}

// NewGenerativeAnalyzer creates the generator-backed analyzer.
func NewGenerativeAnalyzer(client *CompletionClient) *GenerativeAnalyzer {
	return &GenerativeAnalyzer{client: client}
}

// Analyze asks the completion API for a synthetic dataset and parses it.
func (g *GenerativeAnalyzer) Analyze(ctx context.Context, fileName string, data []byte) (*AnalysisResult, error) {
	text, err := g.client.Complete(ctx, generatorSystemPrompt, generatorUserPrompt)
	if err != nil {
		return nil, fmt.Errorf("falha na geração de dados da análise: %v", err)
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("generator returned invalid JSON: %v", err)
	}

	result.Normalize()
	return &result, nil
}
