package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// OpenAIClient talks to the OpenAI-compatible HTTP API for chat, image
// generation and transcription. All calls fail closed when no API key is
// configured.
type OpenAIClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewOpenAIClient(apiKey, baseURL string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Minute},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatCompletion sends one system+user exchange and returns the assistant
// text. jsonMode asks the API to constrain output to a JSON object.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("chat completion: no API key configured")
	}

	reqBody := chatRequest{
		Model: "gpt-5-mini",
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if jsonMode {
		reqBody.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	var resp chatResponse
	if err := c.postJSON(ctx, "/chat/completions", reqBody, &resp); err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("chat completion: api error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateImage renders one image from a prompt and writes the PNG to
// outPath.
func (c *OpenAIClient) GenerateImage(ctx context.Context, prompt, outPath string) error {
	if c.APIKey == "" {
		return fmt.Errorf("image generation: no API key configured")
	}

	reqBody := imageRequest{Model: "gpt-image-1", Prompt: prompt, Size: "1536x1024", N: 1}
	var resp imageResponse
	if err := c.postJSON(ctx, "/images/generations", reqBody, &resp); err != nil {
		return fmt.Errorf("image generation: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("image generation: api error: %s", resp.Error.Message)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return fmt.Errorf("image generation: empty response")
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return fmt.Errorf("image generation: decode payload: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("image generation: %w", err)
	}
	if err := os.WriteFile(outPath, raw, 0o644); err != nil {
		return fmt.Errorf("image generation: write %s: %w", outPath, err)
	}
	return nil
}

// TranscribeSRT sends an audio file to the transcription API and returns
// the raw SRT body.
func (c *OpenAIClient) TranscribeSRT(ctx context.Context, audioPath, language string) (string, error) {
	if c.APIKey == "" {
		return "", fmt.Errorf("transcription: no API key configured")
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	mw.WriteField("model", "whisper-1")
	mw.WriteField("response_format", "srt")
	if language != "" {
		mw.WriteField("language", language)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription: status %d: %s", resp.StatusCode, tailString(string(raw), stderrTailLimit))
	}
	return string(raw), nil
}

func (c *OpenAIClient) postJSON(ctx context.Context, path string, reqBody, respBody interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, tailString(string(raw), stderrTailLimit))
	}
	return json.Unmarshal(raw, respBody)
}
