// Package notify pushes outbound chat notifications. The only
// implementation targets the LINE Messaging API push endpoint.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultLineBaseURL = "https://api.line.me"

// Logger mirrors the root package logger to avoid an import cycle with
// hosts that wire this client back into authgate interfaces.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TextMessage is a single text entry in a push request.
type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to,omitempty"`
	Messages []TextMessage `json:"messages"`
}

// LineClient pushes text messages to a LINE group through the bot push
// endpoint. Construct once at process start and inject by reference.
type LineClient struct {
	accessToken string
	groupID     string
	baseURL     string
	httpClient  *http.Client
	logger      Logger
}

type LineClientOption func(*LineClient)

// WithHTTPClient overrides the transport, mainly for tests.
func WithHTTPClient(client *http.Client) LineClientOption {
	return func(c *LineClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(baseURL string) LineClientOption {
	return func(c *LineClient) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

func WithLogger(logger Logger) LineClientOption {
	return func(c *LineClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewLineClient(accessToken, groupID string, opts ...LineClientOption) *LineClient {
	c := &LineClient{
		accessToken: accessToken,
		groupID:     groupID,
		baseURL:     defaultLineBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// PushText sends a single text message to the configured group. When no
// group id is configured the "to" field is omitted, matching the push
// API's broadcast-to-bot behavior.
func (c *LineClient) PushText(ctx context.Context, text string) error {
	payload := pushRequest{
		To: c.groupID,
		Messages: []TextMessage{
			{Type: "text", Text: text},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bot/message/push", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("LINE push request failed: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Error("LINE push rejected with status %d: %s", resp.StatusCode, detail)
		return fmt.Errorf("line push failed with status %d: %s", resp.StatusCode, detail)
	}

	return nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
