// Package llm is the language-model capability: a small Ollama HTTP client
// exposing chat and single-prompt completion.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults match a stock local Ollama install.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "mistral:instruct"
	DefaultTimeout = 120 * time.Second
)

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Model is the capability the rest of the app consumes. Both calls are
// fallible network calls; failures are *UpstreamError.
type Model interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrUpstream is matched by every *UpstreamError.
var ErrUpstream = errors.New("upstream model failure")

// UpstreamError reports an unreachable model server or a non-2xx reply.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": upstream failure"
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUpstream) match.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Config holds Ollama connection settings.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Ollama talks to an Ollama server.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
	log     *zap.Logger
}

var _ Model = (*Ollama)(nil)

// NewOllama creates a client. Empty fields fall back to the defaults.
func NewOllama(cfg Config, logger *zap.Logger) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ollama{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     logger,
	}
}

// Name returns the engine name.
func (o *Ollama) Name() string {
	return fmt.Sprintf("ollama:%s", o.model)
}

// Close drops idle keep-alive connections.
func (o *Ollama) Close() {
	o.client.CloseIdleConnections()
}

// Chat sends the whole conversation to /api/chat and returns the reply.
func (o *Ollama) Chat(ctx context.Context, messages []Message) (string, error) {
	req := chatRequest{Model: o.model, Messages: messages, Stream: false}

	var resp chatResponse
	if err := o.post(ctx, "chat", "/api/chat", req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

// Complete sends a single prompt to /api/generate.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Model: o.model, Prompt: prompt, Stream: false}

	var resp generateResponse
	if err := o.post(ctx, "complete", "/api/generate", req, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

func (o *Ollama) post(ctx context.Context, op, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return &UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	o.log.Debug("ollama call",
		zap.String("op", op),
		zap.String("model", o.model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		ue := &UpstreamError{Op: op, StatusCode: resp.StatusCode}
		if msg := strings.TrimSpace(string(bodyBytes)); msg != "" {
			ue.Err = errors.New(msg)
		}
		return ue
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// --- Ollama API types ---

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}
