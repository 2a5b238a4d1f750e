package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
)

var _ output.NotifierPort = (*TelegramAdapter)(nil)

var ErrNotConfigured = errors.New("telegram: bot token or chat id missing")

type TelegramAdapter struct {
	client  *http.Client
	baseURL string
	token   string
	chatID  string
	logger  output.LoggerPort
}

type Config struct {
	Token   string
	ChatID  string
	BaseURL string
	Timeout time.Duration
	Logger  output.LoggerPort
}

func DefaultConfig(token, chatID string) Config {
	return Config{
		Token:   token,
		ChatID:  chatID,
		BaseURL: "https://api.telegram.org",
		Timeout: 30 * time.Second,
	}
}

// loggingTransport logs calls with the bot token cut out of the path.
type loggingTransport struct {
	base   http.RoundTripper
	token  string
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	path := strings.ReplaceAll(req.URL.Path, t.token, "<token>")
	t.logger.Debug("Telegram request", "method", req.Method, "path", path)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Warn("Telegram request failed", "path", path, "error", err)
		return nil, err
	}
	t.logger.Debug("Telegram response", "path", path, "statusCode", resp.StatusCode)
	return resp, nil
}

func NewTelegramAdapter(cfg Config) (*TelegramAdapter, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Logger != nil {
		client.Transport = &loggingTransport{
			base:   http.DefaultTransport,
			token:  cfg.Token,
			logger: cfg.Logger,
		}
	}

	return &TelegramAdapter{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		chatID:  cfg.ChatID,
		logger:  cfg.Logger,
	}, nil
}

// Notify posts a run summary and, on success, the captured file.
func (a *TelegramAdapter) Notify(ctx context.Context, result entity.RunResult) error {
	if err := a.sendMessage(ctx, FormatResult(result)); err != nil {
		return err
	}
	if !result.Succeeded() || result.Artifact == nil {
		return nil
	}
	return a.sendDocument(ctx, result.Artifact.DestinationPath)
}

// FormatResult renders a RunResult as a plain-text chat message.
func FormatResult(r entity.RunResult) string {
	var sb strings.Builder
	if r.Succeeded() {
		fmt.Fprintf(&sb, "Report %s exported\n", r.Report)
		if r.Artifact != nil {
			fmt.Fprintf(&sb, "File: %s (%d bytes)\n", filepath.Base(r.Artifact.DestinationPath), r.Artifact.SizeBytes)
			if !r.Artifact.ResultsReady {
				sb.WriteString("Results indicator not seen before export\n")
			}
		}
	} else {
		fmt.Fprintf(&sb, "Report %s failed\n", r.Report)
		if r.Failure != nil {
			fmt.Fprintf(&sb, "Stage: %s\nKind: %s\nDetail: %v\n", r.Failure.Stage, r.Failure.Kind(), r.Failure.Err)
		}
	}
	fmt.Fprintf(&sb, "Run: %s", r.RunID)
	return sb.String()
}

func (a *TelegramAdapter) sendMessage(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{"chat_id": a.chatID, "text": text})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("sendMessage"), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, "sendMessage")
}

func (a *TelegramAdapter) sendDocument(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("chat_id", a.chatID); err != nil {
		return fmt.Errorf("write chat_id: %w", err)
	}
	part, err := mw.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("copy document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint("sendDocument"), buf)
	if err != nil {
		return fmt.Errorf("build sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, "sendDocument")
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (a *TelegramAdapter) do(req *http.Request, method string) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("telegram %s: decode response (status %d): %w", method, resp.StatusCode, err)
	}
	if !out.OK {
		return fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode, out.Description)
	}
	return nil
}

func (a *TelegramAdapter) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.token, method)
}
