package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chat-wrapped/internal/domain"
)

// ServerAPI описывает операции бэкенда, которые использует бот.
type ServerAPI interface {
	StartFileTask(ctx context.Context, name string, content io.Reader) (*StartTaskResponse, error)
	StartTextTask(ctx context.Context, text string) (*StartTaskResponse, error)
	GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error)
	GetTaskResult(ctx context.Context, taskID string) (*domain.WrappedReport, error)
	GetManualPrompt(ctx context.Context) (string, error)
	ParseReport(ctx context.Context, text string) (*domain.WrappedReport, error)
}

// ServerClient — клиент для взаимодействия с API бэкенд-сервера.
type ServerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewServerClient создает новый экземпляр ServerClient.
func NewServerClient(baseURL string, timeout time.Duration) *ServerClient {
	return &ServerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// API-ответы
type StartTaskResponse struct {
	TaskID string `json:"task_id"`
}

type TaskStatusResponse struct {
	TaskID       string `json:"task_id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// StartFileTask отправляет файл выгрузки на сервер для начала обработки.
func (c *ServerClient) StartFileTask(ctx context.Context, name string, content io.Reader) (*StartTaskResponse, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file for %s: %w", name, err)
	}
	if _, err = io.Copy(fw, content); err != nil {
		return nil, fmt.Errorf("failed to copy file content for %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.startTask(ctx, &b, w.FormDataContentType())
}

// StartTextTask отправляет вставленный текст переписки.
func (c *ServerClient) StartTextTask(ctx context.Context, text string) (*StartTaskResponse, error) {
	form := url.Values{"text": {text}}
	return c.startTask(ctx, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (c *ServerClient) startTask(ctx context.Context, body io.Reader, contentType string) (*StartTaskResponse, error) {
	var result StartTaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/process", body, contentType, http.StatusAccepted, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskStatus запрашивает статус задачи.
func (c *ServerClient) GetTaskStatus(ctx context.Context, taskID string) (*TaskStatusResponse, error) {
	var result TaskStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(taskID), nil, "", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTaskResult запрашивает отчет выполненной задачи.
func (c *ServerClient) GetTaskResult(ctx context.Context, taskID string) (*domain.WrappedReport, error) {
	var result domain.WrappedReport
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(taskID)+"/result", nil, "", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetManualPrompt возвращает текст запроса для ручного анализа.
func (c *ServerClient) GetManualPrompt(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/v1/prompt/manual", nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	return string(data), nil
}

// ParseReport отправляет текст отчета на разбор.
func (c *ServerClient) ParseReport(ctx context.Context, text string) (*domain.WrappedReport, error) {
	var result domain.WrappedReport
	if err := c.do(ctx, http.MethodPost, "/api/v1/reports/parse", strings.NewReader(text), "text/plain; charset=utf-8", http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *ServerClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, wantStatus int, out any) error {
	resp, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *ServerClient) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// StatusError описывает ответ бэкенда с неожиданным кодом.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Message)
}
