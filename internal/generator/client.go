package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"chat-wrapped/internal/domain"
)

const (
	// DefaultBaseURL — адрес публичного API генеративной модели.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// DefaultModel — модель, используемая, если в конфигурации она не указана.
	DefaultModel = "gemini-2.5-flash"

	maxResponseBody = 4 << 20
)

var (
	// ErrEmptyResponse возвращается, когда модель не вернула текст.
	ErrEmptyResponse = errors.New("no text returned from model")
	// ErrMissingAPIKey возвращается при создании клиента без ключа API.
	ErrMissingAPIKey = errors.New("api key is not set")
)

// Config содержит параметры подключения к одной конечной точке модели.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Timeout ограничивает один HTTP-запрос.
	Timeout time.Duration
	// RequestsPerMinute ограничивает частоту запросов клиента. 0 — без ограничения.
	RequestsPerMinute int
}

// ClientOption определяет функциональную опцию для конфигурации клиента.
type ClientOption func(*Client)

// WithLogger устанавливает логгер для клиента.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient заменяет HTTP-клиент, например, для тестов.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client — потокобезопасный клиент метода generateContent.
// Запросы проходят через локальный ограничитель частоты и автоматический выключатель:
// после серии ошибок клиент перестает обращаться к API до истечения таймаута выключателя.
type Client struct {
	id      string
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *slog.Logger
}

// NewClient создает новый экземпляр Client.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	c := &Client{
		id:      uuid.NewString(),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generator-" + c.model,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("Generator circuit breaker state changed", "client_id", c.id, "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c, nil
}

// ID возвращает уникальный идентификатор клиента.
func (c *Client) ID() string {
	return c.id
}

// Model возвращает имя модели, с которой работает клиент.
func (c *Client) Model() string {
	return c.model
}

type textPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string     `json:"role,omitempty"`
	Parts []textPart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate отправляет запрос модели и разбирает ответ в персону.
func (c *Client) Generate(ctx context.Context, systemInstruction, prompt string) (*domain.Persona, error) {
	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []textPart{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   personaSchema(),
		},
	}
	if systemInstruction != "" {
		req.SystemInstruction = &content{Parts: []textPart{{Text: systemInstruction}}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	c.log.DebugContext(ctx, "Executing generateContent", "client_id", c.id, "model", c.model, "prompt_len", len(prompt))

	raw, err := c.execute(ctx, http.MethodPost, c.endpoint(":generateContent"), body)
	if err != nil {
		return nil, err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, ErrEmptyResponse
	}

	var persona domain.Persona
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &persona); err != nil {
		return nil, fmt.Errorf("failed to decode persona json: %w", err)
	}

	return &persona, nil
}

// Health проверяет доступность модели легковесным запросом ее описания.
// Пока выключатель разомкнут, возвращает ошибку без обращения к API.
func (c *Client) Health(ctx context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("generator %s: %w", c.id, gobreaker.ErrOpenState)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(""), nil)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/v1beta/models/%s%s", c.baseURL, url.PathEscape(c.model), method)
}

// execute выполняет запрос через ограничитель частоты и выключатель.
func (c *Client) execute(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doHTTPCall(ctx, method, target, body)
	})
	if err != nil {
		c.log.WarnContext(ctx, "Generator call failed", "client_id", c.id, "model", c.model, "error", err)
		return nil, fmt.Errorf("generator %s: %w", c.model, err)
	}
	return res.([]byte), nil
}

func (c *Client) doHTTPCall(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(respBody), 512))
	}

	return respBody, nil
}

func responseText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

// stripCodeFence убирает обрамление ```json ... ```, если модель его добавила.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
