package generator

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personaJSON = `{"archetype":"The 3AM Debugger","description":"Night owl","vibeColor":"#112233","powerWord":"Focus","soundtrack":"Stack Trace Blues","topThemes":["go","sql"],"biggestWins":["shipped"],"thinkingPatterns":"loops","mindsetRoadblocks":"perfectionism","unhingedMoment":{"quote":"why","context":"because"},"mostAskedQuestion":{"question":"how","insight":"curious"},"finalMotivationalMessage":"Keep going","topMoments":[{"quote":"42","reasoning":"classic"}],"chattingStyle":{"badge":"The Builder","description":"builds"},"powerSkill":{"skill":"SQL","description":"joins"}}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Config{APIKey: "test-key", Model: "test-model", BaseURL: srv.URL}, WithLogger(discardLogger()))
	require.NoError(t, err)
	return c
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
	return string(b)
}

func TestNewClient(t *testing.T) {
	t.Run("без ключа API", func(t *testing.T) {
		_, err := NewClient(Config{})
		require.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("значения по умолчанию", func(t *testing.T) {
		c, err := NewClient(Config{APIKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, DefaultModel, c.Model())
		assert.Equal(t, DefaultBaseURL, c.baseURL)
		assert.NotEmpty(t, c.ID())
	})
}

func TestClient_Generate(t *testing.T) {
	t.Run("успешный ответ", func(t *testing.T) {
		var got generateRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			assert.Empty(t, r.URL.Query().Get("key"), "ключ не должен попадать в URL")
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = io.WriteString(w, candidateBody(personaJSON))
		}))
		defer srv.Close()

		c := newTestClient(t, srv)
		persona, err := c.Generate(context.Background(), "system", "prompt text")
		require.NoError(t, err)

		assert.Equal(t, "The 3AM Debugger", persona.Archetype)
		assert.Equal(t, []string{"go", "sql"}, persona.TopThemes)
		assert.Equal(t, "SQL", persona.PowerSkill.Skill)

		require.NotNil(t, got.SystemInstruction)
		assert.Equal(t, "system", got.SystemInstruction.Parts[0].Text)
		assert.Equal(t, "prompt text", got.Contents[0].Parts[0].Text)
		assert.Equal(t, "application/json", got.GenerationConfig.ResponseMimeType)
		assert.Equal(t, "OBJECT", got.GenerationConfig.ResponseSchema["type"])
	})

	t.Run("ответ в блоке кода", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, candidateBody("```json\n"+personaJSON+"\n```"))
		}))
		defer srv.Close()

		persona, err := newTestClient(t, srv).Generate(context.Background(), "", "p")
		require.NoError(t, err)
		assert.Equal(t, "Focus", persona.PowerWord)
	})

	t.Run("пустой ответ", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"candidates":[]}`)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv).Generate(context.Background(), "", "p")
		require.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("некорректный JSON персоны", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, candidateBody("not json"))
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv).Generate(context.Background(), "", "p")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("выключатель размыкается после серии ошибок", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := newTestClient(t, srv)
		for i := 0; i < 3; i++ {
			_, err := c.Generate(context.Background(), "", "p")
			require.Error(t, err)
		}

		_, err := c.Generate(context.Background(), "", "p")
		require.ErrorIs(t, err, gobreaker.ErrOpenState)
		assert.Equal(t, int32(3), calls.Load(), "при разомкнутом выключателе запрос не отправляется")

		require.ErrorIs(t, c.Health(context.Background()), gobreaker.ErrOpenState)
	})

	t.Run("ограничение частоты учитывает контекст", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, candidateBody(personaJSON))
		}))
		defer srv.Close()

		c, err := NewClient(Config{APIKey: "k", BaseURL: srv.URL, RequestsPerMinute: 1}, WithLogger(discardLogger()))
		require.NoError(t, err)

		_, err = c.Generate(context.Background(), "", "p")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err = c.Generate(ctx, "", "p")
		require.Error(t, err)
	})
}

func TestClient_Health(t *testing.T) {
	t.Run("модель доступна", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1beta/models/test-model", r.URL.Path)
			_, _ = io.WriteString(w, `{"name":"models/test-model"}`)
		}))
		defer srv.Close()

		require.NoError(t, newTestClient(t, srv).Health(context.Background()))
	})

	t.Run("неверный ключ", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		require.Error(t, newTestClient(t, srv).Health(context.Background()))
	})
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}
