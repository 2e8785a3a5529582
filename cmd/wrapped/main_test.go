package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chat-wrapped/internal/adapters/exporter"
	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/pkg/config"
	"chat-wrapped/internal/ports"
	"chat-wrapped/internal/server/usecase"
)

// 2025-01-01 10:00:00 UTC
const exportFixture = `[{"title":"go","mapping":{
"a":{"message":{"author":{"role":"user"},"content":{"parts":["how do golang channels work"]},"create_time":1735725600}},
"b":{"message":{"author":{"role":"assistant"},"content":{"parts":["golang channels pass values between goroutines"]},"create_time":1735725660}},
"c":{"message":{"author":{"role":"user"},"content":{"parts":["thanks, golang rocks"]},"create_time":1735725720}}
}}]`

type stubPersona struct {
	persona *domain.Persona
	err     error
	calls   int
}

func (s *stubPersona) Generate(_ context.Context, _ domain.ChatStats, _ string) (*domain.Persona, error) {
	s.calls++
	return s.persona, s.err
}

func testDeps(p ports.PersonaService) deps {
	return deps{
		newPersona: func(cfg *config.Config) (ports.PersonaService, func(), error) {
			return p, func() {}, nil
		},
		now: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func execute(t *testing.T, d deps, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")

	cmd := newRootCmd(d)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func missingConfig(t *testing.T) string {
	return filepath.Join(t.TempDir(), "config.yml")
}

func TestAnalyze_ExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.json")
	require.NoError(t, os.WriteFile(path, []byte(exportFixture), 0o600))

	out, err := execute(t, testDeps(nil), "", "analyze", path, "--config", missingConfig(t), "--timezone", "UTC")
	require.NoError(t, err)

	assert.Contains(t, out, "=== Chat Wrapped ===")
	assert.Contains(t, out, "Messages    : 3 (you 2 / AI 1)")
	assert.Contains(t, out, "Most active : 10:00")
	assert.Contains(t, out, "golang")
}

func TestAnalyze_StdinJSON(t *testing.T) {
	out, err := execute(t, testDeps(nil), "User: hello there\nAI: hi, how can I help\n",
		"analyze", "-", "--json", "--config", missingConfig(t))
	require.NoError(t, err)

	var report domain.WrappedReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Stats.TotalMessages)
	assert.Equal(t, 1, report.Stats.UserMessageCount)
	assert.Equal(t, 1, report.Stats.AIMessageCount)
	assert.Nil(t, report.Persona)
}

func TestAnalyze_Persona(t *testing.T) {
	t.Run("uses the generated persona", func(t *testing.T) {
		stub := &stubPersona{persona: &domain.Persona{Archetype: "The Gopher", Description: "Loves channels"}}

		out, err := execute(t, testDeps(stub), exportFixture,
			"analyze", "--persona", "--api-key", "AIza-test", "--json", "--config", missingConfig(t))
		require.NoError(t, err)

		var report domain.WrappedReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		require.NotNil(t, report.Persona)
		assert.Equal(t, "The Gopher", report.Persona.Archetype)
		assert.Equal(t, 1, stub.calls)
	})

	t.Run("requires an API key without a terminal", func(t *testing.T) {
		stub := &stubPersona{}
		_, err := execute(t, testDeps(stub), exportFixture, "analyze", "--persona", "--config", missingConfig(t))
		require.ErrorIs(t, err, errNoAPIKey)
		assert.Zero(t, stub.calls)
	})

	t.Run("propagates generator errors", func(t *testing.T) {
		stub := &stubPersona{err: errors.New("model unavailable")}
		_, err := execute(t, testDeps(stub), exportFixture,
			"analyze", "--persona", "--api-key", "k", "--config", missingConfig(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model unavailable")
	})
}

func TestAnalyze_InsufficientData(t *testing.T) {
	_, err := execute(t, testDeps(nil), "hi", "analyze", "-", "--config", missingConfig(t))
	assert.ErrorIs(t, err, usecase.ErrInsufficientData)
}

func TestAnalyze_Workbook(t *testing.T) {
	xlsx := filepath.Join(t.TempDir(), "wrapped.xlsx")

	_, err := execute(t, testDeps(nil), exportFixture, "analyze", "-", "--xlsx", xlsx, "--config", missingConfig(t))
	require.NoError(t, err)

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), exporter.SheetStats)
}

func TestPrompt(t *testing.T) {
	out, err := execute(t, testDeps(nil), "", "prompt")
	require.NoError(t, err)
	assert.Contains(t, out, "---BEGIN REPORT---")
	assert.Contains(t, out, "2026")

	out, err = execute(t, testDeps(nil), "", "prompt", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "2024")
}

func TestImportReport(t *testing.T) {
	report := `---BEGIN REPORT---
[STATS]
Total Messages: 120
Most Active Hour: 22
---END REPORT---`

	t.Run("renders a pasted report", func(t *testing.T) {
		out, err := execute(t, testDeps(nil), report, "import-report", "--json")
		require.NoError(t, err)

		var parsed domain.WrappedReport
		require.NoError(t, json.Unmarshal([]byte(out), &parsed))
		assert.Equal(t, 120, parsed.Stats.TotalMessages)
		assert.Equal(t, 22, parsed.Stats.MostActiveHour)
	})

	t.Run("rejects unrelated text", func(t *testing.T) {
		_, err := execute(t, testDeps(nil), "just some words", "import-report")
		assert.Error(t, err)
	})
}
