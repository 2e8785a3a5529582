package exporter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chat-wrapped/internal/domain"
)

func TestWorkbookBytes(t *testing.T) {
	data, err := WorkbookBytes(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStats, SheetTopWords, SheetActiveHours, SheetPersona}, f.GetSheetList())

	total, err := f.GetCellValue(SheetStats, "B2")
	require.NoError(t, err)
	assert.Equal(t, "12", total)

	word, err := f.GetCellValue(SheetTopWords, "B2")
	require.NoError(t, err)
	assert.Equal(t, "golang", word)

	rows, err := f.GetRows(SheetActiveHours)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"9", "2"}, rows[1])
	assert.Equal(t, []string{"22", "10"}, rows[2])

	archetype, err := f.GetCellValue(SheetPersona, "B2")
	require.NoError(t, err)
	assert.Equal(t, "The Mystery Chatter", archetype)
}

func TestWorkbookBytes_WithoutPersona(t *testing.T) {
	report := sampleReport()
	report.Persona = nil

	data, err := WorkbookBytes(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetStats, SheetTopWords, SheetActiveHours}, f.GetSheetList())
}

func TestExcelExporter(t *testing.T) {
	t.Run("Export сохраняет файл", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wrapped.xlsx")
		require.NoError(t, NewExcelExporter(path).Export(sampleReport()))

		f, err := excelize.OpenFile(path)
		require.NoError(t, err)
		defer f.Close()
		assert.Contains(t, f.GetSheetList(), SheetPersona)
	})

	t.Run("Export без пути возвращает ошибку", func(t *testing.T) {
		assert.Error(t, NewExcelExporter("").Export(sampleReport()))
	})

	t.Run("Export с nil отчетом возвращает ошибку", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nil.xlsx")
		assert.Error(t, NewExcelExporter(path).Export((*domain.WrappedReport)(nil)))
	})
}
