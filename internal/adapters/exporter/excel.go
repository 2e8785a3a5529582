package exporter

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/ports"
)

// Имена листов рабочей книги.
const (
	SheetStats       = "Stats"
	SheetTopWords    = "Top Words"
	SheetActiveHours = "Active Hours"
	SheetPersona     = "Persona"
)

// ExcelExporter реализует интерфейс Exporter для записи отчета в xlsx-файл.
type ExcelExporter struct {
	path string
}

// NewExcelExporter создает новый экземпляр ExcelExporter, пишущий в указанный файл.
func NewExcelExporter(path string) ports.Exporter {
	return &ExcelExporter{path: path}
}

// Export сохраняет рабочую книгу на диск.
func (e *ExcelExporter) Export(report *domain.WrappedReport) error {
	if e.path == "" {
		return fmt.Errorf("не указан путь к файлу")
	}

	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", e.path, err)
	}
	return nil
}

// WriteWorkbook пишет рабочую книгу отчета в w.
func WriteWorkbook(w io.Writer, report *domain.WrappedReport) error {
	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WorkbookBytes возвращает рабочую книгу отчета в виде байтового среза.
func WorkbookBytes(report *domain.WrappedReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildWorkbook(report *domain.WrappedReport) (*excelize.File, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetStats); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}

	w := &sheetWriter{f: f}
	w.stats(report.Stats)
	w.topWords(report.Stats.TopWords)
	w.activeHours(report.Stats.ActiveHours)
	if report.Persona != nil {
		w.persona(report.Persona)
	}
	if w.err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to build workbook: %w", w.err)
	}

	f.SetActiveSheet(0)
	return f, nil
}

// sheetWriter запоминает первую ошибку записи, чтобы не проверять каждую ячейку.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) newSheet(name string) {
	if w.err != nil {
		return
	}
	_, w.err = w.f.NewSheet(name)
}

func (w *sheetWriter) row(sheet string, row int, values ...any) {
	for i, v := range values {
		if w.err != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			w.err = err
			return
		}
		w.err = w.f.SetCellValue(sheet, cell, v)
	}
}

func (w *sheetWriter) stats(s domain.ChatStats) {
	w.row(SheetStats, 1, "Metric", "Value")
	w.row(SheetStats, 2, "Total messages", s.TotalMessages)
	w.row(SheetStats, 3, "User messages", s.UserMessageCount)
	w.row(SheetStats, 4, "AI messages", s.AIMessageCount)
	w.row(SheetStats, 5, "Words", s.WordCount)
	w.row(SheetStats, 6, "Hours spent", s.HoursSpent)
	w.row(SheetStats, 7, "Most active hour", s.MostActiveHour)
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetStats, "A", "A", 20)
	}
}

func (w *sheetWriter) topWords(words []domain.WordCount) {
	w.newSheet(SheetTopWords)
	w.row(SheetTopWords, 1, "Rank", "Word", "Count")
	for i, word := range words {
		w.row(SheetTopWords, i+2, i+1, word.Word, word.Count)
	}
}

func (w *sheetWriter) activeHours(hours map[string]int) {
	w.newSheet(SheetActiveHours)
	w.row(SheetActiveHours, 1, "Hour", "Messages")

	keys := make([]int, 0, len(hours))
	for h := range hours {
		if n, err := strconv.Atoi(h); err == nil {
			keys = append(keys, n)
		}
	}
	sort.Ints(keys)
	for i, h := range keys {
		w.row(SheetActiveHours, i+2, h, hours[strconv.Itoa(h)])
	}
}

func (w *sheetWriter) persona(p *domain.Persona) {
	w.newSheet(SheetPersona)
	fields := [][2]string{
		{"Archetype", p.Archetype},
		{"Description", p.Description},
		{"Vibe color", p.VibeColor},
		{"Power word", p.PowerWord},
		{"Soundtrack", p.Soundtrack},
		{"Top themes", strings.Join(p.TopThemes, "; ")},
		{"Biggest wins", strings.Join(p.BiggestWins, "; ")},
		{"Thinking patterns", p.ThinkingPatterns},
		{"Mindset roadblocks", p.MindsetRoadblocks},
		{"Unhinged moment", p.UnhingedMoment.Quote},
		{"Unhinged context", p.UnhingedMoment.Context},
		{"Most asked question", p.MostAskedQuestion.Question},
		{"Insight", p.MostAskedQuestion.Insight},
		{"Chatting style", p.ChattingStyle.Badge},
		{"Style description", p.ChattingStyle.Description},
		{"Power skill", p.PowerSkill.Skill},
		{"Skill description", p.PowerSkill.Description},
		{"Final message", p.FinalMotivationalMessage},
	}
	w.row(SheetPersona, 1, "Field", "Value")
	for i, field := range fields {
		w.row(SheetPersona, i+2, field[0], field[1])
	}
	for i, m := range p.TopMoments {
		w.row(SheetPersona, len(fields)+i+2, fmt.Sprintf("Moment %d", i+1), m.Quote, m.Reasoning)
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetPersona, "A", "A", 22)
	}
}
