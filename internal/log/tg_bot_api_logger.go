package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// TGBotAPIAdapter пересылает сообщения go-telegram-bot-api/v5 в slog.
// Библиотека пишет в лог только сбои соединения и ответы с ошибками,
// поэтому строки с "error" или "fail" уходят на уровне Warn, остальные на Debug.
type TGBotAPIAdapter struct {
	Logger *slog.Logger
}

// Println реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	a.log(fmt.Sprintln(v...))
}

// Printf реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.log(fmt.Sprintf(format, v...))
}

func (a *TGBotAPIAdapter) log(msg string) {
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}

	msg = strings.TrimSpace(msg)
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "error") || strings.Contains(lower, "fail") {
		logger.Warn(msg, slog.String("source", "tgbotapi"))
		return
	}
	logger.Debug(msg, slog.String("source", "tgbotapi"))
}
