package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chat-wrapped/cmd/bot/config"
	"chat-wrapped/internal/adapters/exporter"
	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/log"
)

const (
	startCommand  = "start"
	helpCommand   = "help"
	promptCommand = "prompt"

	// reportMarker открывает отчет, полученный по ручному запросу.
	reportMarker = "---BEGIN REPORT---"

	// maxMessageLength — ограничение Telegram на длину текстового сообщения.
	maxMessageLength = 4096
)

var errFileTooLarge = errors.New("file exceeds size limit")

// Bot представляет собой основной объект Telegram-бота.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          config.BotConfig
	serverClient ServerAPI
	taskStore    *TaskStore
	logger       *slog.Logger
	httpClient   *http.Client
	pollInterval time.Duration

	sendMessageFunc      func(tgbotapi.Chattable) (tgbotapi.Message, error)
	getFileDirectURLFunc func(fileID string) (string, error)
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.BotConfig, serverClient ServerAPI, taskStore *TaskStore, logger *slog.Logger) (*Bot, error) {
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))}); err != nil {
		return nil, fmt.Errorf("failed to set bot api logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("Authorized on account", slog.String("username", api.Self.UserName))

	return &Bot{
		api:                  api,
		cfg:                  cfg,
		serverClient:         serverClient,
		taskStore:            taskStore,
		logger:               logger,
		httpClient:           &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSeconds) * time.Second},
		pollInterval:         time.Duration(cfg.PollingIntervalSeconds) * time.Second,
		sendMessageFunc:      api.Send,
		getFileDirectURLFunc: api.GetFileDirectURL,
	}, nil
}

// Start запускает основной цикл обработки обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Context cancelled, stopping bot...")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case strings.Contains(msg.Text, reportMarker):
		b.handleReport(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		b.handleText(ctx, msg)
	default:
		b.reply(msg.Chat.ID, "Пожалуйста, отправьте файл conversations.json из выгрузки ChatGPT или вставьте текст переписки.")
	}
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCommand, helpCommand:
		b.reply(msg.Chat.ID, "Привет! Я собираю итоги ваших переписок с AI-ассистентами.\n\n"+
			"• Отправьте файл conversations.json из выгрузки ChatGPT.\n"+
			"• Или вставьте текст переписки прямо в сообщение.\n"+
			"• Команда /prompt выдаст запрос для ручного анализа. Вставьте ответ ассистента сюда, и я покажу итоги.\n\n"+
			"Файлы не сохраняются и обрабатываются на лету.")
	case promptCommand:
		b.handlePrompt(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "Я не знаю такой команды.")
	}
}

// handlePrompt отправляет запрос для ручного анализа.
func (b *Bot) handlePrompt(ctx context.Context, chatID int64) {
	prompt, err := b.serverClient.GetManualPrompt(ctx)
	if err != nil {
		b.logger.Error("failed to get manual prompt", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось получить запрос. Попробуйте позже.")
		return
	}

	if utf8.RuneCountInString(prompt) > maxMessageLength {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "chat_wrapped_prompt.txt", Bytes: []byte(prompt)})
		doc.Caption = "Скопируйте этот запрос в чат с ассистентом, а его ответ пришлите мне."
		b.sendMessage(doc)
		return
	}
	b.reply(chatID, prompt)
}

// handleReport разбирает отчет ассистента и сразу отвечает итогами.
func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	report, err := b.serverClient.ParseReport(ctx, msg.Text)
	if err != nil {
		b.logger.Warn("failed to parse report", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось прочитать отчет. Убедитесь, что скопировали его целиком.")
		return
	}
	b.sendReport(chatID, report)
}

// handleText запускает анализ вставленной переписки.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	b.startTask(ctx, msg.Chat.ID, func() (*StartTaskResponse, error) {
		return b.serverClient.StartTextTask(ctx, msg.Text)
	})
}

// handleDocument обрабатывает входящий документ (файл).
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	maxBytes := int64(b.cfg.MaxFileSizeMB) << 20

	if maxBytes > 0 && int64(msg.Document.FileSize) > maxBytes {
		b.reply(chatID, fmt.Sprintf("Файл слишком большой. Максимальный размер: %d МБ.", b.cfg.MaxFileSizeMB))
		return
	}

	b.startTask(ctx, chatID, func() (*StartTaskResponse, error) {
		body, err := b.downloadFile(ctx, msg.Document.FileID, maxBytes)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return b.serverClient.StartFileTask(ctx, msg.Document.FileName, body)
	})
}

// startTask резервирует чат, запускает задачу на бэкенде и опрос ее статуса.
func (b *Bot) startTask(ctx context.Context, chatID int64, start func() (*StartTaskResponse, error)) {
	logger := b.logger.With(slog.Int64("chat_id", chatID))

	if !b.taskStore.Reserve(chatID) {
		logger.Warn("user tried to start a new task while another is active")
		b.reply(chatID, "Пожалуйста, подождите завершения предыдущей задачи, прежде чем начинать новую.")
		return
	}

	resp, err := start()
	if err != nil {
		b.taskStore.Delete(chatID)
		logger.Error("failed to start task on backend", slog.String("error", err.Error()))
		if errors.Is(err, errFileTooLarge) {
			b.reply(chatID, fmt.Sprintf("Файл слишком большой. Максимальный размер: %d МБ.", b.cfg.MaxFileSizeMB))
			return
		}
		b.reply(chatID, "Не удалось начать обработку на сервере. Пожалуйста, попробуйте позже.")
		return
	}

	logger.Info("task started on backend", slog.String("task_id", resp.TaskID))
	b.taskStore.Set(chatID, resp.TaskID)
	b.reply(chatID, "✅ Данные получены и поставлены в очередь на обработку. Ожидайте результата.")

	go b.pollTaskStatus(ctx, chatID, resp.TaskID)
}

// downloadFile скачивает файл с серверов Telegram.
func (b *Bot) downloadFile(ctx context.Context, fileID string, maxBytes int64) (io.ReadCloser, error) {
	fileURL, err := b.getFileDirectURLFunc(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file direct url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		resp.Body.Close()
		return nil, errFileTooLarge
	}
	return resp.Body, nil
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.sendMessageFunc(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// pollTaskStatus асинхронно опрашивает статус задачи на бэкенд-сервере.
func (b *Bot) pollTaskStatus(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	defer b.taskStore.Delete(chatID)

	if b.cfg.PollTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(b.cfg.PollTimeoutSeconds)*time.Second)
		defer cancel()
	}

	interval := b.pollInterval
	if interval <= 0 {
		interval = time.Duration(b.cfg.PollingIntervalSeconds) * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Warn("polling stopped", slog.String("reason", ctx.Err().Error()))
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				b.reply(chatID, "Обработка заняла слишком много времени. Попробуйте еще раз позже.")
			}
			return
		case <-ticker.C:
			status, err := b.serverClient.GetTaskStatus(ctx, taskID)
			if err != nil {
				logger.Error("failed to get task status", slog.String("error", err.Error()))
				var statusErr *StatusError
				if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
					b.reply(chatID, "Задача не найдена на сервере. Попробуйте отправить данные еще раз.")
					return
				}
				continue
			}

			switch status.Status {
			case "completed":
				logger.Info("task completed")
				b.processCompletedTask(ctx, chatID, taskID)
				return
			case "failed":
				logger.Warn("task failed", slog.String("reason", status.ErrorMessage))
				b.reply(chatID, fmt.Sprintf("Произошла ошибка при обработке: %s", status.ErrorMessage))
				return
			case "pending", "processing":
				logger.Debug("task is in progress", slog.String("status", status.Status))
			default:
				logger.Warn("unknown task status", slog.String("status", status.Status))
			}
		}
	}
}

// processCompletedTask забирает отчет выполненной задачи и отправляет его пользователю.
func (b *Bot) processCompletedTask(ctx context.Context, chatID int64, taskID string) {
	report, err := b.serverClient.GetTaskResult(ctx, taskID)
	if err != nil {
		b.logger.Error("failed to fetch task result",
			slog.Int64("chat_id", chatID), slog.String("task_id", taskID), slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось получить результаты для выполненной задачи. Пожалуйста, попробуйте позже.")
		return
	}
	b.sendReport(chatID, report)
}

// sendReport отправляет моноширинную сводку и, для больших переписок, Excel-файл.
func (b *Bot) sendReport(chatID int64, report *domain.WrappedReport) {
	summary := exporter.RenderSummary(report, b.cfg.Render)
	text := "<pre>" + html.EscapeString(summary) + "</pre>"

	if utf8.RuneCountInString(text) > maxMessageLength {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "chat_wrapped.txt", Bytes: []byte(summary)})
		doc.Caption = "Ваши итоги получились длинными, поэтому они в файле."
		b.sendMessage(doc)
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		b.sendMessage(msg)
	}

	if report.Stats.TotalMessages < b.cfg.ExcelThreshold {
		return
	}

	data, err := exporter.WorkbookBytes(report)
	if err != nil {
		b.logger.Error("failed to build workbook", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось сгенерировать Excel-файл.")
		return
	}

	fileName := fmt.Sprintf("chat_wrapped_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = fmt.Sprintf("Анализ завершен. Сообщений: %d.", report.Stats.TotalMessages)
	b.sendMessage(doc)
}
