package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"chat-wrapped/internal/adapters/exporter"
	"chat-wrapped/internal/bot"
	"chat-wrapped/internal/domain"
)

func main() {
	var (
		serverAddr string
		text       string
		rawJSON    bool
		interval   time.Duration
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&text, "text", "", "Текст переписки вместо файла")
	flag.BoolVar(&rawJSON, "json", false, "Вывести отчет в JSON")
	flag.DurationVar(&interval, "interval", 2*time.Second, "Интервал опроса статуса задачи")
	flag.Parse()

	if text == "" && flag.NArg() != 1 {
		log.Fatal("Usage: client [flags] <conversations.json> или client -text \"...\"")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := bot.NewServerClient(serverAddr, 60*time.Second)

	var (
		started *bot.StartTaskResponse
		err     error
	)
	if text != "" {
		started, err = client.StartTextTask(ctx, text)
	} else {
		path := flag.Arg(0)
		file, openErr := os.Open(path)
		if openErr != nil {
			log.Fatalf("Не удалось открыть файл %s: %v", path, openErr)
		}
		started, err = client.StartFileTask(ctx, filepath.Base(path), file)
		_ = file.Close()
	}
	if err != nil {
		log.Fatalf("Не удалось создать задачу: %v", err)
	}

	fmt.Fprintf(os.Stderr, "Задача создана с идентификатором: %s\n", started.TaskID)

	report, err := waitForReport(ctx, client, started.TaskID, interval)
	if err != nil {
		log.Fatal(err)
	}

	if rawJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("Не удалось вывести отчет: %v", err)
		}
		return
	}

	if err := exporter.NewConsoleExporter(os.Stdout, exporter.DefaultLayout()).Export(report); err != nil {
		log.Fatalf("Не удалось вывести отчет: %v", err)
	}
}

// waitForReport опрашивает статус задачи, пока она не завершится.
func waitForReport(ctx context.Context, client *bot.ServerClient, taskID string, interval time.Duration) (*domain.WrappedReport, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		status, err := client.GetTaskStatus(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("не удалось опросить статус задачи: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Статус задачи: %s\n", status.Status)

		switch status.Status {
		case "completed":
			return client.GetTaskResult(ctx, taskID)
		case "failed":
			return nil, fmt.Errorf("задача не выполнена: %s", status.ErrorMessage)
		case "pending", "processing":
			continue
		default:
			return nil, fmt.Errorf("неизвестный статус задачи: %s", status.Status)
		}
	}
}
