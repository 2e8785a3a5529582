package ports

import (
	"context"

	"chat-wrapped/internal/domain"
)

// GeneratorClient определяет публичный интерфейс клиента генеративной модели.
type GeneratorClient interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (*domain.Persona, error)
	Health(ctx context.Context) error
	ID() string
}

// Router определяет интерфейс для роутера клиентов генеративной модели.
type Router interface {
	GetClient(ctx context.Context) (GeneratorClient, error)
	Stop()
}

// Strategy определяет интерфейс для стратегии выбора клиента.
type Strategy interface {
	Next(clients []GeneratorClient) (GeneratorClient, error)
}
