package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"chat-wrapped/internal/domain"
	"chat-wrapped/internal/generator"
	"chat-wrapped/internal/pkg/config"
	"chat-wrapped/internal/ports"
)

var (
	// ErrNoHealthyClients возвращается, когда в пуле нет доступных для работы клиентов.
	ErrNoHealthyClients = errors.New("no healthy clients available")
	// ErrClientNotFound возвращается, когда клиент с указанным ID не найден.
	ErrClientNotFound = errors.New("client not found")
)

// Option определяет функциональную опцию для конфигурации роутера.
type Option func(*Router) error

// WithEndpoints создает клиентов модели по списку конечных точек.
func WithEndpoints(endpoints []config.GeneratorEndpoint) Option {
	return func(r *Router) error {
		for i, ep := range endpoints {
			client, err := generator.NewClient(generator.Config{
				APIKey:            ep.APIKey,
				Model:             ep.Model,
				BaseURL:           ep.BaseURL,
				Timeout:           ep.Timeout,
				RequestsPerMinute: ep.RequestsPerMinute,
			}, generator.WithLogger(r.log.With("endpoint", i, "model", ep.Model)))
			if err != nil {
				return fmt.Errorf("endpoint %d: %w", i, err)
			}
			r.clients = append(r.clients, client)
		}
		return nil
	}
}

// WithClients добавляет уже созданных клиентов.
func WithClients(clients ...ports.GeneratorClient) Option {
	return func(r *Router) error {
		r.clients = append(r.clients, clients...)
		return nil
	}
}

// WithHealthCheckInterval — опция для установки интервала проверки работоспособности.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(r *Router) error {
		if d > 0 {
			r.healthCheckInterval = d
		}
		return nil
	}
}

// WithStrategy — опция для установки стратегии выбора клиента.
func WithStrategy(s ports.Strategy) Option {
	return func(r *Router) error {
		if s != nil {
			r.strategy = s
		}
		return nil
	}
}

// WithLogger — опция для установки логгера. Должна идти перед WithEndpoints,
// чтобы клиенты получили тот же логгер.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) error {
		if l != nil {
			r.log = l
		}
		return nil
	}
}

// Router управляет пулом клиентов модели, их состоянием и выбором.
type Router struct {
	mu        sync.RWMutex
	healthy   map[string]ports.GeneratorClient
	unhealthy map[string]ports.GeneratorClient
	strategy  ports.Strategy
	log       *slog.Logger

	clients             []ports.GeneratorClient
	healthCheckInterval time.Duration
	ticker              *time.Ticker
	done                chan struct{}
	stopOnce            sync.Once
	wg                  sync.WaitGroup
}

// NewRouter создает и запускает новый роутер.
func NewRouter(opts ...Option) (*Router, error) {
	r := &Router{
		healthy:             make(map[string]ports.GeneratorClient),
		unhealthy:           make(map[string]ports.GeneratorClient),
		strategy:            NewRoundRobinStrategy(),
		healthCheckInterval: 30 * time.Second,
		done:                make(chan struct{}),
		log:                 slog.Default().With("component", "router"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to configure router: %w", err)
		}
	}

	if len(r.clients) == 0 {
		return nil, errors.New("no generator endpoints provided to router")
	}

	for _, c := range r.clients {
		r.healthy[c.ID()] = c
	}
	r.clients = nil

	r.ticker = time.NewTicker(r.healthCheckInterval)
	r.wg.Add(1)
	go r.healthCheckLoop()

	return r, nil
}

// GetClient возвращает работоспособного клиента согласно текущей стратегии.
// Клиент обернут в clientWrapper, который отправляет его на проверку после ошибки.
func (r *Router) GetClient(ctx context.Context) (ports.GeneratorClient, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.healthy))
	for id := range r.healthy {
		ids = append(ids, id)
	}
	// Стабильный порядок нужен, чтобы обход по кругу был равномерным.
	sort.Strings(ids)
	clients := make([]ports.GeneratorClient, 0, len(ids))
	for _, id := range ids {
		clients = append(clients, r.healthy[id])
	}
	strategy := r.strategy
	r.mu.RUnlock()

	client, err := strategy.Next(clients)
	if err != nil {
		r.log.WarnContext(ctx, "Strategy failed to get next client", "error", err)
		return nil, fmt.Errorf("strategy failed to get next client: %w", err)
	}

	r.log.DebugContext(ctx, "Client selected by strategy", "client_id", client.ID())

	return &clientWrapper{GeneratorClient: client, router: r}, nil
}

// ClientByID возвращает клиента из любого пула по идентификатору.
func (r *Router) ClientByID(id string) (ports.GeneratorClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.healthy[id]; ok {
		return c, nil
	}
	if c, ok := r.unhealthy[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrClientNotFound, id)
}

// Counts возвращает размеры пулов здоровых и нездоровых клиентов.
func (r *Router) Counts() (healthy, unhealthy int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.healthy), len(r.unhealthy)
}

// SetStrategy позволяет безопасно сменить стратегию выбора клиента на лету.
func (r *Router) SetStrategy(s ports.Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategy = s
	r.log.Info("router strategy updated")
}

// Stop останавливает фоновую проверку работоспособности клиентов. Повторный вызов безопасен.
func (r *Router) Stop() {
	r.stopOnce.Do(func() {
		r.log.Info("stopping router...")
		r.ticker.Stop()
		close(r.done)
		r.wg.Wait()
		r.log.Info("router stopped")
	})
}

func (r *Router) healthCheckLoop() {
	defer r.wg.Done()
	for {
		select {
		case t := <-r.ticker.C:
			r.log.Debug("Health check ticker fired", "time", t)
			r.checkUnhealthyClients()
		case <-r.done:
			r.log.Info("Health check loop is stopping.")
			return
		}
	}
}

// checkUnhealthyClients проверяет нездоровых клиентов и возвращает восстановившихся в пул.
func (r *Router) checkUnhealthyClients() {
	r.mu.RLock()
	idsToCheck := make([]string, 0, len(r.unhealthy))
	for id := range r.unhealthy {
		idsToCheck = append(idsToCheck, id)
	}
	r.mu.RUnlock()

	if len(idsToCheck) == 0 {
		return
	}

	r.log.Debug("starting periodic health check for unhealthy clients", "count", len(idsToCheck))

	for _, id := range idsToCheck {
		r.mu.RLock()
		client, ok := r.unhealthy[id]
		r.mu.RUnlock()

		if !ok {
			continue
		}

		if err := client.Health(context.Background()); err == nil {
			r.log.Info("client recovered, moving back to healthy pool", "client_id", id)
			r.setClientHealthy(id)
		} else {
			r.log.Debug("Client remains unhealthy", "client_id", id, "reason", err)
		}
	}
}

// forceHealthCheck проверяет клиента после ошибки и при неудаче убирает его из пула здоровых.
func (r *Router) forceHealthCheck(client ports.GeneratorClient) {
	r.log.Debug("Принудительная проверка работоспособности клиента", "client_id", client.ID())
	if err := client.Health(context.Background()); err != nil {
		r.log.Warn(
			"Клиент не прошел принудительную проверку работоспособности после ошибки, перемещение в пул неработоспособных",
			"client_id", client.ID(),
			"reason", err,
		)
		r.setClientUnhealthy(client.ID())
	}
}

func (r *Router) setClientUnhealthy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.healthy[id]
	if !ok {
		return
	}

	delete(r.healthy, id)
	r.unhealthy[id] = client

	r.log.Warn("Client moved to unhealthy pool", "client_id", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}

func (r *Router) setClientHealthy(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.unhealthy[id]
	if !ok {
		return
	}

	delete(r.unhealthy, id)
	r.healthy[id] = client

	r.log.Info("Client moved back to healthy pool", "client_id", id, "healthy_count", len(r.healthy), "unhealthy_count", len(r.unhealthy))
}

// clientWrapper перехватывает ошибки вызовов модели и инициирует проверку клиента.
type clientWrapper struct {
	ports.GeneratorClient
	router *Router
}

func (w *clientWrapper) Generate(ctx context.Context, systemInstruction, prompt string) (*domain.Persona, error) {
	w.router.log.DebugContext(ctx, "Calling Generate via wrapper", "client_id", w.ID())
	res, err := w.GeneratorClient.Generate(ctx, systemInstruction, prompt)
	if err != nil && ctx.Err() == nil {
		w.router.log.WarnContext(ctx, "Generate call failed", "client_id", w.ID(), "error", err)
		go w.router.forceHealthCheck(w.GeneratorClient)
	}
	return res, err
}
