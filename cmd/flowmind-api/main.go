package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowmind/flowmind/internal/api"
	"github.com/flowmind/flowmind/internal/atoms"
	"github.com/flowmind/flowmind/internal/engine"
	"github.com/flowmind/flowmind/internal/events"
	"github.com/flowmind/flowmind/internal/planner"
	"github.com/flowmind/flowmind/internal/repo"
	"github.com/flowmind/flowmind/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flowmind_api_http_requests_total",
		Help: "Total HTTP requests handled by flowmind_api",
	})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowmind-api")

	ctx := context.Background()

	// Реестр атомов: файлы + опционально централизованный каталог в БД
	registry := atoms.NewRegistry()

	atomsDir := os.Getenv("ATOMS_DIR")
	if atomsDir == "" {
		atomsDir = "atoms"
	}
	if err := atoms.LoadDir(atomsDir, registry, logger); err != nil {
		logger.Error("failed to load atoms", "dir", atomsDir, "error", err)
		os.Exit(1)
	}

	if os.Getenv("DB_URL") != "" {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		defs, err := repo.NewAtomRepo(pool).ListDefinitions(ctx)
		if err != nil {
			logger.Error("failed to load atoms from database", "error", err)
			os.Exit(1)
		}
		registry.RegisterAll(defs)
		logger.Info("loaded atom catalog from database", "atoms", len(defs))
	}

	// Таблица диспетчеризации со встроенными реализациями
	invoker := atoms.NewInvoker()
	atoms.RegisterBuiltins(invoker, logger)

	// Планировщик: LLM при наличии ключа, иначе фиксированный mock
	var plnr planner.Planner
	if os.Getenv("OPENAI_API_KEY") != "" {
		llm, err := planner.NewLLM(registry, logger)
		if err != nil {
			logger.Error("failed to create LLM planner", "error", err)
			os.Exit(1)
		}
		plnr = llm
		logger.Info("using LLM planner")
	} else {
		plnr = planner.NewMock()
		logger.Info("using mock planner")
	}

	// События запусков: опционально, при наличии MQ_URL
	var publisher *events.Publisher
	if mqURL := os.Getenv("MQ_URL"); mqURL != "" {
		conn, err := events.NewConnection(mqURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		publisher, err = events.NewPublisher(ctx, conn, logger)
		if err != nil {
			logger.Error("failed to setup event topology", "error", err)
			os.Exit(1)
		}
		logger.Info("run events enabled", "exchange", events.Exchange)
	}

	executor := engine.NewExecutor(registry, invoker, logger)

	handler := api.NewHandler(api.Config{
		Registry:  registry,
		Planner:   plnr,
		Executor:  executor,
		Publisher: publisher,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr, "atoms", registry.Count())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	sigCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-sigCtx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
