// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"dashboard-assistant/internal/common/camunda"
	"dashboard-assistant/internal/common/config"
	"dashboard-assistant/internal/common/database"
	"dashboard-assistant/internal/common/logger"
	"dashboard-assistant/internal/common/observability"
	"dashboard-assistant/internal/common/retrieval"
	"dashboard-assistant/internal/workers/assistant"

	ags "dashboard-assistant/internal/workers/assistant/aggregate-sales"
	aq "dashboard-assistant/internal/workers/assistant/analyze-query"
	bc "dashboard-assistant/internal/workers/assistant/build-context"
	fs "dashboard-assistant/internal/workers/assistant/fetch-sources"
	fc "dashboard-assistant/internal/workers/assistant/format-context"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	if err := config.ValidateForWorkers(cfg); err != nil {
		zapLog.Fatal("invalid worker configuration", zap.Error(err))
	}

	obs, err := observability.NewWithOptions(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		TracingEnabled: cfg.Observability.TracingEnabled,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	})
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
		obs = observability.NewNoop()
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Stores behind the retrieval backends ---
	stores, err := database.Open(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("store connection failed", zap.Error(err))
	}
	defer stores.Close()

	retriever, err := retrieval.NewFromConfig(cfg.Retrieval, stores.Backends())
	if err != nil {
		zapLog.Fatal("retrieval setup failed", zap.Error(err))
	}

	engine, err := assistant.NewEngine(cfg, retriever, log, obs)
	if err != nil {
		zapLog.Fatal("engine setup failed", zap.Error(err))
	}
	zapLog.Info("Context engine ready",
		zap.String("catalogVersion", engine.Catalog.Version()),
		zap.Int("sources", len(engine.Catalog.All())),
		zap.Int("rules", len(engine.Rules.Rules)),
		zap.String("backend", cfg.Retrieval.Backend),
	)

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe connection failed", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- Workers ---
	var workers []*camunda.Worker
	start := func(taskType string, handler worker.JobHandler) {
		if w := startWorker(zeebe.GetClient(), taskType, cfg, handler, log); w != nil {
			workers = append(workers, w)
		}
	}

	analyzeCfg := aq.LoadConfig()
	analyzeCfg.Timeout = workerTimeout(cfg, aq.TaskType)
	start(aq.TaskType, aq.NewHandler(analyzeCfg, engine.Analyzer, log).Handle)

	fetchCfg := fs.LoadConfig()
	fetchCfg.Timeout = workerTimeout(cfg, fs.TaskType)
	start(fs.TaskType, fs.NewHandler(fetchCfg, engine.Fetcher, log).Handle)

	aggregateCfg := ags.LoadConfig()
	aggregateCfg.Timeout = workerTimeout(cfg, ags.TaskType)
	start(ags.TaskType, ags.NewHandler(aggregateCfg, engine.Aggregator, log).Handle)

	formatCfg := fc.LoadConfig()
	formatCfg.Timeout = workerTimeout(cfg, fc.TaskType)
	start(fc.TaskType, fc.NewHandler(formatCfg, engine.Formatter, log).Handle)

	buildCfg := bc.LoadConfig()
	buildCfg.Timeout = workerTimeout(cfg, bc.TaskType)
	buildCfg.DefaultMonth = cfg.Assistant.DefaultMonth
	start(bc.TaskType, bc.NewHandler(buildCfg, engine.Builder, log).Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- API, Health & Metrics Server ---
	apiCfg := bc.LoadConfig()
	apiCfg.Timeout = config.GetDuration(cfg.Assistant.RequestTimeout)
	apiCfg.DefaultMonth = cfg.Assistant.DefaultMonth

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := stores.Ping(pingCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if err := zeebe.HealthCheck(pingCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle(bc.ContextPath, bc.NewHTTPHandler(apiCfg, engine.Builder, log))

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}

func startWorker(client zbc.Client, taskType string, cfg *config.Config, handler worker.JobHandler, log logger.Logger) *camunda.Worker {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	if !wcfg.Enabled {
		log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return nil
	}

	return camunda.NewWorker(client, taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}, handler, log)
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
