package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"minerva/internal/adapters/config"
	"minerva/internal/adapters/errors/noop"
	"minerva/internal/adapters/errors/sentry"
	"minerva/internal/adapters/mistral"
	"minerva/internal/adapters/prompts"
	"minerva/internal/agents"
	healthapi "minerva/internal/api/health"
	researchapi "minerva/internal/api/research"
	"minerva/internal/metrics"
	redisrepo "minerva/internal/repository/redis"
	"minerva/internal/tasks/activities"
	"minerva/internal/tasks/workflows"
	"minerva/pkg/errors"
	"minerva/pkg/logger"
)

const reportTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	// Register metrics
	metrics.Register()

	// Connect to the workflow engine
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Temporal: %v", err)
	}
	defer temporalClient.Close()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = redisClient.Close() }()

	reports := redisrepo.NewReportRepository(redisClient, reportTTL)

	// Build the activity set with its external collaborators
	acts := activities.New(activities.Deps{
		Platform: mistral.NewHTTPClient(cfg.Mistral.BaseURL, cfg.Mistral.APIKey, cfg.Mistral.Timeout),
		Prompts:  prompts.NewHTTPSource(cfg.Prompts.Timeout),
		Reports:  reports,
		Roles:    agents.DefaultRoleConfigs,
		Mounts: map[agents.PromptServer]string{
			agents.PromptServerFinancials: cfg.Prompts.FinancialsURL(),
			agents.PromptServerPrices:     cfg.Prompts.PricesURL(),
		},
		Log: log,
	})

	// Register the pipeline worker
	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{})
	research := workflows.NewResearch(cfg.Retry, cfg.Plan)
	w.RegisterWorkflowWithOptions(research.Run, workflow.RegisterOptions{Name: workflows.WorkflowName})
	w.RegisterActivity(acts)

	if err := w.Start(); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	log.Infof("Worker started on task queue %q", cfg.Temporal.TaskQueue)

	// HTTP API: research endpoints, probes and metrics
	mux := http.NewServeMux()
	researchapi.New(log, temporalClient, reports, cfg.Temporal.TaskQueue, cfg.API.QueryTimeout).Register(mux)
	healthapi.New(log, temporalClient, redisClient, cfg.App.Name, cfg.App.Version).Register(mux)
	mux.Handle("GET /metrics", metrics.Handler())

	server := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Infof("HTTP server listening on %s", cfg.API.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	waitForShutdown(server, w, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains components
func waitForShutdown(server *http.Server, w worker.Worker, tracker errors.Tracker, log *logger.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infof("Received signal %v, shutting down...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP server shutdown: %v", err)
	}
	w.Stop()

	if err := tracker.Flush(shutdownCtx); err != nil {
		log.Warnf("Error tracker flush: %v", err)
	}
	log.Info("Shutdown complete")
}
