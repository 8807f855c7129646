package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ingredientagent"
	"ingredientagent/agents/analysis"
	"ingredientagent/agents/critic"
	"ingredientagent/agents/research"
	"ingredientagent/llm"
	"ingredientagent/session"
	"ingredientagent/slack"
	"ingredientagent/tools"
	"ingredientagent/tools/storage"
	"ingredientagent/workflow"
)

// Usage: analyzer "<comma separated ingredients>" ["<product name>"] ["<allergies>"] ["<skin type>"] ["<expertise>"]
func main() {
	ctx := context.Background()

	var modelConfig ingredientagent.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var agentConfig ingredientagent.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var sessionConfig ingredientagent.SessionConfig
	if err := envdecode.Decode(&sessionConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	var notifyConfig ingredientagent.NotifyConfig
	if err := envdecode.Decode(&notifyConfig); err != nil {
		log.Fatalf("Failed to decode: %s", err)
	}

	req := ingredientagent.AnalysisRequest{
		SessionID:   os.Getenv("SESSION_ID"),
		Ingredients: ingredientagent.ParseIngredientList(argOr(1, "Water, Glycerin, Fragrance, Phenoxyethanol")),
		ProductName: argOr(2, ""),
		Allergies:   ingredientagent.ParseIngredientList(argOr(3, "")),
		SkinType:    argOr(4, ""),
		Expertise:   argOr(5, ""),
	}

	store, closeStore, err := newSessionStore(ctx, sessionConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create session store", "error", err)
		return
	}
	defer closeStore()

	req, err = session.Prepare(ctx, store, req)
	if err != nil {
		slog.Error("SESSION: Failed to restore profile", "error", err)
		return
	}

	kb := storage.NewFileKnowledgeBase(agentConfig.KnowledgeBasePath)
	gens, err := llm.NewGenerators(ctx, modelConfig, agentConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create LLM clients", "provider", modelConfig.Provider, "error", err)
		return
	}

	lookup := tools.NewIngredientLookup(kb)
	registry, err := tools.NewRegistry(lookup, tools.NewIngredientSearch(gens.Search, lookup))
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		return
	}
	slog.Info("SETUP: Tool registry ready", "knowledge_base", agentConfig.KnowledgeBasePath, "provider", modelConfig.Provider)

	stageLogger, cleanup, err := newStageLogger(req.SessionID, modelConfig.Provider)
	if err != nil {
		slog.Error("SETUP: Failed to create stage logger", "error", err)
		return
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush stage log", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := ingredientagent.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(ingredientagent.TracerNameWorkflow)
	meter := meterProvider.Meter(ingredientagent.MeterNameWorkflow)
	ctx, span := tracer.Start(ctx, "analyzer.local", trace.WithAttributes(
		attribute.String("model.provider", modelConfig.Provider),
		attribute.String("model.id", modelConfig.ModelID),
		attribute.Int("agent.max_retries", agentConfig.MaxRetries),
		attribute.Int("agent.batch_size", agentConfig.BatchSize),
	))
	defer span.End()

	orchestrator := workflow.NewOrchestrator(workflow.Stages{
		Research: research.NewResearcher(registry, research.Options{
			BatchSize:           agentConfig.BatchSize,
			ConfidenceThreshold: agentConfig.ConfidenceThreshold,
			Tracer:              tracerProvider.Tracer(ingredientagent.TracerNameResearch),
			Meter:               meter,
		}),
		Analysis: analysis.NewAnalyst(gens.Analysis),
		Critic:   critic.NewCritic(gens.Critic, agentConfig.MaxRetries),
	}, workflow.Options{
		MaxSteps:  agentConfig.MaxSteps,
		BatchSize: agentConfig.BatchSize,
		Logger:    stageLogger,
		Tracer:    tracer,
		Meter:     meter,
	})

	start := time.Now()
	state := orchestrator.Analyze(ctx, req)
	res := ingredientagent.NewResult(state, time.Since(start))

	if err := session.Record(ctx, store, state, res, time.Now()); err != nil {
		slog.Error("SESSION: Failed to record analysis", "session_id", state.SessionID, "error", err)
	}

	if agentConfig.DumpState {
		ingredientagent.Dump(state)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		slog.Error("RESULT: Failed to encode result", "error", err)
		return
	}
	fmt.Println(string(out))

	notify(ctx, notifyConfig, res)
}

// notify posts the result to the configured webhook, or to a local server
// that only logs the request when none is configured.
func notify(ctx context.Context, cfg ingredientagent.NotifyConfig, res ingredientagent.Result) {
	webhookURL := cfg.SlackWebhookURL
	if webhookURL == "" {
		testServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := new(bytes.Buffer)
			body.ReadFrom(r.Body) // nolint: errcheck
			slog.Info("FINAL: Received request",
				"method", r.Method,
				"path", r.URL.Path,
				"body", body.String(),
			)
			w.WriteHeader(http.StatusOK)
		}))
		defer testServer.Close()
		webhookURL = testServer.URL
	}

	var slackClient ingredientagent.SlackClient = slack.NewClient(webhookURL, http.DefaultClient)
	if err := slackClient.PostResult(ctx, cfg.SlackChannel, res); err != nil {
		slog.Error("Failed to post result to Slack", "error", err)
	}
}

func newSessionStore(ctx context.Context, cfg ingredientagent.SessionConfig) (session.Store, func(), error) {
	opts := session.Options{TTL: cfg.TTL, HistoryLimit: cfg.HistoryLimit}
	if cfg.RedisURL == "" {
		return session.NewMemoryStore(opts), func() {}, nil
	}
	rdb, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := rdb.Close(); err != nil {
			slog.Error("SESSION: Failed to close redis client", "error", err)
		}
	}
	return session.NewRedisStore(rdb, opts), closeFn, nil
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func newStageLogger(sessionID, provider string) (ingredientagent.StageLogger, func() error, error) {
	logFilePath := ingredientagent.NewStageLogFilePath(sessionID, provider)
	if err := os.MkdirAll(filepath.Dir(logFilePath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := ingredientagent.NewFileStageLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
