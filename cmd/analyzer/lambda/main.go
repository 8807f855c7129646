package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

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

// Shared by warm invocations of the same container, so fallback search
// results remembered by the lookup outlive a single request.
var (
	store  session.Store
	lookup *tools.IngredientLookup
)

func main() {
	fn := func(ctx context.Context, params ingredientagent.AnalysisRequest) (ingredientagent.Result, error) {
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

		ingredients, err := ingredientLookup(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to create ingredient lookup", "error", err)
			return ingredientagent.Result{}, err
		}

		gens, err := llm.NewGenerators(ctx, modelConfig, agentConfig)
		if err != nil {
			slog.Error("SETUP: Failed to create LLM clients", "provider", modelConfig.Provider, "error", err)
			return ingredientagent.Result{}, err
		}

		registry, err := tools.NewRegistry(ingredients, tools.NewIngredientSearch(gens.Search, ingredients))
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return ingredientagent.Result{}, err
		}

		sessions, err := sessionStore(ctx, sessionConfig)
		if err != nil {
			slog.Error("SETUP: Failed to create session store", "error", err)
			return ingredientagent.Result{}, err
		}

		req, err := session.Prepare(ctx, sessions, params)
		if err != nil {
			slog.Error("SESSION: Failed to restore profile", "error", err)
			return ingredientagent.Result{}, err
		}

		tracerProvider, meterProvider, otelShutdown, err := ingredientagent.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return ingredientagent.Result{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()
		meter := meterProvider.Meter(ingredientagent.MeterNameWorkflow)

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
			Logger:    ingredientagent.NewStdoutStageLogger(),
			Tracer:    tracerProvider.Tracer(ingredientagent.TracerNameWorkflow),
			Meter:     meter,
		})

		start := time.Now()
		state := orchestrator.Analyze(ctx, req)
		res := ingredientagent.NewResult(state, time.Since(start))

		if err := session.Record(ctx, sessions, state, res, time.Now()); err != nil {
			slog.Error("SESSION: Failed to record analysis", "session_id", state.SessionID, "error", err)
		}

		if notifyConfig.SlackWebhookURL != "" {
			var slackClient ingredientagent.SlackClient = slack.NewClient(notifyConfig.SlackWebhookURL, http.DefaultClient)
			if err := slackClient.PostResult(ctx, notifyConfig.SlackChannel, res); err != nil {
				slog.Error("Failed to post result to Slack", "error", err)
			}
		}

		slog.Info("RESULT: Analysis finished",
			"session_id", res.SessionID,
			"success", res.Success,
			"overall_risk", res.OverallRisk,
			"verdict", res.Verdict,
			"execution_time", res.ExecutionTime,
		)
		return res, nil
	}

	lambda.Start(fn)
}

// sessionStore returns a Redis-backed store when REDIS_URL is set and an
// in-memory one otherwise, created on the first invocation.
func sessionStore(ctx context.Context, cfg ingredientagent.SessionConfig) (session.Store, error) {
	if store != nil {
		return store, nil
	}
	opts := session.Options{TTL: cfg.TTL, HistoryLimit: cfg.HistoryLimit}
	if cfg.RedisURL == "" {
		store = session.NewMemoryStore(opts)
		return store, nil
	}
	rdb, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	store = session.NewRedisStore(rdb, opts)
	return store, nil
}

// ingredientLookup reads the knowledge base location from the environment
// and builds the S3-backed lookup on the first invocation.
func ingredientLookup(ctx context.Context) (*tools.IngredientLookup, error) {
	if lookup != nil {
		return lookup, nil
	}

	s3Bucket := os.Getenv("ARTIFACTS_S3_BUCKET")
	kbKey := os.Getenv("ARTIFACTS_KNOWLEDGE_BASE_S3_KEY")
	if s3Bucket == "" || kbKey == "" {
		return nil, fmt.Errorf("missing S3 config: ARTIFACTS_S3_BUCKET, ARTIFACTS_KNOWLEDGE_BASE_S3_KEY must be set")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	lookup = tools.NewIngredientLookup(storage.NewS3KnowledgeBase(s3.NewFromConfig(awsCfg), s3Bucket, kbKey))
	slog.Info("SETUP: S3 knowledge base configured", "bucket", s3Bucket, "key", kbKey)
	return lookup, nil
}
