package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"ingredientagent"
)

const DefaultMaxSteps = 50

// Stage is one agent of the workflow. Implementations never mutate state;
// they return the fields they produce.
type Stage interface {
	Run(ctx context.Context, state ingredientagent.WorkflowState) (ingredientagent.Update, error)
}

// Stages binds an agent to every routable stage.
type Stages struct {
	Research Stage
	Analysis Stage
	Critic   Stage
}

type Options struct {
	MaxSteps  int
	BatchSize int
	Logger    ingredientagent.StageLogger
	Tracer    trace.Tracer
	Meter     metric.Meter
}

// Orchestrator drives one WorkflowState from request to a terminal state.
// It holds no per-run state, so one value can serve concurrent runs.
type Orchestrator struct {
	stages    Stages
	maxSteps  int
	batchSize int
	logger    ingredientagent.StageLogger
	tracer    trace.Tracer

	runs          metric.Int64Counter
	runsFailed    metric.Int64Counter
	runsEscalated metric.Int64Counter
	stageCalls    metric.Int64Counter
	verdicts      metric.Int64Counter
	stageDuration metric.Float64Histogram
	runDuration   metric.Float64Histogram
	routingSteps  metric.Int64Gauge
}

func NewOrchestrator(stages Stages, opts Options) *Orchestrator {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}
	if opts.Logger == nil {
		opts.Logger = ingredientagent.NewNoOpStageLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(ingredientagent.TracerNameWorkflow)
	}
	if opts.Meter == nil {
		opts.Meter = otel.Meter(ingredientagent.MeterNameWorkflow)
	}

	o := &Orchestrator{
		stages:    stages,
		maxSteps:  opts.MaxSteps,
		batchSize: opts.BatchSize,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
	}

	meter := opts.Meter
	o.runs, _ = meter.Int64Counter("workflow_runs_total",
		metric.WithDescription("Total number of analysis runs started"))
	o.runsFailed, _ = meter.Int64Counter("workflow_runs_failed_total",
		metric.WithDescription("Total number of analysis runs that ended with an error"))
	o.runsEscalated, _ = meter.Int64Counter("workflow_runs_escalated_total",
		metric.WithDescription("Total number of analysis runs that ended escalated"))
	o.stageCalls, _ = meter.Int64Counter("stage_invocations_total",
		metric.WithDescription("Total number of agent invocations by stage"))
	o.verdicts, _ = meter.Int64Counter("critic_verdicts_total",
		metric.WithDescription("Total number of critic verdicts by outcome"))
	o.stageDuration, _ = meter.Float64Histogram("stage_duration_seconds",
		metric.WithDescription("Duration of individual agent invocations in seconds"))
	o.runDuration, _ = meter.Float64Histogram("workflow_duration_seconds",
		metric.WithDescription("Total duration of an analysis run in seconds"))
	o.routingSteps, _ = meter.Int64Gauge("workflow_steps",
		metric.WithDescription("Number of agent invocations in the latest run"))
	return o
}

// Analyze validates req, assigns a session id when none is given and runs
// the workflow to completion. Invalid input yields a terminal state with
// Error set and no stage invoked.
func (o *Orchestrator) Analyze(ctx context.Context, req ingredientagent.AnalysisRequest) ingredientagent.WorkflowState {
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	state, err := ingredientagent.NewWorkflowState(req)
	if err != nil {
		slog.Error("ORCHESTRATOR: Rejected request", "session_id", req.SessionID, "error", err)
		o.runs.Add(ctx, 1)
		o.runsFailed.Add(ctx, 1)
		return state
	}
	return o.Run(ctx, state)
}

// Run loops route-then-dispatch until the router returns StageEnd. A stage
// error is recorded in state and the router ends the run on the next
// decision. Exceeding the step ceiling records ErrMaxStepsExceeded.
func (o *Orchestrator) Run(ctx context.Context, state ingredientagent.WorkflowState) ingredientagent.WorkflowState {
	ctx, span := o.tracer.Start(ctx, "Orchestrator.Analyze", trace.WithAttributes(
		attribute.String("session_id", state.SessionID),
		attribute.String("product_name", state.ProductName),
		attribute.Int("ingredients", len(state.RawIngredientNames)),
	))
	defer span.End()

	o.runs.Add(ctx, 1)
	start := time.Now()
	slog.Info("ORCHESTRATOR: Starting run",
		"session_id", state.SessionID,
		"product", state.ProductName,
		"ingredients", len(state.RawIngredientNames),
		"max_steps", o.maxSteps,
	)

	step := 0
	for {
		next := Route(state)
		slog.Info("SUPERVISOR: Routing decision", "step", step+1, "next", next, "decision", Describe(state, o.batchSize))
		if next == ingredientagent.StageEnd {
			break
		}
		if step >= o.maxSteps {
			slog.Error("ORCHESTRATOR: Step ceiling reached", "max_steps", o.maxSteps, "history", state.RoutingHistory)
			state = state.WithError(ingredientagent.ErrMaxStepsExceeded)
			continue
		}
		step++
		state = o.runStage(ctx, step, next, state)
	}

	elapsed := time.Since(start)
	o.runDuration.Record(ctx, elapsed.Seconds())
	o.routingSteps.Record(ctx, int64(step))

	span.SetAttributes(
		attribute.Int("steps", step),
		attribute.Int("retry_count", state.RetryCount),
	)
	switch {
	case state.Error != "":
		o.runsFailed.Add(ctx, 1)
		span.SetStatus(codes.Error, state.Error)
		slog.Error("ORCHESTRATOR: Run failed", "session_id", state.SessionID, "error", state.Error, "steps", step, "duration", elapsed)
	case state.Escalated():
		o.runsEscalated.Add(ctx, 1)
		span.SetAttributes(attribute.String("verdict", string(state.Verdict.Verdict)))
		slog.Warn("ORCHESTRATOR: Run escalated", "session_id", state.SessionID, "retry_count", state.RetryCount, "steps", step, "duration", elapsed)
	default:
		if state.Verdict != nil {
			span.SetAttributes(attribute.String("verdict", string(state.Verdict.Verdict)))
		}
		slog.Info("ORCHESTRATOR: Run completed", "session_id", state.SessionID, "retry_count", state.RetryCount, "steps", step, "duration", elapsed)
	}
	return state
}

func (o *Orchestrator) runStage(ctx context.Context, step int, stage ingredientagent.Stage, state ingredientagent.WorkflowState) ingredientagent.WorkflowState {
	ctx, span := o.tracer.Start(ctx, "stage."+string(stage), trace.WithAttributes(
		attribute.String("session_id", state.SessionID),
		attribute.Int("step", step),
		attribute.Int("retry_count", state.RetryCount),
	))
	defer span.End()

	stageAttr := metric.WithAttributes(attribute.String("stage", string(stage)))
	o.stageCalls.Add(ctx, 1, stageAttr)

	start := time.Now()
	update, err := o.invoke(ctx, stage, state)
	elapsed := time.Since(start)
	o.stageDuration.Record(ctx, elapsed.Seconds(), stageAttr)

	entry := ingredientagent.StageLog{
		Step:      step,
		Stage:     stage,
		Timestamp: start,
		Duration:  elapsed,
	}

	next := state.Visit(stage, elapsed)
	if err != nil {
		err = fmt.Errorf("%s stage: %w", stage, err)
		span.SetStatus(codes.Error, "stage failed")
		span.RecordError(err)
		slog.Error("ORCHESTRATOR: Stage failed", "step", step, "stage", stage, "error", err)
		next = next.WithError(err)
		entry.Error = err.Error()
	} else {
		next = next.Apply(update)
		if update.Verdict != nil {
			entry.Verdict = update.Verdict.Verdict
			span.SetAttributes(attribute.String("verdict", string(update.Verdict.Verdict)))
			o.verdicts.Add(ctx, 1, metric.WithAttributes(attribute.String("verdict", string(update.Verdict.Verdict))))
		}
		slog.Info("ORCHESTRATOR: Stage completed", "step", step, "stage", stage, "duration", elapsed)
	}
	entry.RetryCount = next.RetryCount
	entry.Records = len(next.IngredientRecords)

	if lerr := o.logger.LogStage(entry); lerr != nil {
		slog.Warn("ORCHESTRATOR: Failed to log stage", "step", step, "error", lerr)
	}
	return next
}

// invoke calls the agent bound to stage, turning a panic into an error.
func (o *Orchestrator) invoke(ctx context.Context, stage ingredientagent.Stage, state ingredientagent.WorkflowState) (update ingredientagent.Update, err error) {
	agent := o.agent(stage)
	if agent == nil {
		return update, ingredientagent.ErrNotConfigured
	}

	defer func() {
		if r := recover(); r != nil {
			update, err = ingredientagent.Update{}, fmt.Errorf("panic: %v", r)
		}
	}()
	return agent.Run(ctx, state)
}

func (o *Orchestrator) agent(stage ingredientagent.Stage) Stage {
	switch stage {
	case ingredientagent.StageResearch:
		return o.stages.Research
	case ingredientagent.StageAnalysis:
		return o.stages.Analysis
	case ingredientagent.StageCritic:
		return o.stages.Critic
	}
	return nil
}
