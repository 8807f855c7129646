package research

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ingredientagent"
	"ingredientagent/tools"
)

const (
	DefaultBatchSize           = 3
	DefaultConfidenceThreshold = 0.7
)

// ToolProvider is the slice of the tool registry the researcher needs.
type ToolProvider interface {
	GetTool(name string) (tools.Tool, error)
}

type Options struct {
	BatchSize           int
	ConfidenceThreshold float64
	Tracer              trace.Tracer
	Meter               metric.Meter
}

// Researcher produces exactly one record per requested ingredient name,
// in input order.
type Researcher struct {
	tools     ToolProvider
	batchSize int
	threshold float64
	tracer    trace.Tracer

	workers  metric.Int64Gauge
	outcomes metric.Int64Counter
}

func NewResearcher(provider ToolProvider, opts Options) *Researcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ConfidenceThreshold <= 0 {
		opts.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	r := &Researcher{
		tools:     provider,
		batchSize: opts.BatchSize,
		threshold: opts.ConfidenceThreshold,
		tracer:    opts.Tracer,
	}
	if opts.Meter != nil {
		r.workers, _ = opts.Meter.Int64Gauge("research_workers",
			metric.WithDescription("Number of concurrent research workers in the latest run"))
		r.outcomes, _ = opts.Meter.Int64Counter("research_records_total",
			metric.WithDescription("Total number of researched records by source"))
	}
	return r
}

// Run researches every raw ingredient name of state.
func (r *Researcher) Run(ctx context.Context, state ingredientagent.WorkflowState) (ingredientagent.Update, error) {
	if r.tools == nil {
		return ingredientagent.Update{}, fmt.Errorf("research tools: %w", ingredientagent.ErrNotConfigured)
	}
	records := r.Research(ctx, state.RawIngredientNames)
	return ingredientagent.Update{IngredientRecords: records}, nil
}

// Research looks up names sequentially when they fit in one batch and
// otherwise fans out one worker per chunk. The result always has
// len(names) entries in the same order.
func (r *Researcher) Research(ctx context.Context, names []string) []ingredientagent.IngredientRecord {
	start := time.Now()
	if len(names) <= r.batchSize {
		slog.Info("RESEARCH: Sequential lookup", "ingredients", len(names))
		r.recordWorkers(ctx, 1)
		records := r.researchChunk(ctx, 0, names)
		slog.Info("RESEARCH: Completed", "ingredients", len(records), "duration", time.Since(start))
		return records
	}

	chunks := ChunkNames(names, r.batchSize)
	slog.Info("RESEARCH: Parallel lookup", "ingredients", len(names), "workers", len(chunks))
	r.recordWorkers(ctx, len(chunks))

	results := make([][]ingredientagent.IngredientRecord, len(chunks))
	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			results[i] = r.researchChunk(ctx, i, chunk)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	records := make([]ingredientagent.IngredientRecord, 0, len(names))
	for _, chunk := range results {
		records = append(records, chunk...)
	}
	slog.Info("RESEARCH: Completed", "ingredients", len(records), "workers", len(chunks), "duration", time.Since(start))
	return records
}

// researchChunk never fails: a panic anywhere in the chunk turns the whole
// chunk into placeholders.
func (r *Researcher) researchChunk(ctx context.Context, index int, names []string) (records []ingredientagent.IngredientRecord) {
	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, "research.chunk", trace.WithAttributes(
			attribute.Int("chunk.index", index),
			attribute.Int("chunk.size", len(names)),
		))
		defer span.End()
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("RESEARCH: Chunk failed, substituting placeholders", "chunk", index, "panic", p)
			records = make([]ingredientagent.IngredientRecord, len(names))
			for i, name := range names {
				records[i] = ingredientagent.UnknownRecord(name)
			}
		}
	}()

	records = make([]ingredientagent.IngredientRecord, 0, len(names))
	for _, name := range names {
		records = append(records, r.researchOne(ctx, name))
	}
	return records
}

// researchOne tries the primary lookup, then the fallback search, then
// settles for a placeholder.
func (r *Researcher) researchOne(ctx context.Context, name string) ingredientagent.IngredientRecord {
	rec, err := r.call(ctx, tools.LookupToolName, name)
	if err != nil {
		slog.Warn("RESEARCH: Primary lookup failed", "ingredient", name, "error", err)
	}
	if rec != nil && rec.Confidence >= r.threshold {
		r.countOutcome(ctx, rec.Source)
		return *rec
	}
	if rec != nil {
		slog.Info("RESEARCH: Low confidence match, trying fallback", "ingredient", name, "confidence", rec.Confidence)
	}

	fallback, err := r.call(ctx, tools.SearchToolName, name)
	if err != nil {
		slog.Warn("RESEARCH: Fallback search failed", "ingredient", name, "error", err)
	}
	if fallback != nil {
		r.countOutcome(ctx, fallback.Source)
		return *fallback
	}

	slog.Warn("RESEARCH: No data found, using placeholder", "ingredient", name)
	r.countOutcome(ctx, ingredientagent.SourceUnknown)
	return ingredientagent.UnknownRecord(name)
}

func (r *Researcher) call(ctx context.Context, toolName, name string) (*ingredientagent.IngredientRecord, error) {
	tool, err := r.tools.GetTool(toolName)
	if err != nil {
		return nil, err
	}
	out, err := tool.Run(ctx, map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	rec, err := tools.DecodeResult(out)
	if err != nil || rec == nil {
		return nil, err
	}
	rec.Name = name
	return rec, nil
}

func (r *Researcher) recordWorkers(ctx context.Context, n int) {
	if r.workers != nil {
		r.workers.Record(ctx, int64(n))
	}
}

func (r *Researcher) countOutcome(ctx context.Context, source ingredientagent.RecordSource) {
	if r.outcomes != nil {
		r.outcomes.Add(ctx, 1, metric.WithAttributes(attribute.String("source", string(source))))
	}
}

// ChunkNames splits names into contiguous chunks of at most size entries.
func ChunkNames(names []string, size int) [][]string {
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks := make([][]string, 0, (len(names)+size-1)/size)
	for start := 0; start < len(names); start += size {
		end := min(start+size, len(names))
		chunks = append(chunks, names[start:end])
	}
	return chunks
}

// WorkerCount is the number of concurrent workers Research would use.
func WorkerCount(n, batchSize int) int {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if n <= batchSize {
		return 1
	}
	return (n + batchSize - 1) / batchSize
}
