package ecs

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/expfmt"
)

// Logger captures structured log output from the engine and from systems,
// adapted from the teacher's pluggable Logger interface.
type Logger interface {
	With(key string, value any) Logger
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Tracer coordinates tracing spans for observability tooling.
type Tracer interface {
	Start(name string) TraceSpan
}

// TraceSpan represents an active tracing region.
type TraceSpan interface {
	End()
}

// PhaseSummary captures execution metadata for one phase call
// (early_start/start/update/late_update/fixed_update/render/exit), the per-phase
// analogue of the teacher's WorkGroupSummary.
type PhaseSummary struct {
	Phase           Phase
	Tick            uint64
	Duration        time.Duration
	SystemsTotal    int
	SystemsExecuted int
	SystemsSkipped  int
	Error           error
	ComponentReads  []CompId
	ComponentWrites []CompId
}

// PhaseObserver receives a summary after each phase call completes.
type PhaseObserver interface {
	PhaseCompleted(summary PhaseSummary)
}

// ObservationLogFormat controls structured logging encoding.
type ObservationLogFormat uint8

const (
	ObservationLogFormatJSON ObservationLogFormat = iota
	ObservationLogFormatKeyValue
)

// PrometheusCollector handles phase summaries for Prometheus-style metrics.
type PrometheusCollector interface {
	ObservePhase(summary PhaseSummary)
}

type PrometheusCollectorOptions struct {
	Writer          io.Writer
	DurationBuckets []time.Duration
}

// SigNozExporter handles phase summaries for SigNoz platforms.
type SigNozExporter interface {
	ExportPhase(summary PhaseSummary)
}

type SigNozOptions struct {
	Writer      io.Writer
	ServiceName string
}

// ObservationSettings toggles built-in observer integrations, mirroring the
// teacher's InstrumentationConfig.ObservationSettings.
type ObservationSettings struct {
	Observer                PhaseObserver
	EnableStructuredLogging bool
	LoggingFormat           ObservationLogFormat
	StructuredLogger        Logger
	EnablePrometheus        bool
	PrometheusCollector     PrometheusCollector
	PrometheusOptions       *PrometheusCollectorOptions
	EnableSigNoz            bool
	SigNozExporter          SigNozExporter
	SigNozOptions           *SigNozOptions
}

type compositeObserver struct {
	observers []PhaseObserver
}

func (c compositeObserver) PhaseCompleted(summary PhaseSummary) {
	for _, observer := range c.observers {
		observer.PhaseCompleted(summary)
	}
}

type loggingObserver struct {
	logger Logger
	format ObservationLogFormat
}

func newLoggingObserver(logger Logger, format ObservationLogFormat) PhaseObserver {
	if logger == nil {
		return noopObserver{}
	}
	if format != ObservationLogFormatKeyValue {
		format = ObservationLogFormatJSON
	}
	return loggingObserver{logger: logger, format: format}
}

func (o loggingObserver) PhaseCompleted(summary PhaseSummary) {
	switch o.format {
	case ObservationLogFormatKeyValue:
		o.logKeyValue(summary)
	default:
		o.logJSON(summary)
	}
}

func (o loggingObserver) logJSON(summary PhaseSummary) {
	payload := map[string]any{
		"phase":            summary.Phase.String(),
		"tick":             summary.Tick,
		"duration_ms":      float64(summary.Duration) / float64(time.Millisecond),
		"systems_total":    summary.SystemsTotal,
		"systems_executed": summary.SystemsExecuted,
		"systems_skipped":  summary.SystemsSkipped,
		"component_reads":  summary.ComponentReads,
		"component_writes": summary.ComponentWrites,
	}
	if summary.Error != nil {
		payload["error"] = summary.Error.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.With("phase", summary.Phase.String()).Error("phase summary marshal error", "err", err)
		return
	}
	o.logger.Info(string(data))
}

func (o loggingObserver) logKeyValue(summary PhaseSummary) {
	builder := o.logger.With("phase", summary.Phase.String())
	args := []any{
		"tick", summary.Tick,
		"duration", summary.Duration,
		"systems_total", summary.SystemsTotal,
		"systems_executed", summary.SystemsExecuted,
		"systems_skipped", summary.SystemsSkipped,
		"component_reads", strings.Join(convertCompIds(summary.ComponentReads), ","),
		"component_writes", strings.Join(convertCompIds(summary.ComponentWrites), ","),
	}
	if summary.Error != nil {
		args = append(args, "error", summary.Error.Error())
	}
	builder.Info("phase summary", args...)
}

type prometheusObserver struct {
	collector PrometheusCollector
}

func newPrometheusObserver(collector PrometheusCollector) PhaseObserver {
	if collector == nil {
		return noopObserver{}
	}
	return prometheusObserver{collector: collector}
}

func (o prometheusObserver) PhaseCompleted(summary PhaseSummary) {
	o.collector.ObservePhase(summary)
}

type sigNozObserver struct {
	exporter SigNozExporter
}

func newSigNozObserver(exporter SigNozExporter) PhaseObserver {
	if exporter == nil {
		return noopObserver{}
	}
	return sigNozObserver{exporter: exporter}
}

func (o sigNozObserver) PhaseCompleted(summary PhaseSummary) {
	o.exporter.ExportPhase(summary)
}

func convertCompIds(ids []CompId) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%d", id))
	}
	sort.Strings(out)
	return out
}

func buildObserverChain(logger Logger, obs ObservationSettings) PhaseObserver {
	var observers []PhaseObserver

	if obs.Observer != nil {
		observers = append(observers, obs.Observer)
	}

	if obs.EnableStructuredLogging {
		structuredLogger := obs.StructuredLogger
		if structuredLogger == nil {
			structuredLogger = logger
		}
		observers = append(observers, newLoggingObserver(structuredLogger, obs.LoggingFormat))
	}

	if obs.EnablePrometheus {
		collector := obs.PrometheusCollector
		if collector == nil {
			collector = NewPrometheusPhaseCollector(obs.PrometheusOptions)
		}
		if collector != nil {
			observers = append(observers, newPrometheusObserver(collector))
		}
	}

	if obs.EnableSigNoz {
		exporter := obs.SigNozExporter
		if exporter == nil {
			exporter = NewSigNozSpanExporter(obs.SigNozOptions)
		}
		if exporter != nil {
			observers = append(observers, newSigNozObserver(exporter))
		}
	}

	if len(observers) == 0 {
		return noopObserver{}
	}
	if len(observers) == 1 {
		return observers[0]
	}
	return compositeObserver{observers: observers}
}

// PrometheusPhaseCollector is a ready-to-use PrometheusCollector backed by
// real client_golang metric vectors, registered as a prometheus.Collector so
// a host can wire it into its own prometheus.Registry. Adapted from the
// teacher's in-process PrometheusWorkGroupCollector, which hand-rolled text
// exposition; this version defers formatting to expfmt.
type PrometheusPhaseCollector struct {
	options *PrometheusCollectorOptions

	duration *prometheus.HistogramVec
	executed *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	errors   *prometheus.CounterVec
}

// NewPrometheusPhaseCollector constructs a PrometheusCollector.
func NewPrometheusPhaseCollector(opts *PrometheusCollectorOptions) PrometheusCollector {
	if opts == nil {
		opts = &PrometheusCollectorOptions{}
	}
	buckets := prometheus.DefBuckets
	if len(opts.DurationBuckets) > 0 {
		buckets = make([]float64, len(opts.DurationBuckets))
		for i, d := range opts.DurationBuckets {
			buckets[i] = d.Seconds()
		}
	}
	return &PrometheusPhaseCollector{
		options: opts,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecs_phase_duration_seconds",
			Help:    "Phase execution duration.",
			Buckets: buckets,
		}, []string{"phase"}),
		executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_phase_systems_executed_total",
			Help: "Systems executed per phase.",
		}, []string{"phase"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_phase_systems_skipped_total",
			Help: "Systems skipped per phase (pause policy).",
		}, []string{"phase"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_phase_errors_total",
			Help: "Phase error count.",
		}, []string{"phase"}),
	}
}

func (c *PrometheusPhaseCollector) ObservePhase(summary PhaseSummary) {
	phase := summary.Phase.String()
	c.duration.WithLabelValues(phase).Observe(summary.Duration.Seconds())
	c.executed.WithLabelValues(phase).Add(float64(summary.SystemsExecuted))
	c.skipped.WithLabelValues(phase).Add(float64(summary.SystemsSkipped))
	if summary.Error != nil {
		c.errors.WithLabelValues(phase).Inc()
	}
	if writer := c.options.Writer; writer != nil {
		_ = c.WriteMetrics(writer)
	}
}

// Describe implements prometheus.Collector.
func (c *PrometheusPhaseCollector) Describe(ch chan<- *prometheus.Desc) {
	c.duration.Describe(ch)
	c.executed.Describe(ch)
	c.skipped.Describe(ch)
	c.errors.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *PrometheusPhaseCollector) Collect(ch chan<- prometheus.Metric) {
	c.duration.Collect(ch)
	c.executed.Collect(ch)
	c.skipped.Collect(ch)
	c.errors.Collect(ch)
}

// WriteMetrics renders the collector's current state in Prometheus text
// exposition format via expfmt, gathering through a private registry scoped
// to this collector alone.
func (c *PrometheusPhaseCollector) WriteMetrics(w io.Writer) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// SigNozSpanExporter is a ready-to-use SigNozExporter that writes one JSON
// span per phase summary to a writer, adapted from the teacher's
// SigNozSpanExporter.
type SigNozSpanExporter struct {
	opts *SigNozOptions
	mu   sync.Mutex
}

func NewSigNozSpanExporter(opts *SigNozOptions) SigNozExporter {
	if opts == nil {
		opts = &SigNozOptions{}
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "ecsworld"
	}
	return &SigNozSpanExporter{opts: opts}
}

func (e *SigNozSpanExporter) ExportPhase(summary PhaseSummary) {
	if e.opts.Writer == nil {
		return
	}
	span := map[string]any{
		"service_name": e.opts.ServiceName,
		"name":         fmt.Sprintf("phase:%s", summary.Phase.String()),
		"timestamp":    time.Now().UnixNano(),
		"duration_ms":  float64(summary.Duration) / float64(time.Millisecond),
		"attributes": map[string]any{
			"phase":            summary.Phase.String(),
			"tick":             summary.Tick,
			"systems_total":    summary.SystemsTotal,
			"systems_executed": summary.SystemsExecuted,
			"systems_skipped":  summary.SystemsSkipped,
			"component_reads":  summary.ComponentReads,
			"component_writes": summary.ComponentWrites,
		},
	}
	if summary.Error != nil {
		span["error"] = summary.Error.Error()
	}
	payload, err := json.Marshal(span)
	if err != nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = e.opts.Writer.Write(append(payload, '\n'))
}

// noopLogger is used until a real logger is supplied.
type noopLogger struct{}

func (noopLogger) With(string, any) Logger { return noopLogger{} }
func (noopLogger) Info(string, ...any)     {}
func (noopLogger) Error(string, ...any)    {}
func (noopLogger) Warn(string, ...any)     {}

type noopTracer struct{}

func (noopTracer) Start(name string) TraceSpan { return noopSpan{} }

type noopSpan struct{}

func (noopSpan) End() {}

type noopObserver struct{}

func (noopObserver) PhaseCompleted(PhaseSummary) {}
