package bench

import (
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/common"
	"github.com/VictoriaMetrics/metrics"
	"io"
	"strconv"
	"strings"
	"time"
)

// Report is the aggregated result of a benchmark run
type Report struct {
	Workload    string
	Concurrency int
	BatchSize   int

	// TotalOperations is always Concurrency * BatchSize
	TotalOperations int64
	Attempted       int64
	Applied         int64
	Rejected        int64
	FailedWorkers   int

	Elapsed       time.Duration
	ElapsedMillis int64
	QPS           int64

	// Incomplete is set if the run ended before all workers signaled completion
	Incomplete bool

	Workers []WorkerResult
	// Spans summarizes the batch durations of the executed batches in milliseconds
	Spans Stats
	// StartSkew summarizes how far the batch starts lie behind the earliest one
	StartSkew Stats

	metrics *metrics.Set
}

func newReport(name string, config common.BenchConfig, workers []WorkerResult, elapsed time.Duration, incomplete bool) *Report {
	r := &Report{
		Workload:        name,
		Concurrency:     config.Concurrency,
		BatchSize:       config.BatchSize,
		TotalOperations: int64(config.Concurrency) * int64(config.BatchSize),
		Elapsed:         elapsed,
		ElapsedMillis:   elapsed.Milliseconds(),
		Incomplete:      incomplete,
		Workers:         workers,
		metrics:         metrics.NewSet(),
	}
	r.QPS = QPS(r.TotalOperations, r.ElapsedMillis)

	spans := make([]time.Duration, 0, len(workers))
	for i := range workers {
		w := &workers[i]
		r.Attempted += w.Attempted
		r.Applied += w.Applied
		r.Rejected += w.Rejected
		if w.State == StateFailed {
			r.FailedWorkers++
		}
		spans = append(spans, w.Span())
		r.metrics.GetOrCreateCounter(r.metricName("dcas_bench_workers_total", "state", strings.ToLower(w.State.String()))).Inc()
		r.metrics.GetOrCreateHistogram(r.metricName("dcas_bench_batch_duration_seconds", "", "")).Update(w.Span().Seconds())
	}
	r.Spans = NewStats(spans)
	r.StartSkew = NewStats(startOffsets(workers))

	failedOps := r.Attempted - r.Applied - r.Rejected
	r.metrics.GetOrCreateCounter(r.metricName("dcas_bench_ops_total", "outcome", "applied")).Add(int(r.Applied))
	r.metrics.GetOrCreateCounter(r.metricName("dcas_bench_ops_total", "outcome", "rejected")).Add(int(r.Rejected))
	r.metrics.GetOrCreateCounter(r.metricName("dcas_bench_ops_total", "outcome", "failed")).Add(int(failedOps))
	qps := float64(r.QPS)
	r.metrics.GetOrCreateGauge(r.metricName("dcas_bench_qps", "", ""), func() float64 { return qps })

	return r
}

// metricName renders a metric name with the workload label and an optional second label
func (r *Report) metricName(name, label, value string) string {
	if label == "" {
		return fmt.Sprintf("%s{workload=%q}", name, r.Workload)
	}
	return fmt.Sprintf("%s{workload=%q,%s=%q}", name, r.Workload, label, value)
}

// WritePrometheus writes the metrics of the run in Prometheus text format
func (r *Report) WritePrometheus(w io.Writer) {
	r.metrics.WritePrometheus(w)
}

// String returns a formatted string representation of the report
func (r *Report) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Result " + r.Workload)
	addField("Workers", strconv.Itoa(r.Concurrency))
	addField("Batch Size", strconv.Itoa(r.BatchSize))
	addField("Total Operations", strconv.FormatInt(r.TotalOperations, 10))
	addField("Applied", strconv.FormatInt(r.Applied, 10))
	addField("Rejected", strconv.FormatInt(r.Rejected, 10))
	addField("Failed Workers", strconv.Itoa(r.FailedWorkers))
	addField("Elapsed", fmt.Sprintf("%d ms", r.ElapsedMillis))
	addField("QPS", strconv.FormatInt(r.QPS, 10))
	if r.Incomplete {
		addField("Status", "INCOMPLETE")
	}

	addSection("Batch Spans")
	addField("Min", fmt.Sprintf("%.2f ms", r.Spans.Min))
	addField("Max", fmt.Sprintf("%.2f ms", r.Spans.Max))
	addField("Mean", fmt.Sprintf("%.2f ms", r.Spans.Mean))
	addField("Std Deviation", fmt.Sprintf("%.2f ms", r.Spans.StdDeviation))
	addField("Start Skew (max)", fmt.Sprintf("%.3f ms", r.StartSkew.Max))

	if r.FailedWorkers > 0 {
		addSection("Failures")
		for i := range r.Workers {
			if w := &r.Workers[i]; w.State == StateFailed {
				addField("Worker "+strconv.Itoa(w.ID), w.Err.Error())
			}
		}
	}

	return sb.String()
}
