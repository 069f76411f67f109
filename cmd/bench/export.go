package bench

import (
	"encoding/csv"
	"fmt"
	"github.com/ValentinKolb/dCAS/lib/bench"
	"os"
	"strconv"
)

// writeResultsToCSV writes one row per worker of the report
func writeResultsToCSV(csvPath string, report *bench.Report) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	header := []string{
		"Workload", "Worker", "State", "Attempted", "Applied", "Rejected",
		"SpanMs", "LatencyMeanUs", "LatencyP50Us", "LatencyP99Us", "Error",
		"Threads", "BatchSize", "ElapsedMs", "QPS", "Incomplete",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	for i := range report.Workers {
		w := &report.Workers[i]

		errText := ""
		if w.Err != nil {
			errText = w.Err.Error()
		}

		row := []string{
			report.Workload,
			strconv.Itoa(w.ID),
			w.State.String(),
			strconv.FormatInt(w.Attempted, 10),
			strconv.FormatInt(w.Applied, 10),
			strconv.FormatInt(w.Rejected, 10),
			fmt.Sprintf("%.3f", float64(w.Span().Microseconds())/1000),
			fmt.Sprintf("%.1f", w.LatencyMean/1000),
			fmt.Sprintf("%.1f", w.LatencyP50/1000),
			fmt.Sprintf("%.1f", w.LatencyP99/1000),
			errText,
			strconv.Itoa(report.Concurrency),
			strconv.Itoa(report.BatchSize),
			strconv.FormatInt(report.ElapsedMillis, 10),
			strconv.FormatInt(report.QPS, 10),
			strconv.FormatBool(report.Incomplete),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for worker %d: %v", w.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// writeMetrics writes the metrics of the report in Prometheus text format
func writeMetrics(path string, report *bench.Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %v", err)
	}
	defer file.Close()

	report.WritePrometheus(file)
	return nil
}
