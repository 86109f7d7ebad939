package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/raphaelgruber/aprx-explorer/internal/metrics"
)

// printRunStats displays per-operation timings collected during a run.
func printRunStats(w io.Writer, stats metrics.Snapshot) {
	fmt.Fprintf(w, "\nRun Statistics\n")
	fmt.Fprintf(w, "Elapsed: %s\n", stats.Elapsed.Round(time.Millisecond))

	if stats.ArchiveRead != nil {
		fmt.Fprintf(w, "\nArchive Read:\n")
		printOpStats(w, stats.ArchiveRead)
	}

	if stats.LLMSummarize != nil {
		fmt.Fprintf(w, "\nLLM Summarize:\n")
		printOpStats(w, stats.LLMSummarize)
		printTokenStats(w, stats.LLMSummarize)
	}

	if stats.ExportWrite != nil {
		fmt.Fprintf(w, "\nExport Write:\n")
		printOpStats(w, stats.ExportWrite)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Total: %dms\n", op.Count, op.Total.Milliseconds())
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		float64(op.Average.Microseconds())/1000, op.Min.Milliseconds(), op.Max.Milliseconds())
}

// printTokenStats displays token totals if the provider reported any.
func printTokenStats(w io.Writer, op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total", *op.TotalInputTokens)
	if op.Count > 0 {
		fmt.Fprintf(w, ", avg %.0f", float64(*op.TotalInputTokens)/float64(op.Count))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Tokens Out: %d total", *op.TotalOutputTokens)
	if op.Count > 0 {
		fmt.Fprintf(w, ", avg %.0f", float64(*op.TotalOutputTokens)/float64(op.Count))
	}
	fmt.Fprintln(w)
}
