package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devicelab-dev/screen-expect/pkg/core"
	"github.com/devicelab-dev/screen-expect/pkg/executor"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow block threshold in milliseconds
const slowThresholdMs = 2000

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printDocumentStart(w io.Writer, idx, total int, name string) {
	fmt.Fprintf(w, "\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), idx+1, total, color(colorReset),
		color(colorBold), name, color(colorReset))
	fmt.Fprintln(w, strings.Repeat("─", 60))
}

func printBlockEnd(w io.Writer, br core.BlockResult) {
	desc := br.Type
	if br.Label != "" && br.Label != br.Type {
		desc = fmt.Sprintf("%s: %s", br.Type, br.Label)
	}
	ms := br.Duration.Milliseconds()

	switch br.Status {
	case core.StatusPassed:
		symbol, symbolColor := "✓", color(colorGreen)
		if ms >= slowThresholdMs {
			symbol, symbolColor = "⚠", color(colorYellow)
		}
		fmt.Fprintf(w, "    %s%s%s %s (%s)\n", symbolColor, symbol, color(colorReset), desc, formatDuration(ms))
	case core.StatusFailed:
		fmt.Fprintf(w, "    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), desc, formatDuration(ms))
		if br.Error != "" {
			fmt.Fprintf(w, "      %s╰─%s %s\n", color(colorGray), color(colorReset), br.Error)
		}
	default:
		fmt.Fprintf(w, "    %s-%s %s %s(skipped)%s\n", color(colorGray), color(colorReset), desc, color(colorGray), color(colorReset))
	}
}

func printSummary(w io.Writer, result *executor.RunResult) {
	var blocks, passed, failed, skipped int
	for _, d := range result.Documents {
		if d.Result == nil {
			continue
		}
		blocks += d.Result.TotalBlocks
		passed += d.Result.PassedBlocks
		failed += d.Result.FailedBlocks
		skipped += d.Result.SkippedBlocks
	}

	fmt.Fprintln(w)
	if passed > 0 {
		fmt.Fprintf(w, "  %s%d blocks passing%s (%s)\n", color(colorGreen), passed, color(colorReset), formatDuration(result.Duration.Milliseconds()))
	}
	if failed > 0 {
		fmt.Fprintf(w, "  %s%d blocks failing%s\n", color(colorRed), failed, color(colorReset))
	}
	if skipped > 0 {
		fmt.Fprintf(w, "  %s%d blocks skipped%s\n", color(colorGray), skipped, color(colorReset))
	}
	fmt.Fprintf(w, "\n  Documents: %d total, %d passed, %d failed, %d skipped (%d blocks)\n",
		result.TotalDocuments, result.PassedDocuments, result.FailedDocuments, result.SkippedDocuments, blocks)

	for _, d := range result.Documents {
		if d.Status == core.StatusFailed {
			fmt.Fprintf(w, "  %s✗%s %s: %s\n", color(colorRed), color(colorReset), d.Name, d.Error)
		}
	}
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
