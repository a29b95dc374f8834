// Command salesreport prints the executive sales summary to the terminal and
// can export the same figures as an xlsx workbook.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"velocity-dashboard/internal/assistant"
	"velocity-dashboard/internal/config"
	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/export"
	"velocity-dashboard/internal/format"
	"velocity-dashboard/internal/models"
	"velocity-dashboard/internal/observability"
	"velocity-dashboard/internal/services"
	"velocity-dashboard/internal/store"
)

var (
	accent      = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	subtle      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	panel       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	levelHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	levelMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Bold(true)
	levelLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

func main() {
	rangeFlag := flag.String("range", "ytd", "reporting range: q1, q2, q3, q4 or ytd")
	fixture := flag.String("fixture", "", "sales fixture YAML (defaults to the embedded dataset)")
	dealers := flag.Int("dealers", 5, "number of dealers to list")
	ask := flag.String("ask", "", "question for the sales assistant")
	xlsx := flag.String("xlsx", "", "write an xlsx export to this path")
	flag.Parse()

	logger := observability.NewLoggerTo(os.Stderr, config.LoggerConfig{Level: "warn", Format: "text"})

	rng, ok := daterange.ParseStrict(*rangeFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown range %q\n", *rangeFlag)
		os.Exit(2)
	}

	s, err := openStore(*fixture)
	if err != nil {
		logger.Error("failed to load sales data", "error", err)
		os.Exit(1)
	}
	analytics := services.NewAnalytics(s, services.WithLogger(logger))

	if err := run(os.Stdout, analytics, rng, *dealers, *ask); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}

	if *xlsx != "" {
		if err := writeWorkbook(*xlsx, analytics, rng); err != nil {
			logger.Error("export failed", "error", err, "path", *xlsx)
			os.Exit(1)
		}
		fmt.Println(subtle.Render("Workbook written to " + *xlsx))
	}
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		return store.Default()
	}
	return store.Open(path)
}

func writeWorkbook(path string, analytics *services.Analytics, rng daterange.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.Write(f, analytics, rng); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func run(w io.Writer, analytics *services.Analytics, rng daterange.Token, dealers int, ask string) error {
	company := analytics.Company()
	summary := analytics.VPSummary(rng)

	header := headerStyle.Render(company.Name + " Sales Report")
	meta := subtle.Render(fmt.Sprintf("%s · %s", summary.Label, rng))

	regions, err := regionTable(analytics, rng)
	if err != nil {
		return err
	}

	blocks := []string{
		header,
		meta,
		lipgloss.JoinHorizontal(lipgloss.Top, panel.Render(kpiBlock(summary)), panel.Render(regions)),
		panel.Render(dealerTable(analytics, dealers)),
	}

	if strings.TrimSpace(ask) != "" {
		answer, err := assistant.NewResponder(analytics).Answer(ask)
		if err != nil {
			return err
		}
		blocks = append(blocks, panel.Render(accent.Render(answer.Title)+"\n"+strings.Join(answer.Lines, "\n")+footer(answer.Footer)))
	}

	_, err = fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, blocks...))
	return err
}

func kpiBlock(s models.VPSummary) string {
	rows := [][2]string{
		{"Revenue", format.Currency(s.Revenue)},
		{"Units", format.Number(float64(s.Units))},
		{"YoY growth", format.SignedPercent(s.YoYGrowth)},
		{"Avg price", format.Currency(s.AverageSalePrice)},
		{"Gross margin", format.Percent(s.GrossMargin)},
		{"Market share", format.Percent(s.MarketShare)},
	}

	var b strings.Builder
	b.WriteString(accent.Render("Key metrics"))
	for _, row := range rows {
		fmt.Fprintf(&b, "\n%-13s %s", row[0], row[1])
	}
	return b.String()
}

func regionTable(analytics *services.Analytics, rng daterange.Token) (string, error) {
	var b strings.Builder
	b.WriteString(accent.Render("Regions"))
	fmt.Fprintf(&b, "\n%-10s %10s %7s %8s  %s", "Region", "Revenue", "Units", "Target", "YTD status")

	for _, rc := range analytics.RegionalComparison(rng) {
		ytd, err := analytics.TargetVsActual(rc.Region)
		if err != nil {
			return "", fmt.Errorf("target for %s: %w", rc.Region, err)
		}
		fmt.Fprintf(&b, "\n%-10s %10s %7s %8s  %s",
			rc.Region,
			format.Currency(rc.Revenue),
			format.Number(float64(rc.Units)),
			format.Decimal(rc.TargetPct, 1)+"%",
			levelStyle(services.PerformanceLevel(ytd)).Render(services.TargetStatus(ytd)),
		)
	}
	return b.String(), nil
}

func dealerTable(analytics *services.Analytics, n int) string {
	var b strings.Builder
	b.WriteString(accent.Render("Top dealers"))
	for _, d := range analytics.Leaderboard(n) {
		fmt.Fprintf(&b, "\n%2d. %-22s %-10s %s", d.Rank, d.Name, d.Region, format.Currency(d.Revenue))
	}
	return b.String()
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case services.LevelHigh:
		return levelHigh
	case services.LevelMedium:
		return levelMedium
	default:
		return levelLow
	}
}

func footer(s string) string {
	if s == "" {
		return ""
	}
	return "\n" + subtle.Render(s)
}
