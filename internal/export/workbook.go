// Package export writes range-scoped aggregates to an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/format"
	"velocity-dashboard/internal/models"
	"velocity-dashboard/internal/services"
)

const (
	SheetSummary  = "Summary"
	SheetTrend    = "Monthly"
	SheetModels   = "Models"
	SheetRegions  = "Regions"
	SheetQuarters = "Quarters"
	SheetDealers  = "Dealers"
)

// Source is what the workbook reads from; *services.Analytics satisfies it.
type Source interface {
	VPSummary(r daterange.Token) models.VPSummary
	MonthlyTrend(metric services.Metric, r daterange.Token) []models.TrendPoint
	ModelBreakdown(r daterange.Token) []models.ModelShare
	RegionalComparison(r daterange.Token) []models.RegionComparison
	QuarterComparison() []models.QuarterTotal
	Leaderboard(n int) []models.Dealer
}

// Write builds the workbook for r and streams it to w.
func Write(w io.Writer, src Source, r daterange.Token) error {
	f, err := Build(src, r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build returns the workbook for r. The caller closes it.
func Build(src Source, r daterange.Token) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DCE6F1"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	b := &builder{f: f, header: header}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}

	s := src.VPSummary(r)
	b.table(SheetSummary, []any{"Metric", "Value"}, [][]any{
		{"Range", s.Label},
		{"Revenue", cell(s.Revenue)},
		{"Units", s.Units},
		{"YoY Growth %", cell(s.YoYGrowth)},
		{"Average Selling Price", cell(s.AverageSalePrice)},
		{"Gross Margin %", cell(s.GrossMargin)},
		{"Market Share %", cell(s.MarketShare)},
		{"Market Share Change", cell(s.MarketShareChange)},
	})

	revenue := src.MonthlyTrend(services.MetricRevenue, r)
	units := src.MonthlyTrend(services.MetricUnits, r)
	rows := make([][]any, len(revenue))
	for i := range revenue {
		rows[i] = []any{revenue[i].Month, cell(revenue[i].Value), cell(units[i].Value)}
	}
	b.table(SheetTrend, []any{"Month", "Revenue", "Units"}, rows)

	shares := src.ModelBreakdown(r)
	rows = make([][]any, len(shares))
	for i, m := range shares {
		rows[i] = []any{m.ModelID, m.Name, m.Units, cell(m.Revenue)}
	}
	b.table(SheetModels, []any{"ID", "Model", "Units", "Revenue"}, rows)

	regions := src.RegionalComparison(r)
	rows = make([][]any, len(regions))
	for i, rc := range regions {
		rows[i] = []any{rc.Region, cell(rc.Revenue), rc.Units, cell(rc.TargetPct)}
	}
	b.table(SheetRegions, []any{"Region", "Revenue", "Units", "Target %"}, rows)

	quarters := src.QuarterComparison()
	rows = make([][]any, len(quarters))
	for i, q := range quarters {
		rows[i] = []any{q.Label, cell(q.Revenue), q.Units}
	}
	b.table(SheetQuarters, []any{"Quarter", "Revenue", "Units"}, rows)

	dealers := src.Leaderboard(0)
	rows = make([][]any, len(dealers))
	for i, d := range dealers {
		rows[i] = []any{d.Rank, d.Name, d.Region, d.City, cell(d.Revenue), d.Units}
	}
	b.table(SheetDealers, []any{"Rank", "Dealer", "Region", "City", "Revenue", "Units"}, rows)

	if b.err != nil {
		f.Close()
		return nil, b.err
	}
	return f, nil
}

// builder keeps the first error so sheets can be written without checking
// every call.
type builder struct {
	f      *excelize.File
	header int
	err    error
}

func (b *builder) table(sheet string, header []any, rows [][]any) {
	if b.err != nil {
		return
	}
	if sheet != SheetSummary {
		if _, err := b.f.NewSheet(sheet); err != nil {
			b.err = fmt.Errorf("create sheet %s: %w", sheet, err)
			return
		}
	}

	if err := b.f.SetSheetRow(sheet, "A1", &header); err != nil {
		b.err = fmt.Errorf("write %s header: %w", sheet, err)
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := b.f.SetCellStyle(sheet, "A1", last, b.header); err != nil {
		b.err = fmt.Errorf("style %s header: %w", sheet, err)
		return
	}

	for i, row := range rows {
		axis, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := b.f.SetSheetRow(sheet, axis, &row); err != nil {
			b.err = fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
			return
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := b.f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		b.err = fmt.Errorf("size %s columns: %w", sheet, err)
	}
}

// cell keeps non-finite metrics out of numeric cells.
func cell(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return format.NotAvailable
	}
	return v
}
