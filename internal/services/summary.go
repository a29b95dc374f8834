package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/models"
)

// Performance levels drive map colouring.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// TargetStatus labels a target attainment percentage. NaN is Behind.
func TargetStatus(pct float64) string {
	switch {
	case pct >= targetThreshold:
		return statusExceeding
	case pct >= onTrackThreshold:
		return statusOnTrack
	}
	return statusBehind
}

// PerformanceLevel buckets pct with the same thresholds as TargetStatus.
func PerformanceLevel(pct float64) string {
	switch {
	case pct >= targetThreshold:
		return LevelHigh
	case pct >= onTrackThreshold:
		return LevelMedium
	}
	return LevelLow
}

// Leaderboard returns the first n dealers in fixture rank order. n <= 0 or
// larger than the dealer count returns every dealer.
func (a *Analytics) Leaderboard(n int) []models.Dealer {
	return a.view().leaderboard(n)
}

func (v view) leaderboard(n int) []models.Dealer {
	dealers := v.s.Dealers()
	if n <= 0 || n > len(dealers) {
		return dealers
	}
	return dealers[:n:n]
}

func (a *Analytics) Inventory(region string) (int, error) {
	r, err := a.Region(region)
	if err != nil {
		return 0, err
	}
	return r.Inventory, nil
}

// InventoryLevels lists current inventory per region in declared order.
func (a *Analytics) InventoryLevels() []models.InventoryLevel {
	regions := a.Regions()
	out := make([]models.InventoryLevel, len(regions))
	for i, r := range regions {
		out[i] = models.InventoryLevel{Region: r.Name, Units: r.Inventory}
	}
	return out
}

func (a *Analytics) TotalInventory() int {
	var total int
	for _, r := range a.Regions() {
		total += r.Inventory
	}
	return total
}

func (a *Analytics) MarketShare() models.MarketShare {
	return a.view().s.MarketShare()
}

// MarketShareChange is the current share minus last year's, in percentage points.
func (a *Analytics) MarketShareChange() float64 {
	ms := a.MarketShare()
	return ms.Current - ms.Previous
}

// QuarterComparison totals each quarter in calendar order.
func (a *Analytics) QuarterComparison() []models.QuarterTotal {
	v := a.view()
	year := v.s.Company().Year
	quarters := daterange.Quarters()
	out := make([]models.QuarterTotal, len(quarters))
	for i, q := range quarters {
		t := v.total(q)
		out[i] = models.QuarterTotal{
			Range:   q.String(),
			Label:   daterange.Label(q, year),
			Revenue: t.revenue,
			Units:   t.units,
		}
	}
	return out
}

// BestSeller is the model with the most units in r; ties keep declared order.
func (a *Analytics) BestSeller(r daterange.Token) models.ModelShare {
	var best models.ModelShare
	for i, m := range a.ModelBreakdown(r) {
		if i == 0 || m.Units > best.Units {
			best = m
		}
	}
	return best
}

// VPSummary collects the headline KPIs for r. YoY growth is always annual.
func (a *Analytics) VPSummary(r daterange.Token) models.VPSummary {
	return a.view().summary(r)
}

func (v view) summary(r daterange.Token) models.VPSummary {
	ms := v.s.MarketShare()
	t := v.total(r)
	return models.VPSummary{
		Range:             r.String(),
		Label:             daterange.Label(r, v.s.Company().Year),
		Revenue:           t.revenue,
		Units:             t.units,
		YoYGrowth:         v.yoyGrowth(),
		AverageSalePrice:  t.revenue / float64(t.units),
		GrossMargin:       v.grossMargin(r),
		MarketShare:       ms.Current,
		MarketShareChange: ms.Current - ms.Previous,
	}
}

// RegionalSummary scopes revenue and units to r while target attainment and
// rank stay on YTD figures.
func (a *Analytics) RegionalSummary(region string, r daterange.Token) (models.RegionalSummary, error) {
	v := a.view()
	ri, err := regionIndex(v.s, region)
	if err != nil {
		return models.RegionalSummary{}, err
	}
	t := v.regionAt(ri, r)
	pct := v.regionAt(ri, daterange.YTD).targetPct()
	rank, err := v.rank(region)
	if err != nil {
		return models.RegionalSummary{}, err
	}

	top, err := v.topDealer(region)
	if err != nil && !errors.Is(err, ErrNoDealer) {
		return models.RegionalSummary{}, err
	}

	return models.RegionalSummary{
		Region:           region,
		Range:            r.String(),
		Revenue:          t.revenue,
		Units:            t.units,
		TargetPct:        pct,
		TargetStatus:     TargetStatus(pct),
		PerformanceLevel: PerformanceLevel(pct),
		TopDealer:        top,
		Inventory:        v.s.RegionAt(ri).Inventory,
		Rank:             rank,
	}, nil
}

// Dashboard assembles everything the VP view shows for r. Sections are
// computed concurrently, bounded by the configured worker count, and all read
// the same store.
func (a *Analytics) Dashboard(ctx context.Context, r daterange.Token) (*models.DashboardSnapshot, error) {
	start := time.Now()
	v := a.view()
	snap := &models.DashboardSnapshot{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	sections := []func(){
		func() { snap.Summary = v.summary(r) },
		func() { snap.RevenueTrend = v.trend(MetricRevenue, r) },
		func() { snap.UnitsTrend = v.trend(MetricUnits, r) },
		func() { snap.Models = v.modelBreakdown(r) },
		func() { snap.Regions = v.regionalComparison(r) },
		func() { snap.Leaderboard = v.leaderboard(a.leaderboardSize) },
	}
	for _, section := range sections {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			section()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build dashboard snapshot: %w", err)
	}

	a.logger.Debug("dashboard snapshot built",
		"range", r.String(),
		"duration", time.Since(start),
	)
	return snap, nil
}
