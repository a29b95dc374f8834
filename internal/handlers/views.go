package handlers

import (
	"math"

	"velocity-dashboard/internal/models"
)

// finite returns nil for NaN and ±Inf so encoding/json writes null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// summaryView is models.VPSummary with ratio fields that may be non-finite.
type summaryView struct {
	Range             string   `json:"range"`
	Label             string   `json:"label"`
	Revenue           float64  `json:"revenue"`
	Units             int      `json:"units"`
	YoYGrowth         *float64 `json:"yoy_growth"`
	AverageSalePrice  *float64 `json:"average_selling_price"`
	GrossMargin       *float64 `json:"gross_margin"`
	MarketShare       float64  `json:"market_share"`
	MarketShareChange float64  `json:"market_share_change"`
}

func newSummaryView(s models.VPSummary) summaryView {
	return summaryView{
		Range:             s.Range,
		Label:             s.Label,
		Revenue:           s.Revenue,
		Units:             s.Units,
		YoYGrowth:         finite(s.YoYGrowth),
		AverageSalePrice:  finite(s.AverageSalePrice),
		GrossMargin:       finite(s.GrossMargin),
		MarketShare:       s.MarketShare,
		MarketShareChange: s.MarketShareChange,
	}
}

type snapshotView struct {
	Summary      summaryView               `json:"summary"`
	RevenueTrend []models.TrendPoint       `json:"revenue_trend"`
	UnitsTrend   []models.TrendPoint       `json:"units_trend"`
	Models       []models.ModelShare       `json:"models"`
	Regions      []models.RegionComparison `json:"regions"`
	Leaderboard  []models.Dealer           `json:"leaderboard"`
}

func newSnapshotView(s *models.DashboardSnapshot) snapshotView {
	return snapshotView{
		Summary:      newSummaryView(s.Summary),
		RevenueTrend: s.RevenueTrend,
		UnitsTrend:   s.UnitsTrend,
		Models:       s.Models,
		Regions:      s.Regions,
		Leaderboard:  s.Leaderboard,
	}
}

type modelView struct {
	models.Model
	Range   string  `json:"range"`
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
}

type marketShareView struct {
	models.MarketShare
	Change float64 `json:"change"`
}

type inventoryView struct {
	Regions []models.InventoryLevel `json:"regions"`
	Total   int                     `json:"total"`
}
