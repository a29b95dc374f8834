package models

type Company struct {
	Name         string `json:"name" yaml:"name"`
	Year         int    `json:"year" yaml:"year"`
	PreviousYear int    `json:"previous_year" yaml:"previous_year"`
}

type PriorYear struct {
	Revenue float64 `json:"revenue" yaml:"revenue"`
	Units   int     `json:"units" yaml:"units"`
}

type Region struct {
	Name      string    `json:"name" yaml:"name"`
	States    []string  `json:"states" yaml:"states"`
	Target    int       `json:"target" yaml:"target"`
	Inventory int       `json:"inventory" yaml:"inventory"`
	PriorYear PriorYear `json:"prior_year" yaml:"prior_year"`
}

type Model struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Category string  `json:"category" yaml:"category"`
	Price    float64 `json:"price" yaml:"price"`
	Color    string  `json:"color" yaml:"color"`
	Margin   float64 `json:"margin" yaml:"margin"`
}

type Dealer struct {
	ID      int     `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Region  string  `json:"region" yaml:"region"`
	City    string  `json:"city" yaml:"city"`
	Revenue float64 `json:"revenue" yaml:"revenue"`
	Units   int     `json:"units" yaml:"units"`
	Rank    int     `json:"rank" yaml:"rank"`
}

type Competitor struct {
	Name  string  `json:"name" yaml:"name"`
	Share float64 `json:"share" yaml:"share"`
}

type MarketShare struct {
	Current     float64      `json:"current" yaml:"current"`
	Previous    float64      `json:"previous" yaml:"previous"`
	Competitors []Competitor `json:"competitors" yaml:"competitors"`
}

// TrendPoint is one month of a monthly trend, summed over every region and model.
type TrendPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

type ModelShare struct {
	ModelID string  `json:"id"`
	Name    string  `json:"name"`
	Units   int     `json:"units"`
	Revenue float64 `json:"revenue"`
	Color   string  `json:"color"`
}

type RegionComparison struct {
	Region    string  `json:"region"`
	Revenue   float64 `json:"revenue"`
	Units     int     `json:"units"`
	TargetPct float64 `json:"target_pct"`
}

type QuarterTotal struct {
	Range   string  `json:"range"`
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Units   int     `json:"units"`
}

type VPSummary struct {
	Range             string  `json:"range"`
	Label             string  `json:"label"`
	Revenue           float64 `json:"revenue"`
	Units             int     `json:"units"`
	YoYGrowth         float64 `json:"yoy_growth"`
	AverageSalePrice  float64 `json:"average_selling_price"`
	GrossMargin       float64 `json:"gross_margin"`
	MarketShare       float64 `json:"market_share"`
	MarketShareChange float64 `json:"market_share_change"`
}

type RegionalSummary struct {
	Region           string  `json:"region"`
	Range            string  `json:"range"`
	Revenue          float64 `json:"revenue"`
	Units            int     `json:"units"`
	TargetPct        float64 `json:"target_pct"`
	TargetStatus     string  `json:"target_status"`
	PerformanceLevel string  `json:"performance_level"`
	TopDealer        Dealer  `json:"top_dealer"`
	Inventory        int     `json:"inventory"`
	Rank             int     `json:"rank"`
}

type InventoryLevel struct {
	Region string `json:"region"`
	Units  int    `json:"units"`
}

// DashboardSnapshot is everything the VP view renders for one date range.
type DashboardSnapshot struct {
	Summary      VPSummary          `json:"summary"`
	RevenueTrend []TrendPoint       `json:"revenue_trend"`
	UnitsTrend   []TrendPoint       `json:"units_trend"`
	Models       []ModelShare       `json:"models"`
	Regions      []RegionComparison `json:"regions"`
	Leaderboard  []Dealer           `json:"leaderboard"`
}
