package services

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/models"
	"velocity-dashboard/internal/store"
)

var (
	// ErrInvalidIdentifier is matched by every *InvalidIdentifierError.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrNoDealer          = errors.New("region has no dealers")
)

type IdentifierKind string

const (
	KindRegion IdentifierKind = "region"
	KindModel  IdentifierKind = "model"
)

type InvalidIdentifierError struct {
	Kind IdentifierKind
	ID   string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

func (e *InvalidIdentifierError) Is(target error) bool {
	return target == ErrInvalidIdentifier
}

// Metric selects what a monthly trend sums.
type Metric string

const (
	MetricRevenue Metric = "revenue"
	MetricUnits   Metric = "units"
)

// ParseMetric defaults to revenue for anything other than "units".
func ParseMetric(s string) Metric {
	if Metric(s) == MetricUnits {
		return MetricUnits
	}
	return MetricRevenue
}

const (
	statusExceeding = "Exceeding"
	statusOnTrack   = "On Track"
	statusBehind    = "Behind"

	onTrackThreshold = 85.0
	targetThreshold  = 100.0

	defaultSnapshotWorkers = 4
	defaultLeaderboardSize = 10
)

// Analytics answers every dashboard query by reducing the fixture store's
// monthly unit series. Results are deterministic for a given store.
type Analytics struct {
	mu      sync.RWMutex
	store   *store.Store
	cache   *memo
	caching bool
	swapped time.Time

	workers         int
	leaderboardSize int

	queries   atomic.Int64
	cacheHits atomic.Int64
	logger    *slog.Logger
}

type Option func(*Analytics)

// WithCache memoizes results per (operation, arguments) until the next SetStore.
func WithCache(enabled bool) Option {
	return func(a *Analytics) {
		a.caching = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analytics) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSnapshotWorkers bounds how many Dashboard sections are computed at once.
func WithSnapshotWorkers(n int) Option {
	return func(a *Analytics) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLeaderboardSize sets how many dealers a Dashboard snapshot carries.
func WithLeaderboardSize(n int) Option {
	return func(a *Analytics) {
		if n > 0 {
			a.leaderboardSize = n
		}
	}
}

func NewAnalytics(s *store.Store, opts ...Option) *Analytics {
	a := &Analytics{
		store:           s,
		logger:          slog.Default(),
		swapped:         time.Now(),
		workers:         defaultSnapshotWorkers,
		leaderboardSize: defaultLeaderboardSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.caching {
		a.cache = newMemo()
	}
	return a
}

// SetStore swaps the fixture store and drops every cached result.
func (a *Analytics) SetStore(s *store.Store) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.store = s
	if a.caching {
		a.cache = newMemo()
	}
	a.swapped = time.Now()
	a.logger.Info("fixture store replaced",
		"regions", s.NumRegions(),
		"models", s.NumModels(),
		"cache_enabled", a.caching,
	)
}

// view pins one store and its memo for the length of a public call, so a
// concurrent SetStore cannot mix figures from two fixtures in one result.
type view struct {
	a *Analytics
	s *store.Store
	m *memo
}

func (a *Analytics) view() view {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return view{a: a, s: a.store, m: a.cache}
}

// cached runs fn once per key while caching is enabled. Failed results are
// never stored, so unknown identifiers cannot grow the cache.
func cached[T any](v view, key string, fn func(s *store.Store) (T, error)) (T, error) {
	v.a.queries.Add(1)
	if v.m == nil {
		return fn(v.s)
	}
	if hit, ok := v.m.get(key); ok {
		v.a.cacheHits.Add(1)
		return hit.(T), nil
	}
	res, err := fn(v.s)
	if err != nil {
		return res, err
	}
	v.m.put(key, res)
	return res, nil
}

// must unwraps results of closures that cannot fail. An error here is a bug
// in the closure, not bad input.
func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("services: infallible query failed: %v", err))
	}
	return v
}

func regionIndex(s *store.Store, region string) (int, error) {
	i, ok := s.RegionIndex(region)
	if !ok {
		return 0, &InvalidIdentifierError{Kind: KindRegion, ID: region}
	}
	return i, nil
}

func modelIndex(s *store.Store, modelID string) (int, error) {
	i, ok := s.ModelIndex(modelID)
	if !ok {
		return 0, &InvalidIdentifierError{Kind: KindModel, ID: modelID}
	}
	return i, nil
}

// reduce sums units and revenue over the given regions, models and months.
// A nil index slice means "all".
func reduce(s *store.Store, regions, mdls, months []int) (units int, revenue float64) {
	if regions == nil {
		regions = allIndices(s.NumRegions())
	}
	if mdls == nil {
		mdls = allIndices(s.NumModels())
	}
	for _, ri := range regions {
		for _, mi := range mdls {
			price := s.ModelAt(mi).Price
			for _, month := range months {
				u := s.Units(ri, mi, month)
				units += u
				revenue += float64(u) * price
			}
		}
	}
	return units, revenue
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func key(op string, args ...any) string {
	var b strings.Builder
	b.WriteString(op)
	for _, arg := range args {
		b.WriteByte('|')
		fmt.Fprint(&b, arg)
	}
	return b.String()
}

type totals struct {
	units   int
	revenue float64
	// target is the region's annual unit target; zero for model totals.
	target int
}

func (t totals) targetPct() float64 {
	return float64(t.units) / float64(t.target) * 100
}

func (v view) total(r daterange.Token) totals {
	return must(cached(v, key("total", r), func(s *store.Store) (totals, error) {
		units, revenue := reduce(s, nil, nil, daterange.MonthsFor(r))
		return totals{units: units, revenue: revenue}, nil
	}))
}

// regionAt totals region index ri of the pinned store.
func (v view) regionAt(ri int, r daterange.Token) totals {
	region := v.s.RegionAt(ri)
	return must(cached(v, key("region", region.Name, r), func(s *store.Store) (totals, error) {
		units, revenue := reduce(s, []int{ri}, nil, daterange.MonthsFor(r))
		return totals{units: units, revenue: revenue, target: region.Target}, nil
	}))
}

func (v view) modelAt(mi int, r daterange.Token) totals {
	return must(cached(v, key("model", v.s.ModelAt(mi).ID, r), func(s *store.Store) (totals, error) {
		units, revenue := reduce(s, nil, []int{mi}, daterange.MonthsFor(r))
		return totals{units: units, revenue: revenue}, nil
	}))
}

func (v view) regionTotals(region string, r daterange.Token) (totals, error) {
	ri, err := regionIndex(v.s, region)
	if err != nil {
		return totals{}, err
	}
	return v.regionAt(ri, r), nil
}

func (v view) modelTotals(modelID string, r daterange.Token) (totals, error) {
	mi, err := modelIndex(v.s, modelID)
	if err != nil {
		return totals{}, err
	}
	return v.modelAt(mi, r), nil
}

func (a *Analytics) TotalRevenue(r daterange.Token) float64 {
	return a.view().total(r).revenue
}

func (a *Analytics) TotalUnits(r daterange.Token) int {
	return a.view().total(r).units
}

func (a *Analytics) RevenueByRegion(region string, r daterange.Token) (float64, error) {
	t, err := a.view().regionTotals(region, r)
	return t.revenue, err
}

func (a *Analytics) UnitsByRegion(region string, r daterange.Token) (int, error) {
	t, err := a.view().regionTotals(region, r)
	return t.units, err
}

// RevenueByModel sums revenue for one model across every region.
func (a *Analytics) RevenueByModel(modelID string, r daterange.Token) (float64, error) {
	t, err := a.view().modelTotals(modelID, r)
	return t.revenue, err
}

func (a *Analytics) UnitsByModel(modelID string, r daterange.Token) (int, error) {
	t, err := a.view().modelTotals(modelID, r)
	return t.units, err
}

// MonthlyTrend returns one point per month of r, in calendar order.
// Any metric other than MetricRevenue sums units.
func (a *Analytics) MonthlyTrend(metric Metric, r daterange.Token) []models.TrendPoint {
	return a.view().trend(metric, r)
}

func (v view) trend(metric Metric, r daterange.Token) []models.TrendPoint {
	if metric != MetricRevenue {
		metric = MetricUnits
	}
	points := must(cached(v, key("trend", metric, r), func(s *store.Store) ([]models.TrendPoint, error) {
		months := daterange.MonthsFor(r)
		out := make([]models.TrendPoint, 0, len(months))
		for _, month := range months {
			units, revenue := reduce(s, nil, nil, []int{month})
			value := float64(units)
			if metric == MetricRevenue {
				value = revenue
			}
			out = append(out, models.TrendPoint{Month: s.MonthLabel(month), Value: value})
		}
		return out, nil
	}))
	return slices.Clone(points)
}

// AverageSellingPrice is revenue per unit. It is NaN or ±Inf when no units sold.
func (a *Analytics) AverageSellingPrice(r daterange.Token) float64 {
	return a.view().averageSellingPrice(r)
}

func (v view) averageSellingPrice(r daterange.Token) float64 {
	t := v.total(r)
	return t.revenue / float64(t.units)
}

// GrossMargin is the revenue-weighted average model margin, as a percentage.
func (a *Analytics) GrossMargin(r daterange.Token) float64 {
	return a.view().grossMargin(r)
}

func (v view) grossMargin(r daterange.Token) float64 {
	return must(cached(v, key("grossMargin", r), func(s *store.Store) (float64, error) {
		var margin, revenue float64
		months := daterange.MonthsFor(r)
		for ri := 0; ri < s.NumRegions(); ri++ {
			for mi := 0; mi < s.NumModels(); mi++ {
				m := s.ModelAt(mi)
				for _, month := range months {
					rev := float64(s.Units(ri, mi, month)) * m.Price
					revenue += rev
					margin += rev * m.Margin
				}
			}
		}
		return margin / revenue * 100, nil
	}))
}

// PriorYearRevenue sums every region's previous-year revenue.
func (a *Analytics) PriorYearRevenue() float64 {
	return a.view().priorYearRevenue()
}

func (v view) priorYearRevenue() float64 {
	var total float64
	for _, r := range v.s.Regions() {
		total += r.PriorYear.Revenue
	}
	return total
}

// YoYGrowth compares full-year revenue against the prior year, whatever range
// the caller is showing.
func (a *Analytics) YoYGrowth() float64 {
	return a.view().yoyGrowth()
}

func (v view) yoyGrowth() float64 {
	prev := v.priorYearRevenue()
	return (v.total(daterange.YTD).revenue - prev) / prev * 100
}

// TargetVsActual is YTD units as a percentage of the region's annual target.
func (a *Analytics) TargetVsActual(region string) (float64, error) {
	t, err := a.view().regionTotals(region, daterange.YTD)
	if err != nil {
		return 0, err
	}
	return t.targetPct(), nil
}

// TopDealerByRegion returns the highest-revenue dealer in region. Ties go to
// the dealer listed first.
func (a *Analytics) TopDealerByRegion(region string) (models.Dealer, error) {
	return a.view().topDealer(region)
}

func (v view) topDealer(region string) (models.Dealer, error) {
	v.a.queries.Add(1)
	if _, err := regionIndex(v.s, region); err != nil {
		return models.Dealer{}, err
	}

	var (
		top   models.Dealer
		found bool
	)
	for _, d := range v.s.Dealers() {
		if d.Region != region {
			continue
		}
		if !found || d.Revenue > top.Revenue {
			top, found = d, true
		}
	}
	if !found {
		return models.Dealer{}, fmt.Errorf("%w: %s", ErrNoDealer, region)
	}
	return top, nil
}

// RegionalRank is region's 1-based position by descending YTD revenue. Equal
// revenues keep declared region order.
func (a *Analytics) RegionalRank(region string) (int, error) {
	return a.view().rank(region)
}

func (v view) rank(region string) (int, error) {
	ri, err := regionIndex(v.s, region)
	if err != nil {
		return 0, err
	}
	ranks := must(cached(v, key("ranking"), func(s *store.Store) ([]int, error) {
		type entry struct {
			index   int
			revenue float64
		}
		entries := make([]entry, s.NumRegions())
		for i := range entries {
			_, revenue := reduce(s, []int{i}, nil, daterange.MonthsFor(daterange.YTD))
			entries[i] = entry{index: i, revenue: revenue}
		}
		slices.SortStableFunc(entries, func(x, y entry) int {
			switch {
			case x.revenue > y.revenue:
				return -1
			case x.revenue < y.revenue:
				return 1
			}
			return 0
		})
		// ranks[regionIndex] is the 1-based position.
		ranks := make([]int, len(entries))
		for pos, e := range entries {
			ranks[e.index] = pos + 1
		}
		return ranks, nil
	}))
	return ranks[ri], nil
}

// ModelBreakdown lists every model in declared order with its units and revenue in r.
func (a *Analytics) ModelBreakdown(r daterange.Token) []models.ModelShare {
	return a.view().modelBreakdown(r)
}

func (v view) modelBreakdown(r daterange.Token) []models.ModelShare {
	out := make([]models.ModelShare, v.s.NumModels())
	for mi := range out {
		m := v.s.ModelAt(mi)
		t := v.modelAt(mi, r)
		out[mi] = models.ModelShare{
			ModelID: m.ID,
			Name:    m.Name,
			Units:   t.units,
			Revenue: t.revenue,
			Color:   m.Color,
		}
	}
	return out
}

// RegionalComparison lists every region in declared order. Unlike
// TargetVsActual, TargetPct here uses units from r.
func (a *Analytics) RegionalComparison(r daterange.Token) []models.RegionComparison {
	return a.view().regionalComparison(r)
}

func (v view) regionalComparison(r daterange.Token) []models.RegionComparison {
	out := make([]models.RegionComparison, v.s.NumRegions())
	for ri := range out {
		t := v.regionAt(ri, r)
		out[ri] = models.RegionComparison{
			Region:    v.s.RegionAt(ri).Name,
			Revenue:   t.revenue,
			Units:     t.units,
			TargetPct: t.targetPct(),
		}
	}
	return out
}

func (a *Analytics) Company() models.Company {
	return a.view().s.Company()
}

func (a *Analytics) Regions() []models.Region {
	return a.view().s.Regions()
}

func (a *Analytics) Models() []models.Model {
	return a.view().s.Models()
}

// Model looks up a model by id.
func (a *Analytics) Model(modelID string) (models.Model, error) {
	s := a.view().s
	mi, err := modelIndex(s, modelID)
	if err != nil {
		return models.Model{}, err
	}
	return s.ModelAt(mi), nil
}

// Region looks up a region by name.
func (a *Analytics) Region(name string) (models.Region, error) {
	s := a.view().s
	ri, err := regionIndex(s, name)
	if err != nil {
		return models.Region{}, err
	}
	return s.RegionAt(ri), nil
}

func (a *Analytics) Dealers() []models.Dealer {
	return a.view().s.Dealers()
}

func (a *Analytics) RangeLabel(r daterange.Token) string {
	return daterange.Label(r, a.Company().Year)
}

// Utility method for monitoring
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	entries := 0
	if a.cache != nil {
		entries = a.cache.len()
	}
	return map[string]any{
		"regions":       a.store.NumRegions(),
		"models":        a.store.NumModels(),
		"dealers":       len(a.store.Dealers()),
		"queries":       a.queries.Load(),
		"cache_enabled": a.caching,
		"cache_hits":    a.cacheHits.Load(),
		"cache_entries": entries,
		"store_loaded":  a.swapped,
	}
}
