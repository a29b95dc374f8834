package assistant

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/format"
	"velocity-dashboard/internal/models"
)

const (
	topDealers     = 5
	topCompetitors = 5
)

// Engine is the slice of the analytics engine the responder reads from.
type Engine interface {
	Company() models.Company
	Models() []models.Model
	Model(id string) (models.Model, error)
	ModelBreakdown(r daterange.Token) []models.ModelShare
	BestSeller(r daterange.Token) models.ModelShare
	RegionalSummary(region string, r daterange.Token) (models.RegionalSummary, error)
	RegionalComparison(r daterange.Token) []models.RegionComparison
	QuarterComparison() []models.QuarterTotal
	TotalRevenue(r daterange.Token) float64
	TotalUnits(r daterange.Token) int
	AverageSellingPrice(r daterange.Token) float64
	RangeLabel(r daterange.Token) string
	YoYGrowth() float64
	PriorYearRevenue() float64
	Leaderboard(n int) []models.Dealer
	MarketShare() models.MarketShare
	InventoryLevels() []models.InventoryLevel
	TotalInventory() int
}

type Answer struct {
	Intent string   `json:"intent"`
	Title  string   `json:"title"`
	Lines  []string `json:"lines"`
	Footer string   `json:"footer,omitempty"`
}

// Text renders the answer as plain text, one line per entry.
func (a Answer) Text() string {
	var b strings.Builder
	b.WriteString(a.Title)
	for _, line := range a.Lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	if a.Footer != "" {
		b.WriteString("\n\n")
		b.WriteString(a.Footer)
	}
	return b.String()
}

type Responder struct {
	engine   Engine
	handlers map[Intent]func(Query) (Answer, error)
}

func NewResponder(engine Engine) *Responder {
	r := &Responder{engine: engine}
	r.handlers = map[Intent]func(Query) (Answer, error){
		BestSelling:       r.bestSelling,
		RegionPerformance: r.regionPerformance,
		Quarterly:         r.quarterly,
		YoYGrowth:         r.yoyGrowth,
		Dealers:           r.dealers,
		Revenue:           r.revenue,
		ModelInfo:         r.modelInfo,
		MarketShare:       r.marketShare,
		Inventory:         r.inventory,
		Help:              r.help,
	}
	return r
}

// Answer classifies text against the engine's current model catalogue and
// runs the matching handler.
func (r *Responder) Answer(text string) (Answer, error) {
	catalogue := r.engine.Models()
	ids := make([]string, len(catalogue))
	for i, m := range catalogue {
		ids[i] = m.ID
	}
	return r.AnswerQuery(Classify(text, ids))
}

func (r *Responder) AnswerQuery(q Query) (Answer, error) {
	handler, ok := r.handlers[q.Intent]
	if !ok {
		handler = r.unknown
	}
	ans, err := handler(q)
	if err != nil {
		return Answer{}, fmt.Errorf("answer %s query: %w", q.Intent, err)
	}
	ans.Intent = q.Intent.String()
	return ans, nil
}

func (r *Responder) bestSelling(Query) (Answer, error) {
	best := r.engine.BestSeller(daterange.YTD)
	total := r.engine.TotalUnits(daterange.YTD)
	share := float64(best.Units) / float64(total) * 100

	return Answer{
		Title: "Best-selling model: " + best.Name,
		Lines: []string{
			"• Units sold (YTD): " + format.Number(float64(best.Units)),
			"• Share of all units: " + format.Percent(share),
			"• Revenue: " + format.Currency(best.Revenue),
		},
	}, nil
}

func (r *Responder) regionPerformance(q Query) (Answer, error) {
	if q.Region == "" {
		return r.regionOverview()
	}

	s, err := r.engine.RegionalSummary(q.Region, daterange.YTD)
	if err != nil {
		return Answer{}, err
	}

	lines := []string{
		"• Revenue: " + format.Currency(s.Revenue),
		"• Units sold: " + format.Number(float64(s.Units)),
		fmt.Sprintf("• Regional rank: #%d of %d regions", s.Rank, len(r.engine.RegionalComparison(daterange.YTD))),
	}
	if s.TopDealer.Name != "" {
		lines = append(lines, fmt.Sprintf("• Top dealer: %s (%s)", s.TopDealer.Name, s.TopDealer.City))
	}

	footer := "There may be room to lift performance with targeted campaigns."
	if s.TargetPct >= 100 {
		footer = "This region is leading our sales efforts."
	}
	return Answer{
		Title:  fmt.Sprintf("%s region: %s at %s of annual target", s.Region, strings.ToLower(s.TargetStatus), format.Percent(s.TargetPct)),
		Lines:  lines,
		Footer: footer,
	}, nil
}

func (r *Responder) regionOverview() (Answer, error) {
	regions := r.engine.RegionalComparison(daterange.YTD)
	slices.SortStableFunc(regions, func(a, b models.RegionComparison) int {
		return cmp.Compare(b.Revenue, a.Revenue)
	})

	lines := make([]string, len(regions))
	for i, rc := range regions {
		lines[i] = fmt.Sprintf("%d. %s: %s (%s%% of target)", i+1, rc.Region, format.Currency(rc.Revenue), format.Decimal(rc.TargetPct, 0))
	}

	ans := Answer{Title: "Regional performance overview", Lines: lines}
	if len(regions) > 0 {
		ans.Footer = fmt.Sprintf("%s is the top performer; %s has the most room to grow.", regions[0].Region, regions[len(regions)-1].Region)
	}
	return ans, nil
}

func (r *Responder) quarterly(q Query) (Answer, error) {
	if q.Quarter == "" {
		quarters := r.engine.QuarterComparison()
		lines := make([]string, len(quarters))
		best := 0
		for i, qt := range quarters {
			lines[i] = fmt.Sprintf("• %s: %s (%s units)", qt.Label, format.Currency(qt.Revenue), format.Number(float64(qt.Units)))
			if qt.Revenue > quarters[best].Revenue {
				best = i
			}
		}
		ans := Answer{Title: "Quarterly comparison", Lines: lines}
		if len(quarters) > 0 {
			ans.Footer = quarters[best].Label + " was the strongest quarter."
		}
		return ans, nil
	}

	revenue := r.engine.TotalRevenue(q.Quarter)
	units := r.engine.TotalUnits(q.Quarter)
	return Answer{
		Title: r.engine.RangeLabel(q.Quarter) + " performance",
		Lines: []string{
			"• Total revenue: " + format.Currency(revenue),
			"• Total units: " + format.Number(float64(units)),
			"• Average sale: " + format.Currency(r.engine.AverageSellingPrice(q.Quarter)),
		},
	}, nil
}

func (r *Responder) yoyGrowth(Query) (Answer, error) {
	company := r.engine.Company()
	growth := r.engine.YoYGrowth()

	direction := "down"
	if growth > 0 {
		direction = "up"
	}
	return Answer{
		Title: "Year-over-year performance",
		Lines: []string{
			fmt.Sprintf("• %d revenue: %s", company.Year, format.Currency(r.engine.TotalRevenue(daterange.YTD))),
			fmt.Sprintf("• %d revenue: %s", company.PreviousYear, format.Currency(r.engine.PriorYearRevenue())),
			"• YoY growth: " + format.SignedPercent(growth),
		},
		Footer: fmt.Sprintf("We're %s %s compared to last year.", direction, format.Percent(math.Abs(growth))),
	}, nil
}

func (r *Responder) dealers(Query) (Answer, error) {
	top := r.engine.Leaderboard(topDealers)
	lines := make([]string, len(top))
	for i, d := range top {
		lines[i] = fmt.Sprintf("%d. %s (%s): %s | %d units", i+1, d.Name, d.Region, format.Currency(d.Revenue), d.Units)
	}

	ans := Answer{Title: fmt.Sprintf("Top %d dealers by revenue", len(top)), Lines: lines}
	if len(top) > 0 {
		share := top[0].Revenue / r.engine.TotalRevenue(daterange.YTD) * 100
		ans.Footer = fmt.Sprintf("%s accounts for %s of total revenue.", top[0].Name, format.Percent(share))
	}
	return ans, nil
}

func (r *Responder) revenue(Query) (Answer, error) {
	return Answer{
		Title: "Total sales performance (YTD)",
		Lines: []string{
			"• Total revenue: " + format.Currency(r.engine.TotalRevenue(daterange.YTD)),
			"• Total units: " + format.Number(float64(r.engine.TotalUnits(daterange.YTD))),
			"• Average selling price: " + format.Currency(r.engine.AverageSellingPrice(daterange.YTD)),
		},
	}, nil
}

func (r *Responder) modelInfo(q Query) (Answer, error) {
	if q.Model == "" {
		all := r.engine.Models()
		lines := make([]string, len(all))
		for i, m := range all {
			lines[i] = fmt.Sprintf("• %s: %s - %s", m.Name, m.Category, format.Currency(m.Price))
		}
		return Answer{
			Title:  fmt.Sprintf("We offer %d vehicle models", len(all)),
			Lines:  lines,
			Footer: "Ask about any specific model for detailed performance data.",
		}, nil
	}

	m, err := r.engine.Model(q.Model)
	if err != nil {
		return Answer{}, err
	}
	var share models.ModelShare
	for _, s := range r.engine.ModelBreakdown(daterange.YTD) {
		if s.ModelID == m.ID {
			share = s
		}
	}
	return Answer{
		Title: fmt.Sprintf("%s - %s", m.Name, m.Category),
		Lines: []string{
			"• Price: " + format.Currency(m.Price),
			"• Units sold (YTD): " + format.Number(float64(share.Units)),
			"• Revenue: " + format.Currency(share.Revenue),
			"• Gross margin: " + format.Percent(m.Margin*100),
		},
	}, nil
}

func (r *Responder) marketShare(Query) (Answer, error) {
	ms := r.engine.MarketShare()
	change := ms.Current - ms.Previous

	lines := []string{
		"• Current share: " + format.Percent(ms.Current),
		"• Previous year: " + format.Percent(ms.Previous),
		"• Change: " + format.SignedPercent(change),
		"Competitive landscape:",
	}
	for _, c := range ms.Competitors[:min(topCompetitors, len(ms.Competitors))] {
		lines = append(lines, fmt.Sprintf("• %s: %s", c.Name, format.Percent(c.Share)))
	}
	return Answer{
		Title:  "Market position",
		Lines:  lines,
		Footer: fmt.Sprintf("Share moved %s percentage points this year.", format.Decimal(change, 1)),
	}, nil
}

func (r *Responder) inventory(Query) (Answer, error) {
	levels := r.engine.InventoryLevels()
	lines := make([]string, len(levels))
	for i, l := range levels {
		lines[i] = fmt.Sprintf("• %s: %s units", l.Region, format.Number(float64(l.Units)))
	}
	return Answer{
		Title:  "Current inventory levels",
		Lines:  lines,
		Footer: fmt.Sprintf("Total inventory: %s units", format.Number(float64(r.engine.TotalInventory()))),
	}, nil
}

var helpLines = []string{
	`• Sales data: "What's our total revenue?"`,
	`• Models: "Tell me about Model Apex"`,
	`• Regions: "How is the West region performing?"`,
	`• Dealers: "Show me dealer rankings"`,
	`• Quarterly: "Show me Q4 breakdown"`,
	`• Growth: "What's our YoY growth?"`,
	`• Market: "What's our market share?"`,
	`• Inventory: "Check inventory levels"`,
}

func (r *Responder) help(Query) (Answer, error) {
	return Answer{
		Title:  "I can help you with:",
		Lines:  slices.Clone(helpLines),
		Footer: "Just type your question naturally.",
	}, nil
}

func (r *Responder) unknown(Query) (Answer, error) {
	return Answer{
		Title: "I'm not sure how to answer that. Try asking about:",
		Lines: []string{
			"• What's our best selling model?",
			"• How is the West region performing?",
			"• Show me dealer rankings",
		},
		Footer: `Or type "help" to see every available query.`,
	}, nil
}
