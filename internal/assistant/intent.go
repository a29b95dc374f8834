// Package assistant answers free-text dashboard questions. A query is first
// classified into an Intent, then answered by the handler for that intent.
package assistant

import (
	"strings"

	"velocity-dashboard/internal/daterange"
)

type Intent int

const (
	Unknown Intent = iota
	BestSelling
	RegionPerformance
	Quarterly
	YoYGrowth
	Dealers
	Revenue
	ModelInfo
	MarketShare
	Inventory
	Help
)

var intentNames = map[Intent]string{
	Unknown:           "unknown",
	BestSelling:       "best_selling",
	RegionPerformance: "region_performance",
	Quarterly:         "quarterly",
	YoYGrowth:         "yoy_growth",
	Dealers:           "dealers",
	Revenue:           "revenue",
	ModelInfo:         "model_info",
	MarketShare:       "market_share",
	Inventory:         "inventory",
	Help:              "help",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return intentNames[Unknown]
}

// keywords is checked in order; the first intent with a matching keyword wins.
var keywords = []struct {
	intent   Intent
	patterns []string
}{
	{BestSelling, []string{"best sell", "top model", "most popular", "best model", "top sell", "highest sell"}},
	{RegionPerformance, []string{"region", "west", "east", "midwest", "southwest", "southeast", "northeast", "area"}},
	{Quarterly, []string{"q1", "q2", "q3", "q4", "quarter", "breakdown"}},
	{YoYGrowth, []string{"yoy", "year over year", "growth", "compare", "last year", "previous"}},
	{Dealers, []string{"dealer", "top dealer", "ranking", "leaderboard", "best dealer"}},
	{Revenue, []string{"revenue", "sales", "money", "total", "how much"}},
	{ModelInfo, []string{"model info", "about model"}},
	{MarketShare, []string{"market share", "competition", "competitor", "industry"}},
	{Inventory, []string{"inventory", "stock", "available", "units available"}},
	{Help, []string{"help", "what can you", "commands", "questions"}},
}

// Query is a classified question plus any entities mentioned in it.
// Entities are only extracted for the intents that use them.
type Query struct {
	Text    string
	Intent  Intent
	Region  string
	Model   string
	Quarter daterange.Token
}

// Classify maps text onto an intent. modelIDs are the identifiers of the
// loaded catalogue; a mention of any of them counts as a model question.
func Classify(text string, modelIDs []string) Query {
	q := Query{Text: text}
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return q
	}

	q.Intent = match(lower, modelIDs)
	switch q.Intent {
	case RegionPerformance:
		q.Region = regionIn(lower)
	case Quarterly:
		q.Quarter = quarterIn(lower)
	case ModelInfo:
		q.Model = modelIn(lower, modelIDs)
	}
	return q
}

func match(lower string, modelIDs []string) Intent {
	for _, k := range keywords {
		if k.intent == ModelInfo && modelIn(lower, modelIDs) != "" {
			return ModelInfo
		}
		for _, p := range k.patterns {
			if strings.Contains(lower, p) {
				return k.intent
			}
		}
	}
	return Unknown
}

// regionIn maps loose mentions onto region names: a bare "east" means
// Northeast, and "west" only means West when no south/mid prefix is present.
func regionIn(lower string) string {
	switch {
	case strings.Contains(lower, "west") && !strings.Contains(lower, "south") && !strings.Contains(lower, "mid"):
		return "West"
	case strings.Contains(lower, "southwest"):
		return "Southwest"
	case strings.Contains(lower, "midwest"):
		return "Midwest"
	case strings.Contains(lower, "southeast"):
		return "Southeast"
	case strings.Contains(lower, "east"):
		return "Northeast"
	}
	return ""
}

func quarterIn(lower string) daterange.Token {
	for _, q := range daterange.Quarters() {
		if strings.Contains(lower, q.String()) {
			return q
		}
	}
	return ""
}

// modelIn returns the first of modelIDs mentioned in lower, matched
// case-insensitively. The id is returned as declared.
func modelIn(lower string, modelIDs []string) string {
	for _, id := range modelIDs {
		if id != "" && strings.Contains(lower, strings.ToLower(id)) {
			return id
		}
	}
	return ""
}
