package assistant

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/services"
	"velocity-dashboard/internal/store"
)

var shippedModels = []string{"apex", "venture", "pulse", "terra", "bolt"}

func TestClassify(t *testing.T) {
	tests := []struct {
		text    string
		intent  Intent
		region  string
		model   string
		quarter daterange.Token
	}{
		{"What's our best selling model?", BestSelling, "", "", ""},
		{"What is the top model in the West?", BestSelling, "", "", ""},
		{"How is the West region performing?", RegionPerformance, "West", "", ""},
		{"Tell me about the southwest", RegionPerformance, "Southwest", "", ""},
		{"midwest numbers", RegionPerformance, "Midwest", "", ""},
		{"SOUTHEAST", RegionPerformance, "Southeast", "", ""},
		{"anything on the east coast?", RegionPerformance, "Northeast", "", ""},
		{"regional overview", RegionPerformance, "", "", ""},
		{"How much stock in the northeast?", RegionPerformance, "Northeast", "", ""},
		{"Show me Q4 breakdown", Quarterly, "", "", daterange.Q4},
		{"sales in q3", Quarterly, "", "", daterange.Q3},
		{"compare each quarter", Quarterly, "", "", ""},
		{"What's our YoY growth?", YoYGrowth, "", "", ""},
		{"Show me dealer rankings", Dealers, "", "", ""},
		{"What's our total revenue?", Revenue, "", "", ""},
		{"Tell me about Model Apex", ModelInfo, "", "apex", ""},
		{"model info please", ModelInfo, "", "", ""},
		{"What's our market share?", MarketShare, "", "", ""},
		{"Check inventory levels", Inventory, "", "", ""},
		{"help", Help, "", "", ""},
		{"asdf", Unknown, "", "", ""},
		{"   ", Unknown, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			q := Classify(tt.text, shippedModels)
			assert.Equal(t, tt.intent, q.Intent)
			assert.Equal(t, tt.region, q.Region)
			assert.Equal(t, tt.model, q.Model)
			assert.Equal(t, tt.quarter, q.Quarter)
		})
	}
}

func TestClassify_UsesLoadedCatalogue(t *testing.T) {
	catalogue := []string{"roadster", "Hauler"}

	q := Classify("Tell me about the Roadster", catalogue)
	assert.Equal(t, ModelInfo, q.Intent)
	assert.Equal(t, "roadster", q.Model)

	q = Classify("how is the hauler doing", catalogue)
	assert.Equal(t, ModelInfo, q.Intent)
	assert.Equal(t, "Hauler", q.Model)

	q = Classify("what about apex?", catalogue)
	assert.Equal(t, Unknown, q.Intent, "models outside the catalogue are not recognised")
	assert.Empty(t, q.Model)
}

// roadsterStore is the shipped fixture with the apex model renamed to roadster.
func roadsterStore(t *testing.T) *store.Store {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "store", "fixture.yaml"))
	require.NoError(t, err)

	var f store.Fixture
	require.NoError(t, yaml.Unmarshal(data, &f))
	for i := range f.Models {
		if f.Models[i].ID == "apex" {
			f.Models[i].ID = "roadster"
			f.Models[i].Name = "Model Roadster"
		}
	}
	for _, byModel := range f.Sales {
		byModel["roadster"] = byModel["apex"]
		delete(byModel, "apex")
	}

	s, err := store.New(f)
	require.NoError(t, err)
	return s
}

func TestResponder_ModelFromLoadedFixture(t *testing.T) {
	r := NewResponder(services.NewAnalytics(roadsterStore(t)))

	ans, err := r.Answer("Tell me about the roadster")
	require.NoError(t, err)
	assert.Equal(t, "model_info", ans.Intent)
	assert.True(t, strings.HasPrefix(ans.Title, "Model Roadster"), ans.Title)
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "region_performance", RegionPerformance.String())
	assert.Equal(t, "unknown", Intent(99).String())
}

func newTestResponder(t *testing.T) *Responder {
	t.Helper()
	s, err := store.Default()
	require.NoError(t, err)
	return NewResponder(services.NewAnalytics(s))
}

func TestResponder_EveryIntentAnswers(t *testing.T) {
	r := newTestResponder(t)

	for intent := range intentNames {
		ans, err := r.AnswerQuery(Query{Intent: intent})
		require.NoError(t, err, intent.String())
		assert.Equal(t, intent.String(), ans.Intent)
		assert.NotEmpty(t, ans.Title, intent.String())
		assert.NotEmpty(t, ans.Lines, intent.String())
	}
}

func TestResponder_BestSelling(t *testing.T) {
	ans, err := newTestResponder(t).Answer("what's our best seller?")
	require.NoError(t, err)

	assert.Equal(t, "Best-selling model: Model Pulse", ans.Title)
	assert.Equal(t, []string{
		"• Units sold (YTD): 23.8K",
		"• Share of all units: 34.9%",
		"• Revenue: $1.07B",
	}, ans.Lines)
}

func TestResponder_Region(t *testing.T) {
	ans, err := newTestResponder(t).Answer("How is the West region performing?")
	require.NoError(t, err)

	assert.Equal(t, "West region: exceeding at 135.0% of annual target", ans.Title)
	assert.Contains(t, ans.Lines, "• Revenue: $904.8M")
	assert.Contains(t, ans.Lines, "• Units sold: 14.2K")
	assert.Contains(t, ans.Lines, "• Regional rank: #2 of 5 regions")
	assert.Contains(t, ans.Lines, "• Top dealer: Pacific Auto Group (Los Angeles, CA)")
}

func TestResponder_RegionOverview(t *testing.T) {
	ans, err := newTestResponder(t).Answer("region overview")
	require.NoError(t, err)

	require.Len(t, ans.Lines, 5)
	assert.Equal(t, "1. Northeast: $1.01B (143% of target)", ans.Lines[0])
	assert.True(t, strings.HasPrefix(ans.Lines[4], "5. Midwest"))
	assert.Equal(t, "Northeast is the top performer; Midwest has the most room to grow.", ans.Footer)
}

func TestResponder_Quarterly(t *testing.T) {
	r := newTestResponder(t)

	ans, err := r.Answer("Show me Q3 breakdown")
	require.NoError(t, err)
	assert.Equal(t, "Q3 2024 performance", ans.Title)
	assert.Equal(t, "• Total revenue: $1.29B", ans.Lines[0])
	assert.Equal(t, "• Total units: 20.1K", ans.Lines[1])

	ans, err = r.Answer("quarter by quarter")
	require.NoError(t, err)
	assert.Len(t, ans.Lines, 4)
	assert.Equal(t, "Q3 2024 was the strongest quarter.", ans.Footer)
}

func TestResponder_YoYGrowth(t *testing.T) {
	ans, err := newTestResponder(t).Answer("growth vs last year")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"• 2024 revenue: $4.35B",
		"• 2023 revenue: $1.04B",
		"• YoY growth: +318.4%",
	}, ans.Lines)
	assert.Equal(t, "We're up 318.4% compared to last year.", ans.Footer)
}

func TestResponder_Text(t *testing.T) {
	ans := Answer{Title: "T", Lines: []string{"a", "b"}, Footer: "f"}
	assert.Equal(t, "T\na\nb\n\nf", ans.Text())
}
