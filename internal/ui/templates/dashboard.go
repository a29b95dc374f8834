// Package templates holds the server-rendered dashboard page.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/format"
	"velocity-dashboard/internal/models"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// DashboardProps is the first paint of the page; later updates arrive over SSE.
type DashboardProps struct {
	Company     models.Company
	Range       daterange.Token
	Summary     models.VPSummary
	Regions     []models.RegionComparison
	Leaderboard []models.Dealer
}

// Dashboard renders the VP dashboard shell with datastar bindings.
func Dashboard(p DashboardProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pw := &pageWriter{w: w}

		pw.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		pw.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		pw.raw(`<title>`)
		pw.text(p.Company.Name + " Sales Dashboard")
		pw.raw(`</title><script type="module" src="` + datastarScript + `"></script></head>`)

		pw.raw(`<body data-signals="`)
		pw.text(fmt.Sprintf(`{range: '%s', metric: 'revenue', region: '', query: ''}`, p.Range))
		pw.raw(`" data-init="@get('/sse/dashboard')">`)

		pw.raw(`<header><h1>`)
		pw.text(p.Company.Name)
		pw.raw(`</h1><select id="range" data-bind-range data-on-change="@get('/sse/dashboard')">`)
		for _, t := range append(daterange.Quarters(), daterange.YTD) {
			selected := ""
			if t == p.Range.Normalize() {
				selected = " selected"
			}
			pw.raw(`<option value="` + t.String() + `"` + selected + `>`)
			pw.text(daterange.Label(t, p.Company.Year))
			pw.raw(`</option>`)
		}
		pw.raw(`</select><a href="/charts">Charts</a> <a href="/api/export.xlsx" data-attr-href="'/api/export.xlsx?range=' + $range">Export</a></header>`)

		pw.raw(`<main>`)
		kpis(pw, p.Summary)
		regions(pw, p.Regions)
		leaderboard(pw, p.Leaderboard)
		chat(pw)
		pw.raw(`</main></body></html>`)

		return pw.err
	})
}

func kpis(pw *pageWriter, s models.VPSummary) {
	cards := [][2]string{
		{"Revenue · " + s.Label, format.Currency(s.Revenue)},
		{"Units Sold", format.Number(float64(s.Units))},
		{"YoY Growth", format.SignedPercent(s.YoYGrowth)},
		{"Avg Selling Price", format.Currency(s.AverageSalePrice)},
		{"Gross Margin", format.Percent(s.GrossMargin)},
		{"Market Share", format.Percent(s.MarketShare)},
	}
	pw.raw(`<div id="kpi-cards" class="kpi-grid">`)
	for _, c := range cards {
		pw.raw(`<div class="kpi-card"><span class="kpi-label">`)
		pw.text(c[0])
		pw.raw(`</span><strong>`)
		pw.text(c[1])
		pw.raw(`</strong></div>`)
	}
	pw.raw(`</div>`)
}

func regions(pw *pageWriter, rs []models.RegionComparison) {
	pw.raw(`<section id="regions"><h2>Regions</h2><ul class="region-list">`)
	for _, r := range rs {
		pw.raw(`<li><button data-on-click="$region = '`)
		pw.text(r.Region)
		pw.raw(`'; @get('/sse/region')">`)
		pw.text(r.Region)
		pw.raw(`</button> `)
		pw.text(format.Currency(r.Revenue) + " · " + format.Percent(r.TargetPct) + " of target")
		pw.raw(`</li>`)
	}
	pw.raw(`</ul><div id="region-detail" class="region-detail"></div></section>`)
}

func leaderboard(pw *pageWriter, dealers []models.Dealer) {
	pw.raw(`<section id="leaderboard"><h2>Dealer Leaderboard</h2><table class="modern-table">`)
	pw.raw(`<thead><tr><th>Rank</th><th>Dealer</th><th>Region</th><th>City</th><th>Revenue</th><th>Units</th></tr></thead>`)
	pw.raw(`<tbody id="leaderboard-body">`)
	for _, d := range dealers {
		pw.raw(`<tr><td>#`)
		pw.text(fmt.Sprint(d.Rank))
		for _, cell := range []string{d.Name, d.Region, d.City, format.Currency(d.Revenue), format.Number(float64(d.Units))} {
			pw.raw(`</td><td>`)
			pw.text(cell)
		}
		pw.raw(`</td></tr>`)
	}
	pw.raw(`</tbody></table></section>`)
}

func chat(pw *pageWriter) {
	pw.raw(`<aside id="chat"><div id="chat-messages"></div>`)
	pw.raw(`<input type="text" placeholder="Ask about sales, regions, models…" data-bind-query data-on-keydown="evt.key === 'Enter' && @post('/sse/assistant')">`)
	pw.raw(`<button data-on-click="@post('/sse/assistant')">Send</button></aside>`)
}

// pageWriter remembers the first write error so rendering reads straight through.
type pageWriter struct {
	w   io.Writer
	err error
}

func (pw *pageWriter) raw(s string) {
	if pw.err != nil {
		return
	}
	_, pw.err = io.WriteString(pw.w, s)
}

func (pw *pageWriter) text(s string) {
	pw.raw(templ.EscapeString(strings.TrimSpace(s)))
}
