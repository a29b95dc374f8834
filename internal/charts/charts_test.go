package charts

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocity-dashboard/internal/daterange"
	"velocity-dashboard/internal/models"
	"velocity-dashboard/internal/services"
	"velocity-dashboard/internal/store"
)

func TestValue(t *testing.T) {
	assert.Equal(t, 1.5, value(1.5))
	assert.Nil(t, value(math.NaN()))
	assert.Nil(t, value(math.Inf(-1)))
}

func TestRender(t *testing.T) {
	s, err := store.Default()
	require.NoError(t, err)
	a := services.NewAnalytics(s)

	snap, err := a.Dashboard(context.Background(), daterange.Q3)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "Velocity Motors", snap))

	html := buf.String()
	for _, want := range []string{
		"Velocity Motors Sales",
		"Monthly Revenue",
		"Monthly Units",
		"Units by Model",
		"Regional Performance",
		"Q3 2024",
		"Jul",
		"Model Pulse",
		"Northeast",
	} {
		assert.Contains(t, html, want)
	}
}

func TestRender_NonFiniteTrend(t *testing.T) {
	snap := &models.DashboardSnapshot{
		Summary:      models.VPSummary{Label: "Year to Date"},
		RevenueTrend: []models.TrendPoint{{Month: "Jan", Value: math.NaN()}},
	}

	var buf bytes.Buffer
	assert.NoError(t, Render(&buf, "Empty", snap))
}
