package studycompanion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, 12, 24, 23, 30, 0, 0, time.Local)
	plan := testPlan("sp-1")
	completion := CompletionMap{0: true}

	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	results := []QuizResult{
		{Topic: "Derivatives", Score: 2, TotalQuestions: 4, Timestamp: base.Add(2 * time.Hour)},
		{Topic: "Limits", Score: 5, TotalQuestions: 5, Timestamp: base.Add(3 * time.Hour)},
		{Topic: "Derivatives", Score: 1, TotalQuestions: 3, Timestamp: base.Add(time.Hour)},
	}
	notes := []Note{{Topic: "Old"}, {Topic: "Series"}, {Topic: "Integration by parts"}}
	explanations := []Explanation{{Topic: "Limits"}, {Topic: "Vectors"}}

	d := BuildDashboard(plan, completion, results, notes, explanations, now)

	assert.Equal(t, "Calculus", d.Subject)
	assert.Equal(t, Countdown{Days: 1}, d.Countdown)
	assert.Equal(t, Progress{CompletedCount: 1, TotalNonBreakCount: 2, Percentage: 50}, d.Progress)

	assert.Equal(t, []TopicBar{
		{Name: "Limits", Progress: 100, Target: 100},
		{Name: "Derivative...", Progress: 0, Target: 100},
	}, d.Topics)

	assert.Equal(t, []QuizChartPoint{
		{Name: "Derivative... #1", Score: 33},
		{Name: "Derivative... #2", Score: 50},
		{Name: "Limits #1", Score: 100},
	}, d.QuizChart)

	assert.Equal(t, []CoverageEntry{
		{Subject: "Limits", Value: 100},
		{Subject: "Derivati...", Value: 0},
		{Subject: "Series", Value: 80},
		{Subject: "Integrat...", Value: 80},
		{Subject: "Vectors", Value: 90},
	}, d.Coverage)
}

func TestBuildDashboard_QuizChartKeepsLastFive(t *testing.T) {
	base := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	var results []QuizResult
	for i := 0; i < 7; i++ {
		results = append(results, QuizResult{Topic: "Limits", Score: i, TotalQuestions: 10, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}

	d := BuildDashboard(testPlan("sp-1"), nil, results, nil, nil, base)
	require.Len(t, d.QuizChart, 5)
	assert.Equal(t, "Limits #3", d.QuizChart[0].Name)
	assert.Equal(t, QuizChartPoint{Name: "Limits #7", Score: 60}, d.QuizChart[4])
}

func TestBuildDashboard_FallbackChart(t *testing.T) {
	plan := testPlan("sp-1")

	d := BuildDashboard(plan, CompletionMap{1: true, 2: true}, nil, nil, nil, time.Now())
	assert.Equal(t, []QuizChartPoint{{Name: "Derivati...", Score: 75}}, d.QuizChart)

	d = BuildDashboard(plan, nil, nil, nil, nil, time.Now())
	assert.Empty(t, d.QuizChart)
	assert.NotNil(t, d.QuizChart)
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", truncateLabel("short", 8))
	assert.Equal(t, "exactly8", truncateLabel("exactly8", 8))
	assert.Equal(t, "Thermody...", truncateLabel("Thermodynamics", 8))
	assert.Equal(t, "Ωmega-Ωm...", truncateLabel("Ωmega-Ωmega", 8))
}
