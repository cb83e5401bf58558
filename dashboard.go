package studycompanion

import (
	"math"
	"sort"
	"strconv"
	"time"
)

const (
	quizChartLimit         = 5
	fallbackQuizScore      = 75
	coveragePlanTopics     = 3
	coverageRecentNotes    = 2
	coverageRecentExplains = 1
	noteCoverage           = 80
	explanationCoverage    = 90
)

// TopicBar is one non-break topic with its completion, for a bar chart.
type TopicBar struct {
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
}

// QuizChartPoint is one quiz attempt as a percentage score.
type QuizChartPoint struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// CoverageEntry is one axis of the topic coverage radar.
type CoverageEntry struct {
	Subject string `json:"subject"`
	Value   int    `json:"value"`
}

// Dashboard is the aggregated view of one session.
type Dashboard struct {
	Subject   string           `json:"subject"`
	ExamDate  string           `json:"examDate"`
	Countdown Countdown        `json:"countdown"`
	Progress  Progress         `json:"progress"`
	Topics    []TopicBar       `json:"topics"`
	QuizChart []QuizChartPoint `json:"quizChart"`
	Coverage  []CoverageEntry  `json:"coverage"`
}

// BuildDashboard aggregates plan progress, quiz history and generated
// content into display values as of now.
func BuildDashboard(plan *StudyPlan, completion CompletionMap, results []QuizResult, notes []Note, explanations []Explanation, now time.Time) Dashboard {
	d := Dashboard{
		Subject:   plan.Subject,
		ExamDate:  plan.ExamDate,
		Countdown: ComputeCountdown(parseExamTimestamp(plan.ExamDate, func() time.Time { return now }), now),
		Progress:  ComputeProgress(plan.Topics, completion),
		Topics:    []TopicBar{},
	}

	for i, topic := range plan.Topics {
		if topic.IsBreak {
			continue
		}
		bar := TopicBar{Name: truncateLabel(topic.Name, 10), Target: 100}
		if completion[i] {
			bar.Progress = 100
		}
		d.Topics = append(d.Topics, bar)
	}

	d.QuizChart = quizChart(results)
	if len(d.QuizChart) == 0 {
		d.QuizChart = completedTopicChart(plan.Topics, completion)
	}
	d.Coverage = coverage(plan.Topics, completion, notes, explanations)
	return d
}

// quizChart groups attempts by topic in first-seen order, orders each group
// chronologically, numbers the attempts and keeps the last five points.
func quizChart(results []QuizResult) []QuizChartPoint {
	var order []string
	byTopic := make(map[string][]QuizResult)
	for _, r := range results {
		if _, ok := byTopic[r.Topic]; !ok {
			order = append(order, r.Topic)
		}
		byTopic[r.Topic] = append(byTopic[r.Topic], r)
	}

	points := []QuizChartPoint{}
	for _, topic := range order {
		attempts := byTopic[topic]
		sort.SliceStable(attempts, func(i, j int) bool {
			return attempts[i].Timestamp.Before(attempts[j].Timestamp)
		})
		label := truncateLabel(topic, 10)
		for i, a := range attempts {
			points = append(points, QuizChartPoint{
				Name:  label + " #" + strconv.Itoa(i+1),
				Score: percent(a.Score, a.TotalQuestions),
			})
		}
	}

	if len(points) > quizChartLimit {
		points = points[len(points)-quizChartLimit:]
	}
	return points
}

// completedTopicChart stands in for quiz history when there is none.
func completedTopicChart(topics []Topic, completion CompletionMap) []QuizChartPoint {
	points := []QuizChartPoint{}
	for i, topic := range topics {
		if topic.IsBreak || !completion[i] {
			continue
		}
		points = append(points, QuizChartPoint{Name: truncateLabel(topic.Name, 8), Score: fallbackQuizScore})
		if len(points) == quizChartLimit {
			break
		}
	}
	return points
}

func coverage(topics []Topic, completion CompletionMap, notes []Note, explanations []Explanation) []CoverageEntry {
	entries := []CoverageEntry{}
	for i, topic := range topics {
		if len(entries) == coveragePlanTopics {
			break
		}
		if topic.IsBreak {
			continue
		}
		entry := CoverageEntry{Subject: truncateLabel(topic.Name, 8)}
		if completion[i] {
			entry.Value = 100
		}
		entries = append(entries, entry)
	}

	for _, n := range lastN(notes, coverageRecentNotes) {
		entries = append(entries, CoverageEntry{Subject: truncateLabel(n.Topic, 8), Value: noteCoverage})
	}
	for _, e := range lastN(explanations, coverageRecentExplains) {
		entries = append(entries, CoverageEntry{Subject: truncateLabel(e.Topic, 8), Value: explanationCoverage})
	}
	return entries
}

func lastN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}

func percent(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

func truncateLabel(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
