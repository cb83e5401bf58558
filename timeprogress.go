package studycompanion

import (
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// ParseExamTimestamp parses "DD/MM/YYYY[ HH:MM][ AM|PM]" in local time.
// A missing time means midnight. Malformed input does not produce an error:
// the current time is returned so the countdown reads zero instead of
// breaking.
func ParseExamTimestamp(examDate string) time.Time {
	return parseExamTimestamp(examDate, time.Now)
}

func parseExamTimestamp(examDate string, now func() time.Time) time.Time {
	t, ok := parseExamDate(examDate)
	if !ok {
		Logger().Debug("Unparseable exam date, falling back to now", zap.String("exam_date", examDate))
		return now()
	}
	return t
}

func parseExamDate(examDate string) (time.Time, bool) {
	examDate = strings.TrimSpace(examDate)
	if examDate == "" {
		return time.Time{}, false
	}

	datePart, timePart, _ := strings.Cut(examDate, " ")
	dateFields := strings.Split(datePart, "/")
	if len(dateFields) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dateFields[0])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(dateFields[1])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(dateFields[2])
	if err != nil {
		return time.Time{}, false
	}

	hourMinute, meridiem := "12:00", "AM"
	if timePart = strings.TrimSpace(timePart); timePart != "" {
		if strings.Contains(timePart, "AM") || strings.Contains(timePart, "PM") {
			fields := strings.Fields(timePart)
			if len(fields) != 2 {
				return time.Time{}, false
			}
			hourMinute, meridiem = fields[0], fields[1]
		} else {
			hourMinute, meridiem = timePart, ""
		}
	}

	hourStr, minuteStr, found := strings.Cut(hourMinute, ":")
	if !found {
		return time.Time{}, false
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return time.Time{}, false
	}
	minute, err := strconv.Atoi(minuteStr)
	if err != nil {
		return time.Time{}, false
	}

	switch {
	case meridiem == "PM" && hour < 12:
		hour += 12
	case meridiem == "AM" && hour == 12:
		hour = 0
	}

	// Out of range components roll over the way calendar arithmetic does.
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.Local), true
}

// ComputeCountdown splits the time left until exam into whole days, hours,
// minutes and seconds. A past exam yields all zeros.
func ComputeCountdown(exam, now time.Time) Countdown {
	delta := exam.Sub(now).Milliseconds()
	if delta <= 0 {
		return Countdown{}
	}
	var c Countdown
	c.Days, delta = delta/msPerDay, delta%msPerDay
	c.Hours, delta = delta/msPerHour, delta%msPerHour
	c.Minutes, delta = delta/msPerMinute, delta%msPerMinute
	c.Seconds = delta / msPerSecond
	return c
}

// ComputeProgress counts completed non-break topics. Breaks may carry a
// completion flag but never count toward either side of the percentage.
func ComputeProgress(topics []Topic, completion CompletionMap) Progress {
	var p Progress
	for i, topic := range topics {
		if topic.IsBreak {
			continue
		}
		p.TotalNonBreakCount++
		if completion[i] {
			p.CompletedCount++
		}
	}
	if p.TotalNonBreakCount > 0 {
		p.Percentage = int(math.Round(float64(p.CompletedCount) / float64(p.TotalNonBreakCount) * 100))
	}
	return p
}

// ToggleTopicCompletion returns a copy of completion with index flipped.
// The input map is not modified.
func ToggleTopicCompletion(completion CompletionMap, index int) CompletionMap {
	out := make(CompletionMap, len(completion)+1)
	for k, v := range completion {
		out[k] = v
	}
	out[index] = !completion[index]
	return out
}
