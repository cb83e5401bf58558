package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studycompanion"
)

type cannedGenerator string

func (g cannedGenerator) Generate(context.Context, string, string) (string, error) {
	return string(g), nil
}

func TestPlayQuiz(t *testing.T) {
	gen := cannedGenerator(`{"questions":[
		{"id":1,"question":"2+2?","options":["3","4","5","6"],"correctAnswer":"4"},
		{"id":2,"question":"3+3?","options":["5","6","7","8"],"correctAnswer":"6"}
	]}`)
	companion := studycompanion.NewStudyCompanion(gen, studycompanion.WithStrictQuiz(true))
	req := studycompanion.QuizRequest{Topic: "Arithmetic", Difficulty: "easy", NumQuestions: 2}

	var out bytes.Buffer
	err := playQuiz(context.Background(), companion, req, strings.NewReader("b\nz\nA\n"), &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Question 1/2:")
	assert.Contains(t, out.String(), "Please enter A, B, C, or D")
	assert.Contains(t, out.String(), "Incorrect. The correct answer is: 6")
	assert.Contains(t, out.String(), "Score: 1/2")
}

func TestPlayQuiz_InputClosed(t *testing.T) {
	gen := cannedGenerator(`{"questions":[{"id":1,"question":"2+2?","options":["3","4","5","6"],"correctAnswer":"4"}]}`)
	companion := studycompanion.NewStudyCompanion(gen)
	req := studycompanion.QuizRequest{Topic: "Arithmetic", Difficulty: "easy", NumQuestions: 1}

	err := playQuiz(context.Background(), companion, req, strings.NewReader(""), &bytes.Buffer{})
	assert.ErrorContains(t, err, "input closed")
}

func TestPrintSummary(t *testing.T) {
	plan := &studycompanion.StudyPlan{
		ExamDate: "02/01/2025",
		Topics:   []studycompanion.Topic{{Name: "Limits"}, {Name: "Break", IsBreak: true}},
	}
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)

	var out bytes.Buffer
	printSummary(&out, plan, now)
	assert.Contains(t, out.String(), "Exam in 1d 0h 0m 0s")
	assert.Contains(t, out.String(), "Progress: 0/1 topics (0%)")
}
