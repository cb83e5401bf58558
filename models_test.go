package studycompanion

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionMapJSON(t *testing.T) {
	data, err := json.Marshal(CompletionMap{2: true, 0: false, 10: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"0":false,"2":true,"10":true}`, string(data))
	// encoding/json orders string keys lexically.
	assert.Equal(t, `{"0":false,"10":true,"2":true}`, string(data))

	var m CompletionMap
	require.NoError(t, json.Unmarshal([]byte(`{"1":true,"x":true,"3":false}`), &m))
	assert.Equal(t, CompletionMap{1: true, 3: false}, m)

	assert.Error(t, json.Unmarshal([]byte(`[true]`), &m))
}

func TestRequestValidation(t *testing.T) {
	err := StudyPlanRequest{Subject: "Calculus", ExamDate: "25/12/2025"}.Validate()
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "topics")

	assert.NoError(t, StudyPlanRequest{Subject: "Calculus", Topics: "Limits", ExamDate: "25/12/2025"}.Validate())
	assert.ErrorIs(t, NotesRequest{Topic: "Limits", DetailLevel: "brief"}.Validate(), ErrInvalidRequest)
	assert.NoError(t, NotesRequest{Topic: "Limits", DetailLevel: "brief", Format: "bullets"}.Validate())
	assert.ErrorIs(t, ExplanationRequest{}.Validate(), ErrInvalidRequest)
}

func TestQuizRequestValidation(t *testing.T) {
	base := QuizRequest{Topic: "Limits", Difficulty: "easy"}

	for _, n := range []int{0, -1, 16} {
		req := base
		req.NumQuestions = n
		assert.ErrorIs(t, req.Validate(), ErrInvalidRequest, "numQuestions=%d", n)
	}
	for _, n := range []int{1, 10, 15} {
		req := base
		req.NumQuestions = n
		assert.NoError(t, req.Validate(), "numQuestions=%d", n)
	}
}

func TestStudyPlanValidate(t *testing.T) {
	plan := StudyPlan{Subject: "Calculus", ExamDate: "25/12/2025", Topics: []Topic{{Name: "Limits", Duration: 30}}}
	assert.NoError(t, plan.Validate())

	plan.Topics = append(plan.Topics, Topic{Duration: 10})
	err := plan.Validate()
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.True(t, strings.Contains(err.Error(), "topic 1"))

	assert.ErrorIs(t, StudyPlan{Subject: "Calculus"}.Validate(), ErrInvalidRequest)
}

func TestQuizResultValidate(t *testing.T) {
	assert.NoError(t, QuizResult{Score: 3, TotalQuestions: 5}.Validate())
	assert.NoError(t, QuizResult{Score: 0, TotalQuestions: 0}.Validate())
	assert.ErrorIs(t, QuizResult{Score: 6, TotalQuestions: 5}.Validate(), ErrInvalidRequest)
	assert.ErrorIs(t, QuizResult{Score: -1, TotalQuestions: 5}.Validate(), ErrInvalidRequest)
}
