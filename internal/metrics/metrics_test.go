package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterviewCounters(t *testing.T) {
	m := NewInterview("x1")

	m.QuestionAsked()
	m.QuestionAsked()
	m.AnswerScored(8, 7, 9)
	m.AnswerScored(6, 5, 7)
	m.TransportError()
	m.Finalize()

	assert.Equal(t, 2, m.QuestionsAsked)
	assert.Equal(t, 2, m.AnswersSubmitted)
	assert.Equal(t, 1, m.TransportErrors)
	assert.False(t, m.EndTime.IsZero())

	report := m.Summary()
	assert.Contains(t, report, "Interview: x1")
	assert.Contains(t, report, "Questions Asked: 2")
	assert.Contains(t, report, "Avg Relevance: 7.0/10")
	assert.Contains(t, report, "Avg Clarity: 6.0/10")
	assert.Contains(t, report, "Avg Correctness: 8.0/10")
}

func TestSummaryWithoutAnswers(t *testing.T) {
	m := NewInterview("x1")
	m.QuestionAsked()

	report := m.Summary()
	assert.Contains(t, report, "Answers Submitted: 0")
	assert.Contains(t, report, "Avg Relevance: 0.0/10")
}
