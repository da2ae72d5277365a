package metrics

import (
	"fmt"
	"sync"
	"time"
)

// Interview collects counters for one interview run.
type Interview struct {
	InterviewID      string
	StartTime        time.Time
	EndTime          time.Time
	QuestionsAsked   int
	AnswersSubmitted int
	TransportErrors  int

	relevanceTotal   int
	clarityTotal     int
	correctnessTotal int

	mu sync.Mutex
}

func NewInterview(interviewID string) *Interview {
	return &Interview{
		InterviewID: interviewID,
		StartTime:   time.Now(),
	}
}

func (m *Interview) QuestionAsked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.QuestionsAsked++
}

func (m *Interview) AnswerScored(relevance, clarity, correctness int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnswersSubmitted++
	m.relevanceTotal += relevance
	m.clarityTotal += clarity
	m.correctnessTotal += correctness
}

func (m *Interview) TransportError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TransportErrors++
}

func (m *Interview) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// Summary renders a human-readable report of the run.
func (m *Interview) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	duration := end.Sub(m.StartTime)

	avgRelevance := 0.0
	avgClarity := 0.0
	avgCorrectness := 0.0
	if m.AnswersSubmitted > 0 {
		avgRelevance = float64(m.relevanceTotal) / float64(m.AnswersSubmitted)
		avgClarity = float64(m.clarityTotal) / float64(m.AnswersSubmitted)
		avgCorrectness = float64(m.correctnessTotal) / float64(m.AnswersSubmitted)
	}

	return fmt.Sprintf(
		"Interview: %s\n"+
			"Duration: %v\n"+
			"Questions Asked: %d\n"+
			"Answers Submitted: %d\n"+
			"Transport Errors: %d\n"+
			"Avg Relevance: %.1f/10\n"+
			"Avg Clarity: %.1f/10\n"+
			"Avg Correctness: %.1f/10\n",
		m.InterviewID,
		duration.Round(time.Second),
		m.QuestionsAsked,
		m.AnswersSubmitted,
		m.TransportErrors,
		avgRelevance,
		avgClarity,
		avgCorrectness,
	)
}
