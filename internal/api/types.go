package api

import "fmt"

// Evaluation is the per-answer score card returned by the service.
// Scores are integers in [0,10].
type Evaluation struct {
	Relevance   int    `json:"relevance"`
	Clarity     int    `json:"clarity"`
	Correctness int    `json:"correctness"`
	Feedback    string `json:"feedback"`
}

// Validate checks that all scores are inside the documented range.
func (e Evaluation) Validate() error {
	for _, s := range []struct {
		name  string
		value int
	}{
		{"relevance", e.Relevance},
		{"clarity", e.Clarity},
		{"correctness", e.Correctness},
	} {
		if s.value < 0 || s.value > 10 {
			return fmt.Errorf("evaluation score %s out of range: %d", s.name, s.value)
		}
	}
	return nil
}

// Summary is the terminal feedback for a whole interview.
type Summary struct {
	OverallFeedback string `json:"overall_feedback"`
	Strengths       string `json:"strengths"`
	Improvements    string `json:"improvements"`
}

// StartResponse is returned by POST /interview/start.
type StartResponse struct {
	InterviewID string `json:"interview_id"`
	Question    string `json:"question"`
	AudioFile   string `json:"audio_file"`
}

// AnswerResponse is returned by POST /interview/{id}/answer.
type AnswerResponse struct {
	Transcript string     `json:"transcript"`
	Evaluation Evaluation `json:"evaluation"`
}

// NextResponse is returned by GET /interview/{id}/next. When the question
// list is exhausted the service sends only {"status":"completed"}.
type NextResponse struct {
	Status    string `json:"status,omitempty"`
	Question  string `json:"question,omitempty"`
	AudioFile string `json:"audio_file,omitempty"`
}

// Completed reports whether the service has no further questions.
func (r NextResponse) Completed() bool {
	return r.Status == "completed"
}

// Error is a transport or service failure. Message is the single
// human-readable string surfaced to the user.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}
