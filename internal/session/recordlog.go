package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/amanullahtanweer/voice-interview/internal/api"
)

// RecordLogger writes a structured JSONL record of one interview to a file.
// It is the only trace the client keeps of a session, and only while the
// user asked for it.
type RecordLogger struct {
	mu   sync.Mutex
	file *os.File
}

type recordEntry struct {
	Timestamp   string            `json:"ts"`
	Event       string            `json:"event"`
	InterviewID string            `json:"interview_id"`
	Question    string            `json:"question,omitempty"`
	Transcript  string            `json:"transcript,omitempty"`
	Relevance   *int              `json:"relevance,omitempty"`
	Clarity     *int              `json:"clarity,omitempty"`
	Correctness *int              `json:"correctness,omitempty"`
	Feedback    string            `json:"feedback,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// NewRecordLogger creates a logger under outputDir. Filename is timestamp
// plus a shortened interview id.
func NewRecordLogger(outputDir, interviewID string, started time.Time) (*RecordLogger, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}
	shortID := interviewID
	if len(interviewID) > 8 {
		shortID = interviewID[:8]
	}
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_interview_%s.jsonl", started.Format("20060102_150405"), shortID))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &RecordLogger{file: f}, nil
}

func (rl *RecordLogger) Close() error {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file != nil {
		err := rl.file.Close()
		rl.file = nil
		return err
	}
	return nil
}

func (rl *RecordLogger) write(entry recordEntry) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return
	}
	entry.Timestamp = time.Now().Format(time.RFC3339Nano)
	entry.Transcript = strings.TrimSpace(entry.Transcript)
	enc := json.NewEncoder(rl.file)
	_ = enc.Encode(entry)
}

func (rl *RecordLogger) LogStart(interviewID, role string) {
	rl.write(recordEntry{Event: "interview_start", InterviewID: interviewID, Details: map[string]string{"role": role}})
}

func (rl *RecordLogger) LogQuestion(interviewID, question string) {
	rl.write(recordEntry{Event: "question", InterviewID: interviewID, Question: question})
}

func (rl *RecordLogger) LogAnswer(interviewID, question, transcript string, eval api.Evaluation) {
	rl.write(recordEntry{
		Event:       "answer",
		InterviewID: interviewID,
		Question:    question,
		Transcript:  transcript,
		Relevance:   &eval.Relevance,
		Clarity:     &eval.Clarity,
		Correctness: &eval.Correctness,
		Feedback:    eval.Feedback,
	})
}

func (rl *RecordLogger) LogCompleted(interviewID string) {
	rl.write(recordEntry{Event: "questions_exhausted", InterviewID: interviewID})
}

func (rl *RecordLogger) LogSummary(interviewID string, summary api.Summary) {
	rl.write(recordEntry{Event: "summary", InterviewID: interviewID, Details: map[string]string{
		"overall_feedback": summary.OverallFeedback,
		"strengths":        summary.Strengths,
		"improvements":     summary.Improvements,
	}})
}

func (rl *RecordLogger) LogFailure(interviewID string, phase Phase, reason string) {
	rl.write(recordEntry{Event: "failure", InterviewID: interviewID, Details: map[string]string{
		"phase":  string(phase),
		"reason": reason,
	}})
}

func (rl *RecordLogger) LogReset(interviewID string) {
	rl.write(recordEntry{Event: "reset", InterviewID: interviewID})
}
