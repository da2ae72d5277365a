package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/echocat/slf4g"

	"github.com/amanullahtanweer/voice-interview/internal/api"
	"github.com/amanullahtanweer/voice-interview/internal/metrics"
)

// ErrIgnored marks a transition invoked outside its valid source phase. Such
// calls only happen from stale or duplicate triggers, so they are no-ops and
// never surfaced to the user.
var ErrIgnored = errors.New("transition ignored")

// Service is the narrow request/response contract with the remote interview
// service. Nothing else in the machine depends on network details.
type Service interface {
	StartInterview(ctx context.Context, role string) (api.StartResponse, error)
	SubmitAnswer(ctx context.Context, interviewID string, audio []byte) (api.AnswerResponse, error)
	NextQuestion(ctx context.Context, interviewID string) (api.NextResponse, error)
	Summary(ctx context.Context, interviewID string) (api.Summary, error)
}

// QuestionPlayer schedules fire-and-forget playback of question audio. The
// machine never blocks on it.
type QuestionPlayer interface {
	PlayQuestion(audioFile string)
}

// Options configures a Machine. Service is required; the rest is optional.
type Options struct {
	Service Service
	Player  QuestionPlayer
	// RecordDir, when non-empty, enables a JSONL record file per interview.
	RecordDir string
}

// Machine owns the authoritative interview state and the legal transition
// graph between lifecycle phases. Every transition is a no-op when invoked
// outside its valid source phase; every failed operation returns control to
// the phase that was active before it, never advancing state on error.
//
// The lock is released around network calls: the transient phase set before
// the call is what rejects overlapping transitions, and results arriving
// after a Reset are discarded by comparing the session key captured before
// the call.
type Machine struct {
	mu        sync.Mutex
	svc       Service
	player    QuestionPlayer
	recordDir string

	phase   Phase
	session Session
	failure *Failure

	record *RecordLogger
	stats  *metrics.Interview
}

// NewMachine creates a machine in the NotStarted phase with a fresh session
// identity.
func NewMachine(opts Options) *Machine {
	return &Machine{
		svc:       opts.Service,
		player:    opts.Player,
		recordDir: opts.RecordDir,
		phase:     PhaseNotStarted,
		session:   newSession(),
	}
}

// Snapshot returns a consistent copy of the user-visible state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{Phase: m.phase, Session: m.session}
	if m.failure != nil {
		f := *m.failure
		snap.Failure = &f
	}
	return snap
}

// Metrics returns the counters of the current interview, or nil before the
// first successful Start.
func (m *Machine) Metrics() *metrics.Interview {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Start begins a new interview for the given role. Valid only from
// NotStarted. On success the first question is stored, the phase moves to
// AwaitingAnswer and question audio playback is scheduled. On failure the
// phase stays NotStarted and the error is surfaced.
func (m *Machine) Start(ctx context.Context, role string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return errors.New("role must not be empty")
	}

	m.mu.Lock()
	if m.phase != PhaseNotStarted {
		m.logIgnored("start")
		m.mu.Unlock()
		return ErrIgnored
	}
	m.phase = PhaseStarting
	m.failure = nil
	key := m.session.Key
	m.mu.Unlock()

	resp, err := m.svc.StartInterview(ctx, role)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Key != key {
		// Session was abandoned while the request was in flight.
		return nil
	}
	if err != nil {
		m.phase = PhaseNotStarted
		m.fail(err)
		return err
	}

	m.session.ID = resp.InterviewID
	m.session.Role = role
	m.session.Question = resp.Question
	m.session.AudioFile = resp.AudioFile
	m.session.Transcript = ""
	m.session.Evaluation = nil
	m.phase = PhaseAwaitingAnswer

	m.stats = metrics.NewInterview(resp.InterviewID)
	m.stats.QuestionAsked()
	m.openRecord(role)
	if m.record != nil {
		m.record.LogQuestion(m.session.ID, resp.Question)
	}
	m.schedulePlayback(resp.AudioFile)

	log.With("interview", resp.InterviewID).
		With("role", role).
		Info("Interview started.")
	return nil
}

// SubmitAnswer sends a finished answer recording for evaluation. Valid only
// from AwaitingAnswer with a non-empty artifact. On success transcript and
// evaluation are stored together and the phase moves to Reviewing; on
// failure both stay untouched and the phase returns to AwaitingAnswer so the
// user may retry without losing the question.
func (m *Machine) SubmitAnswer(ctx context.Context, audio []byte) error {
	m.mu.Lock()
	if m.phase != PhaseAwaitingAnswer || len(audio) == 0 {
		m.logIgnored("submit_answer")
		m.mu.Unlock()
		return ErrIgnored
	}
	m.phase = PhaseSubmitting
	m.failure = nil
	key := m.session.Key
	interviewID := m.session.ID
	m.mu.Unlock()

	resp, err := m.svc.SubmitAnswer(ctx, interviewID, audio)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Key != key {
		return nil
	}
	if err != nil {
		m.phase = PhaseAwaitingAnswer
		m.fail(err)
		return err
	}

	eval := resp.Evaluation
	m.session.Transcript = resp.Transcript
	m.session.Evaluation = &eval
	m.phase = PhaseReviewing

	if m.stats != nil {
		m.stats.AnswerScored(eval.Relevance, eval.Clarity, eval.Correctness)
	}
	if m.record != nil {
		m.record.LogAnswer(interviewID, m.session.Question, resp.Transcript, eval)
	}

	log.With("interview", interviewID).
		With("relevance", eval.Relevance).
		With("clarity", eval.Clarity).
		With("correctness", eval.Correctness).
		Info("Answer evaluated.")
	return nil
}

// NextQuestion advances to the next question. Valid only from Reviewing. On
// success question, transcript and evaluation are reset and the phase
// returns to AwaitingAnswer; on failure it reverts to Reviewing. When the
// service reports the question list exhausted, the session is flagged and
// the phase stays Reviewing so the user can end the interview.
func (m *Machine) NextQuestion(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != PhaseReviewing {
		m.logIgnored("next_question")
		m.mu.Unlock()
		return ErrIgnored
	}
	m.phase = PhaseAdvancing
	m.failure = nil
	key := m.session.Key
	interviewID := m.session.ID
	m.mu.Unlock()

	resp, err := m.svc.NextQuestion(ctx, interviewID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Key != key {
		return nil
	}
	if err != nil {
		m.phase = PhaseReviewing
		m.fail(err)
		return err
	}

	if resp.Completed() {
		m.phase = PhaseReviewing
		m.session.Exhausted = true
		if m.record != nil {
			m.record.LogCompleted(interviewID)
		}
		log.With("interview", interviewID).Info("No further questions available.")
		return nil
	}

	m.session.Question = resp.Question
	m.session.AudioFile = resp.AudioFile
	m.session.Transcript = ""
	m.session.Evaluation = nil
	m.phase = PhaseAwaitingAnswer

	if m.stats != nil {
		m.stats.QuestionAsked()
	}
	if m.record != nil {
		m.record.LogQuestion(interviewID, resp.Question)
	}
	m.schedulePlayback(resp.AudioFile)

	log.With("interview", interviewID).Info("Advanced to next question.")
	return nil
}

// EndInterview requests the terminal summary. Valid only from Reviewing. On
// success the summary is stored and the phase moves to Ended; on failure it
// reverts to Reviewing.
func (m *Machine) EndInterview(ctx context.Context) error {
	m.mu.Lock()
	if m.phase != PhaseReviewing {
		m.logIgnored("end_interview")
		m.mu.Unlock()
		return ErrIgnored
	}
	m.phase = PhaseSummarizing
	m.failure = nil
	key := m.session.Key
	interviewID := m.session.ID
	m.mu.Unlock()

	summary, err := m.svc.Summary(ctx, interviewID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session.Key != key {
		return nil
	}
	if err != nil {
		m.phase = PhaseReviewing
		m.fail(err)
		return err
	}

	m.session.Summary = &summary
	m.phase = PhaseEnded

	if m.stats != nil {
		m.stats.Finalize()
	}
	if m.record != nil {
		m.record.LogSummary(interviewID, summary)
		_ = m.record.Close()
		m.record = nil
	}

	log.With("interview", interviewID).Info("Interview ended.")
	return nil
}

// Reset returns to NotStarted with a freshly constructed session identity.
// Valid from any phase; it makes no server call. A request left in flight
// completes against the old identity and its result is discarded.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record != nil {
		m.record.LogReset(m.session.ID)
		_ = m.record.Close()
		m.record = nil
	}

	old := m.session.ID
	m.session = newSession()
	m.phase = PhaseNotStarted
	m.failure = nil
	m.stats = nil

	log.With("interview", old).Info("Session reset.")
}

// fail records the transient failure overlay. Callers set the reverted
// phase before calling.
func (m *Machine) fail(err error) {
	reason := errorMessage(err)
	m.failure = &Failure{Phase: m.phase, Reason: reason}
	if m.stats != nil {
		m.stats.TransportError()
	}
	if m.record != nil {
		m.record.LogFailure(m.session.ID, m.phase, reason)
	}
	log.With("phase", m.phase).
		With("reason", reason).
		Warn("Operation failed, phase reverted.")
}

func (m *Machine) logIgnored(op string) {
	log.With("op", op).
		With("phase", m.phase).
		Debug("Transition ignored, illegal source phase.")
}

func (m *Machine) openRecord(role string) {
	if m.recordDir == "" {
		return
	}
	record, err := NewRecordLogger(m.recordDir, m.session.ID, time.Now())
	if err != nil {
		log.WithError(err).Warn("Failed to open interview record log.")
		return
	}
	m.record = record
	m.record.LogStart(m.session.ID, role)
}

func (m *Machine) schedulePlayback(audioFile string) {
	if m.player != nil && audioFile != "" {
		m.player.PlayQuestion(audioFile)
	}
}

// errorMessage reduces an operation error to the single string surfaced to
// the user.
func errorMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
