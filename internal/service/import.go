package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/recordport/recordport/internal/metrics"
	"github.com/recordport/recordport/internal/model"
	"github.com/recordport/recordport/internal/validation"
)

// Messages sent to import clients.
const (
	MsgNoData           = "No data provided"
	MsgUnsupportedFile  = "Unsupported file type"
	MsgInvalidPayload   = "Invalid batch payload"
	MsgConfirmPrompt    = "Data is valid. Do you want to save file to database?"
	MsgImportSuccessful = "Import successful"
	MsgClientDeclined   = "Client chose not to save the file."
	MsgInvalidResponse  = "Invalid response. Expected 'yes' or 'no'."
	MsgInsertFailed     = "Error inserting record: "
)

// DefaultConfirmTimeout bounds the wait for the save confirmation.
const DefaultConfirmTimeout = 2 * time.Minute

// SessionState is a step of an import session.
type SessionState string

const (
	StateAwaitingBatch        SessionState = "awaiting_batch"
	StateValidating           SessionState = "validating"
	StateInvalid              SessionState = "invalid"
	StateAwaitingConfirmation SessionState = "awaiting_confirmation"
	StateCommitting           SessionState = "committing"
	StateCommitted            SessionState = "committed"
	StateRejected             SessionState = "rejected"
	StateMalformed            SessionState = "malformed"
	StateFailed               SessionState = "failed"
	StateAborted              SessionState = "aborted"
)

// IsTerminal reports whether no transition leaves s.
func (s SessionState) IsTerminal() bool {
	switch s {
	case StateInvalid, StateCommitted, StateRejected, StateMalformed, StateFailed, StateAborted:
		return true
	}
	return false
}

// Channel is the persistent bidirectional connection an import runs over.
// ReadMessage must honor ctx cancellation and deadlines and return
// ErrDisconnected once the peer has gone away.
type Channel interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteJSON(ctx context.Context, v any) error
	WriteText(ctx context.Context, text string) error
}

// ImportResult is the final message of a committed import.
type ImportResult struct {
	Message     string `json:"message"`
	RecordCount int    `json:"record_count"`
}

// ImportError is the error message of a failed import.
type ImportError struct {
	Error any `json:"error"`
}

// Outcome summarizes a finished import session.
type Outcome struct {
	SessionID   string
	State       SessionState
	AdminName   string
	FileName    string
	RecordCount int
	// Err is the taxonomy error for failed terminals, nil otherwise.
	Err error
}

// ImportService creates import sessions.
type ImportService struct {
	store          Store
	audit          AuditLogger
	logger         *slog.Logger
	metrics        metrics.Recorder
	confirmTimeout time.Duration
}

// NewImportService creates a new ImportService.
// A non-positive confirmTimeout selects DefaultConfirmTimeout.
func NewImportService(store Store, audit AuditLogger, logger *slog.Logger, recorder metrics.Recorder, confirmTimeout time.Duration) *ImportService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if confirmTimeout <= 0 {
		confirmTimeout = DefaultConfirmTimeout
	}
	return &ImportService{
		store:          store,
		audit:          audit,
		logger:         logger.With("component", "service.import"),
		metrics:        recorder,
		confirmTimeout: confirmTimeout,
	}
}

// NewSession starts a session in StateAwaitingBatch.
func (s *ImportService) NewSession() *ImportSession {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	return &ImportSession{
		svc:     s,
		id:      id,
		state:   StateAwaitingBatch,
		visited: map[SessionState]bool{StateAwaitingBatch: true},
		logger:  s.logger.With("session_id", id),
	}
}

// Run drives a new session over ch until it reaches a terminal state.
func (s *ImportService) Run(ctx context.Context, ch Channel) *Outcome {
	return s.NewSession().Run(ctx, ch)
}

// ImportSession drives one import over one Channel. It is not reusable.
type ImportSession struct {
	svc     *ImportService
	id      string
	state   SessionState
	visited map[SessionState]bool
	logger  *slog.Logger
	batch   model.ImportBatch
}

// ID returns the session identifier.
func (s *ImportSession) ID() string { return s.id }

// State returns the current state.
func (s *ImportSession) State() SessionState { return s.state }

// transition moves to next. Each state is entered at most once.
func (s *ImportSession) transition(next SessionState) {
	if s.visited[next] {
		panic(fmt.Sprintf("import session %s re-entered state %s", s.id, next))
	}
	s.logger.Debug("import state change", "from", s.state, "to", next)
	s.visited[next] = true
	s.state = next
}

// Run executes the session. The returned outcome always holds a terminal state.
func (s *ImportSession) Run(ctx context.Context, ch Channel) *Outcome {
	out := s.run(ctx, ch)
	out.SessionID = s.id
	out.State = s.state
	out.AdminName = s.batch.AdminName
	out.FileName = s.batch.FileName

	s.svc.metrics.IncImportSession(string(s.state))
	s.logger.Info("import session finished",
		"state", s.state,
		"adminname", out.AdminName,
		"filename", out.FileName,
		"record_count", out.RecordCount,
	)
	return out
}

func (s *ImportSession) run(ctx context.Context, ch Channel) *Outcome {
	raw, err := ch.ReadMessage(ctx)
	if err != nil {
		return s.abort(err)
	}

	s.transition(StateValidating)
	if err := json.Unmarshal(raw, &s.batch); err != nil {
		s.logger.Warn("undecodable import batch", "error", err)
		return s.invalid(ctx, ch, ImportError{Error: MsgInvalidPayload}, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}

	count := len(s.batch.Records)
	s.logger.Info("import received",
		"adminname", s.batch.AdminName,
		"filename", s.batch.FileName,
		"encoding", s.batch.Encoding,
		"record_count", count,
	)
	s.svc.metrics.ObserveImportBatchSize(count)

	if count == 0 {
		return s.invalid(ctx, ch, ImportError{Error: MsgNoData}, ErrNoData)
	}
	if !model.ImportExtensions[s.batch.Extension()] {
		return s.invalid(ctx, ch, ImportError{Error: MsgUnsupportedFile}, ErrUnsupportedFileType)
	}

	if verrs := validation.Validate(s.batch.Records); len(verrs) > 0 {
		s.writeLog(ctx, model.StatusFailed, count)

		cause := ErrRowValidation
		if verrs[0].Row == model.RowAll {
			cause = ErrSchema
		}
		out := s.invalid(ctx, ch, ImportError{Error: verrs}, cause)
		out.RecordCount = count
		return out
	}

	s.transition(StateAwaitingConfirmation)
	if err := ch.WriteText(ctx, MsgConfirmPrompt); err != nil {
		return s.abort(err)
	}

	answer, err := s.awaitConfirmation(ctx, ch)
	if err != nil {
		return s.abort(err)
	}

	switch answer {
	case model.ConfirmationConfirm:
		return s.commit(ctx, ch, count)
	case model.ConfirmationDecline:
		s.transition(StateRejected)
		s.writeLog(ctx, model.StatusFailed, count)
		if err := ch.WriteText(ctx, MsgClientDeclined); err != nil {
			s.logger.Warn("failed to send decline notice", "error", err)
		}
		return &Outcome{RecordCount: count}
	default:
		s.transition(StateMalformed)
		if err := ch.WriteText(ctx, MsgInvalidResponse); err != nil {
			s.logger.Warn("failed to send malformed notice", "error", err)
		}
		return &Outcome{RecordCount: count, Err: ErrMalformedResponse}
	}
}

// awaitConfirmation reads one message within the confirmation timeout.
// An elapsed timeout reads as a malformed answer.
func (s *ImportSession) awaitConfirmation(ctx context.Context, ch Channel) (model.Confirmation, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.svc.confirmTimeout)
	defer cancel()

	msg, err := ch.ReadMessage(waitCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			s.logger.Info("confirmation timed out", "timeout", s.svc.confirmTimeout)
			return model.ConfirmationMalformed, nil
		}
		return model.ConfirmationMalformed, err
	}
	return model.ParseConfirmation(msg), nil
}

func (s *ImportSession) commit(ctx context.Context, ch Channel, count int) *Outcome {
	s.transition(StateCommitting)

	err := s.svc.store.CommitImport(ctx, s.batch.AdminName, s.batch.FileName, s.batch.Records)
	if err != nil {
		s.transition(StateFailed)
		s.logger.Error("import commit failed", "error", err)
		s.writeLog(ctx, model.StatusFailed, count)
		if werr := ch.WriteJSON(ctx, ImportError{Error: MsgInsertFailed + err.Error()}); werr != nil {
			s.logger.Warn("failed to send commit error", "error", werr)
		}
		return &Outcome{RecordCount: count, Err: fmt.Errorf("%w: %w", ErrPersistence, err)}
	}

	s.transition(StateCommitted)
	s.writeLog(ctx, model.StatusSuccess, count)
	if err := ch.WriteJSON(ctx, ImportResult{Message: MsgImportSuccessful, RecordCount: count}); err != nil {
		s.logger.Warn("failed to send import result", "error", err)
	}
	return &Outcome{RecordCount: count}
}

// invalid ends the session in StateInvalid after sending msg.
func (s *ImportSession) invalid(ctx context.Context, ch Channel, msg ImportError, cause error) *Outcome {
	s.transition(StateInvalid)
	if err := ch.WriteJSON(ctx, msg); err != nil {
		s.logger.Warn("failed to send import error", "error", err)
	}
	return &Outcome{Err: cause}
}

// abort ends the session without a commit or an audit entry.
func (s *ImportSession) abort(err error) *Outcome {
	s.logger.Info("import aborted", "state", s.state, "error", err)
	s.transition(StateAborted)
	if !errors.Is(err, ErrDisconnected) {
		err = fmt.Errorf("%w: %w", ErrDisconnected, err)
	}
	return &Outcome{Err: err}
}

func (s *ImportSession) writeLog(ctx context.Context, status model.Status, count int) {
	entry := model.LogEntry{
		AdminName:       s.batch.AdminName,
		FileName:        s.batch.FileName,
		Action:          model.ActionImport,
		Status:          status,
		NumberOfRecords: count,
	}
	if err := s.svc.audit.Log(ctx, entry); err != nil {
		s.logger.Error("failed to write import log", "status", status, "error", err)
	}
}
