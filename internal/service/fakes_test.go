package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/recordport/recordport/internal/model"
)

// inbound is one scripted client message.
type inbound struct {
	data  string
	err   error
	block bool // wait for ctx to end
}

// fakeChannel is a scripted in-memory Channel.
type fakeChannel struct {
	mu       sync.Mutex
	inbox    []inbound
	outbox   []any // string for text, json.RawMessage for JSON
	writeErr error
}

func newFakeChannel(msgs ...inbound) *fakeChannel {
	return &fakeChannel{inbox: msgs}
}

func (c *fakeChannel) ReadMessage(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	if len(c.inbox) == 0 {
		c.mu.Unlock()
		return nil, ErrDisconnected
	}
	msg := c.inbox[0]
	c.inbox = c.inbox[1:]
	c.mu.Unlock()

	if msg.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if msg.err != nil {
		return nil, msg.err
	}
	return []byte(msg.data), nil
}

func (c *fakeChannel) WriteJSON(ctx context.Context, v any) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.outbox = append(c.outbox, json.RawMessage(b))
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) WriteText(ctx context.Context, text string) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.mu.Lock()
	c.outbox = append(c.outbox, text)
	c.mu.Unlock()
	return nil
}

func (c *fakeChannel) sent() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.outbox...)
}

// fakeStore keeps committed imports in memory.
type fakeStore struct {
	mu        sync.Mutex
	files     []model.StoredFile
	records   []model.StoredRecord
	commitErr error
	listErr   error
	commits   int
}

func (s *fakeStore) CommitImport(ctx context.Context, adminName, fileName string, records []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	if s.commitErr != nil {
		return s.commitErr
	}
	s.files = append(s.files, model.StoredFile{
		ID:        int64(len(s.files) + 1),
		AdminName: adminName,
		FileName:  fileName,
	})
	for _, r := range records {
		s.records = append(s.records, model.StoredRecord{
			Username:  model.Value(r.Name),
			Email:     model.Value(r.Email),
			Phone:     model.Value(r.Phone),
			CreatedAt: model.Value(r.CreatedAt),
			FileName:  fileName,
		})
	}
	return nil
}

func (s *fakeStore) ListFiles(ctx context.Context, adminName string) ([]model.StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []model.StoredFile
	for _, f := range s.files {
		if f.AdminName == adminName {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *fakeStore) ListRecordsByFile(ctx context.Context, fileName string) ([]model.StoredRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.StoredRecord
	for _, r := range s.records {
		if r.FileName == fileName {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// fakeAudit collects log entries.
type fakeAudit struct {
	mu      sync.Mutex
	entries []model.LogEntry
	err     error
}

func (a *fakeAudit) Log(ctx context.Context, entry model.LogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return a.err
}

func (a *fakeAudit) all() []model.LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]model.LogEntry(nil), a.entries...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
