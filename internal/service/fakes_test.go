package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"content-editor-be/internal/dto"
	"content-editor-be/internal/entity"
	"content-editor-be/internal/repository/contract"
	"content-editor-be/internal/repository/specification"
	"content-editor-be/internal/repository/unitofwork"
	"content-editor-be/pkg/events"
	"content-editor-be/pkg/lexical"

	"github.com/google/uuid"
)

// memoryContents is a ContentRepository over a map. It understands ByID and
// ByEntity and ignores every other specification.
type memoryContents struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]entity.Content
	updates  int
	failNext error
}

func newMemoryContents(rows ...entity.Content) *memoryContents {
	m := &memoryContents{rows: map[uuid.UUID]entity.Content{}}
	for _, r := range rows {
		m.rows[r.Id] = r
	}
	return m
}

func (m *memoryContents) takeFailure() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memoryContents) Create(_ context.Context, c *entity.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.rows[c.Id] = *c
	return nil
}

func (m *memoryContents) Update(_ context.Context, c *entity.Content) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.rows[c.Id] = *c
	m.updates++
	return nil
}

func (m *memoryContents) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *memoryContents) matches(c entity.Content, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if c.Id != spec.ID {
				return false
			}
		case specification.ByEntity:
			if c.Entity != spec.Entity {
				return false
			}
		}
	}
	return true
}

func (m *memoryContents) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	for _, c := range m.rows {
		if m.matches(c, specs) {
			row := c
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memoryContents) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Content
	for _, c := range m.rows {
		if m.matches(c, specs) {
			row := c
			out = append(out, &row)
		}
	}
	return out, nil
}

func (m *memoryContents) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := m.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func (m *memoryContents) get(id uuid.UUID) (entity.Content, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	return c, ok
}

type fakeUnitOfWork struct {
	repo *memoryContents
}

func (u *fakeUnitOfWork) Begin(context.Context) error                   { return nil }
func (u *fakeUnitOfWork) Commit() error                                 { return nil }
func (u *fakeUnitOfWork) Rollback() error                               { return nil }
func (u *fakeUnitOfWork) ContentRepository() contract.ContentRepository { return u.repo }

type fakeFactory struct {
	repo *memoryContents
}

func (f fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{repo: f.repo}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

type recordingPayloads struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *recordingPayloads) Publish(_ context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPayloads) all() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

type recordingBroadcaster struct {
	mu        sync.Mutex
	sent      []dto.SessionEvent
	delivered []dto.SessionEvent
}

func (b *recordingBroadcaster) Broadcast(_ uuid.UUID, e dto.SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, e)
}

func (b *recordingBroadcaster) Deliver(_ uuid.UUID, e dto.SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delivered = append(b.delivered, e)
}

func (b *recordingBroadcaster) deliveries() []dto.SessionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dto.SessionEvent(nil), b.delivered...)
}

func (b *recordingBroadcaster) events() []dto.SessionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dto.SessionEvent(nil), b.sent...)
}

var errDatabaseDown = errors.New("database down")

func editorEntities(name string) bool {
	return name == "pages" || name == "posts"
}

func mustDecode(t *testing.T, md string) *lexical.Tree {
	t.Helper()
	tree, err := decodeField(md)
	if err != nil {
		t.Fatalf("decode %q: %v", md, err)
	}
	return tree
}
