package collections

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
	"github.com/sirdesai22/sportsfest-sync/internal/remote"
)

// MessageInput is a contact form submission.
type MessageInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

var messageStatuses = []string{models.MessageUnread, models.MessageRead, models.MessageReplied, models.MessageArchived}

type Messages struct {
	*Collection[models.Message]
	deps Deps
}

func NewMessages(d Deps) *Messages {
	m := &Messages{deps: d}
	m.Collection = newCollection(d, entity[models.Message]{
		table: models.TableMessages,
		load: func(ctx context.Context) ([]models.Message, error) {
			var rows []models.Message
			q := remote.Query{Order: []remote.Order{{Column: "created_at", Desc: true}}}
			err := d.Client.Query(ctx, models.TableMessages, q, &rows)
			return rows, err
		},
		less:    func(a, b models.Message) bool { return a.CreatedAt.After(b.CreatedAt) },
		id:      func(m models.Message) uuid.UUID { return m.ID },
		updated: func(m models.Message) time.Time { return m.UpdatedAt },
	})
	return m
}

// Create stores a new unread message.
func (m *Messages) Create(ctx context.Context, in MessageInput) (models.Message, error) {
	msg := models.Message{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Phone:   strings.TrimSpace(in.Phone),
		Subject: strings.TrimSpace(in.Subject),
		Body:    strings.TrimSpace(in.Message),
		Status:  models.MessageUnread,
	}
	for _, f := range []struct{ field, value string }{
		{"name", msg.Name}, {"email", msg.Email}, {"subject", msg.Subject}, {"message", msg.Body},
	} {
		if err := required(f.field, f.value); err != nil {
			return models.Message{}, err
		}
	}
	if err := checkEmail("email", msg.Email); err != nil {
		return models.Message{}, err
	}

	ctx, cancel := m.callContext(ctx)
	defer cancel()

	if err := m.deps.Client.Insert(ctx, models.TableMessages, &msg); err != nil {
		return models.Message{}, m.mutationFailed("create", uuid.Nil, err)
	}
	m.patchUpsert(msg)
	return msg, nil
}

// SetStatus moves a message through the inbox workflow.
func (m *Messages) SetStatus(ctx context.Context, id uuid.UUID, status string) (models.Message, error) {
	if err := oneOf("status", status, messageStatuses...); err != nil {
		return models.Message{}, err
	}

	ctx, cancel := m.callContext(ctx)
	defer cancel()

	var msg models.Message
	if err := m.deps.Client.Update(ctx, models.TableMessages, id, map[string]any{"status": status}, &msg); err != nil {
		return models.Message{}, m.mutationFailed("update", id, err)
	}
	m.patchUpsert(msg)
	return msg, nil
}

func (m *Messages) MarkRead(ctx context.Context, id uuid.UUID) (models.Message, error) {
	return m.SetStatus(ctx, id, models.MessageRead)
}

func (m *Messages) MarkReplied(ctx context.Context, id uuid.UUID) (models.Message, error) {
	return m.SetStatus(ctx, id, models.MessageReplied)
}

func (m *Messages) Archive(ctx context.Context, id uuid.UUID) (models.Message, error) {
	return m.SetStatus(ctx, id, models.MessageArchived)
}

func (m *Messages) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := m.callContext(ctx)
	defer cancel()

	if err := m.deps.Client.Delete(ctx, models.TableMessages, id); err != nil {
		return m.mutationFailed("delete", id, err)
	}
	m.patchRemove(id)
	return nil
}

// Unread counts loaded messages nobody has opened yet.
func (m *Messages) Unread() int {
	n := 0
	for _, msg := range m.Snapshot().Items {
		if msg.Status == models.MessageUnread {
			n++
		}
	}
	return n
}
