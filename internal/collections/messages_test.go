package collections

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/sirdesai22/sportsfest-sync/internal/models"
)

func TestCreateMessage(t *testing.T) {
	f := newFixture()
	messages := NewMessages(f.deps)

	msg, err := messages.Create(context.Background(), MessageInput{
		Name: " Rafi ", Email: "rafi@example.com", Subject: "Tickets", Message: "Are there student passes?",
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, "Rafi", msg.Name)
	assert.Equal(t, models.MessageUnread, msg.Status)
	assert.Equal(t, 1, messages.Unread())
}

func TestCreateMessageValidation(t *testing.T) {
	f := newFixture()
	messages := NewMessages(f.deps)
	valid := MessageInput{Name: "Rafi", Email: "rafi@example.com", Subject: "Tickets", Message: "Hello"}

	tests := []struct {
		mutate func(*MessageInput)
		field  string
	}{
		{func(in *MessageInput) { in.Name = "" }, "name"},
		{func(in *MessageInput) { in.Email = "" }, "email"},
		{func(in *MessageInput) { in.Email = "rafi at example" }, "email"},
		{func(in *MessageInput) { in.Subject = " " }, "subject"},
		{func(in *MessageInput) { in.Message = "" }, "message"},
	}
	for _, tt := range tests {
		in := valid
		tt.mutate(&in)
		_, err := messages.Create(context.Background(), in)
		var verr *ValidationError
		assert.Equal(t, true, errors.As(err, &verr))
		assert.Equal(t, tt.field, verr.Field)
	}
	assert.Equal(t, 0, f.client.insertCount())
}

func TestMessageWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	messages := NewMessages(f.deps)
	defer messages.Subscribe(ctx)()

	msg, err := messages.Create(ctx, MessageInput{Name: "Rafi", Email: "rafi@example.com", Subject: "Tickets", Message: "Hello"})
	assert.Equal(t, nil, err)

	read, err := messages.MarkRead(ctx, msg.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, models.MessageRead, read.Status)
	assert.Equal(t, 0, messages.Unread())

	replied, err := messages.MarkReplied(ctx, msg.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, models.MessageReplied, replied.Status)

	archived, err := messages.Archive(ctx, msg.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, models.MessageArchived, archived.Status)

	_, err = messages.SetStatus(ctx, msg.ID, "spam")
	assert.Equal(t, true, errors.Is(err, ErrValidation))

	assert.Equal(t, nil, messages.Delete(ctx, msg.ID))
	assert.Equal(t, 0, len(messages.Snapshot().Items))
}

func TestStaleEchoDoesNotOverwriteFeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	messages := NewMessages(f.deps)
	defer messages.Subscribe(ctx)()

	msg, err := messages.Create(ctx, MessageInput{Name: "Rafi", Email: "rafi@example.com", Subject: "Tickets", Message: "Hello"})
	assert.Equal(t, nil, err)
	_, err = messages.MarkRead(ctx, msg.ID)
	assert.Equal(t, nil, err)

	messages.patchUpsert(msg)
	got, _ := messages.Find(msg.ID)
	assert.Equal(t, models.MessageRead, got.Status)
}
