// Package mail is the mailbox collaborator behind the mail tool provider.
package mail

import (
	"context"
	"encoding/base64"

	"github.com/cockroachdb/errors"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
)

const (
	// UnreadQuery selects unread mail in the primary inbox tab.
	UnreadQuery = "in:inbox is:unread category:primary"

	me          = "me"
	unreadLabel = "UNREAD"
)

// ErrRemote marks failures reported by the mailbox API or its transport.
var ErrRemote = errors.New("mailbox request failed")

// MessageRef identifies a stored message.
type MessageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

// Mailbox is the set of operations the mail tools need.
type Mailbox interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
	ListUnread(ctx context.Context) ([]MessageRef, error)
	// Read returns the message and marks it read.
	Read(ctx context.Context, id string) (Message, error)
	Trash(ctx context.Context, id string) error
	MarkRead(ctx context.Context, id string) error
}

// Gmail implements Mailbox with the Gmail REST API for the authorized user.
type Gmail struct {
	svc     *gmail.Service
	address string
}

// NewGmail builds the service and looks up the account address used as From.
func NewGmail(ctx context.Context, opts ...option.ClientOption) (*Gmail, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create gmail service")
	}
	profile, err := svc.Users.GetProfile(me).Context(ctx).Do()
	if err != nil {
		return nil, remote(err, "get profile")
	}
	logger.Info("Gmail service ready", "address", profile.EmailAddress)
	return &Gmail{svc: svc, address: profile.EmailAddress}, nil
}

// Address is the authorized account's email address.
func (g *Gmail) Address() string {
	return g.address
}

func (g *Gmail) Send(ctx context.Context, to, subject, body string) (string, error) {
	raw, err := Compose(g.address, to, subject, body)
	if err != nil {
		return "", err
	}
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}
	sent, err := g.svc.Users.Messages.Send(me, msg).Context(ctx).Do()
	if err != nil {
		return "", remote(err, "send message")
	}
	logger.Info("Message sent", "id", sent.Id)
	return sent.Id, nil
}

// ListUnread drains every result page before returning.
func (g *Gmail) ListUnread(ctx context.Context) ([]MessageRef, error) {
	refs := []MessageRef{}
	err := g.svc.Users.Messages.List(me).Q(UnreadQuery).Pages(ctx, func(page *gmail.ListMessagesResponse) error {
		for _, m := range page.Messages {
			refs = append(refs, MessageRef{ID: m.Id, ThreadID: m.ThreadId})
		}
		return nil
	})
	if err != nil {
		return nil, remote(err, "list unread messages")
	}
	return refs, nil
}

func (g *Gmail) Read(ctx context.Context, id string) (Message, error) {
	msg, err := g.svc.Users.Messages.Get(me, id).Format("raw").Context(ctx).Do()
	if err != nil {
		return Message{}, remote(err, "get message %s", id)
	}
	data, err := DecodeRaw(msg.Raw)
	if err != nil {
		return Message{}, errors.Wrapf(err, "message %s", id)
	}
	parsed, err := Parse(data)
	if err != nil {
		return Message{}, errors.Wrapf(err, "message %s", id)
	}
	logger.Info("Email read", "id", id)

	if err := g.MarkRead(ctx, id); err != nil {
		return Message{}, err
	}
	return parsed, nil
}

func (g *Gmail) Trash(ctx context.Context, id string) error {
	if _, err := g.svc.Users.Messages.Trash(me, id).Context(ctx).Do(); err != nil {
		return remote(err, "trash message %s", id)
	}
	logger.Info("Email moved to trash", "id", id)
	return nil
}

func (g *Gmail) MarkRead(ctx context.Context, id string) error {
	req := &gmail.ModifyMessageRequest{RemoveLabelIds: []string{unreadLabel}}
	if _, err := g.svc.Users.Messages.Modify(me, id, req).Context(ctx).Do(); err != nil {
		return remote(err, "mark message %s read", id)
	}
	logger.Info("Email marked as read", "id", id)
	return nil
}

func remote(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrRemote)
}
