package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tidwall/sjson"

	"github.com/eriksjaastad/mcp-mail-math/internal/logger"
	"github.com/eriksjaastad/mcp-mail-math/internal/mail"
)

func RegisterGmailTools(s *server.MCPServer, box mail.Mailbox) {
	// send_email
	s.AddTool(mcp.NewTool("send_email",
		mcp.WithDescription("Creates and sends an email message"),
		mcp.WithString("recipient_id", mcp.Required(), mcp.Description("Recipient email address")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Subject line")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Plain text body")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		recipient, _ := args["recipient_id"].(string)
		subject, _ := args["subject"].(string)
		message, _ := args["message"].(string)
		return HandleSendEmail(ctx, box, recipient, subject, message)
	})

	// get_unread_emails
	s.AddTool(mcp.NewTool("get_unread_emails",
		mcp.WithDescription("Retrieves unread messages from mailbox"),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return HandleGetUnreadEmails(ctx, box)
	})

	// read_email
	s.AddTool(mcp.NewTool("read_email",
		mcp.WithDescription("Retrieves email contents including to, from, subject, and contents"),
		mcp.WithString("email_id", mcp.Required(), mcp.Description("Message ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("email_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return HandleReadEmail(ctx, box, id)
	})

	// trash_email
	s.AddTool(mcp.NewTool("trash_email",
		mcp.WithDescription("Moves email to trash given ID"),
		mcp.WithString("email_id", mcp.Required(), mcp.Description("Message ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("email_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := box.Trash(ctx, id); err != nil {
			return remoteError(err), nil
		}
		return mcp.NewToolResultText("Email moved to trash successfully."), nil
	})

	// mark_email_as_read
	s.AddTool(mcp.NewTool("mark_email_as_read",
		mcp.WithDescription("Marks email as read given ID"),
		mcp.WithString("email_id", mcp.Required(), mcp.Description("Message ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("email_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := box.MarkRead(ctx, id); err != nil {
			return remoteError(err), nil
		}
		return mcp.NewToolResultText("Email marked as read."), nil
	})
}

func HandleSendEmail(ctx context.Context, box mail.Mailbox, recipient, subject, message string) (*mcp.CallToolResult, error) {
	to, err := mail.ParseRecipient(recipient)
	if err != nil {
		return sendError(err, recipient), nil
	}
	id, err := box.Send(ctx, to, subject, message)
	if err != nil {
		return sendError(err, to), nil
	}
	doc, _ := sjson.Set(`{"status":"success"}`, "message_id", id)
	return mcp.NewToolResultText(doc), nil
}

// HandleGetUnreadEmails returns one content item per message reference.
func HandleGetUnreadEmails(ctx context.Context, box mail.Mailbox) (*mcp.CallToolResult, error) {
	refs, err := box.ListUnread(ctx)
	if err != nil {
		return remoteError(err), nil
	}
	content := make([]mcp.Content, 0, len(refs))
	for _, ref := range refs {
		doc, _ := sjson.Set("", "id", ref.ID)
		doc, _ = sjson.Set(doc, "threadId", ref.ThreadID)
		content = append(content, mcp.NewTextContent(doc))
	}
	logger.Info("Unread emails listed", "count", len(refs))
	return &mcp.CallToolResult{Content: content}, nil
}

func HandleReadEmail(ctx context.Context, box mail.Mailbox, id string) (*mcp.CallToolResult, error) {
	msg, err := box.Read(ctx, id)
	if err != nil {
		return remoteError(err), nil
	}
	doc := "{}"
	for _, field := range []struct{ key, value string }{
		{"content", msg.Content},
		{"subject", msg.Subject},
		{"from", msg.From},
		{"to", msg.To},
		{"date", msg.Date},
	} {
		doc, _ = sjson.Set(doc, field.key, field.value)
	}
	return mcp.NewToolResultText(doc), nil
}

func sendError(err error, recipient string) *mcp.CallToolResult {
	logger.Error("Send failed", err, "recipient", recipient)
	doc, _ := sjson.Set(`{"status":"error"}`, "error_message", err.Error())
	return mcp.NewToolResultError(doc)
}

func remoteError(err error) *mcp.CallToolResult {
	logger.Error("Mailbox request failed", err)
	return mcp.NewToolResultError(fmt.Sprintf("An error occurred: %v", err))
}
