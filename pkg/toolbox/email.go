package toolbox

import (
	"context"
	"encoding/base64"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/concierge-labs/concierge/pkg/googleauth"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// Mailer sends email through the Gmail API on behalf of the
// authenticated user.
type Mailer struct {
	Creds googleauth.CredentialsProvider

	newService func(ctx context.Context) (*gmail.Service, error)
}

func (m *Mailer) service(ctx context.Context) (*gmail.Service, error) {
	if m.newService != nil {
		return m.newService(ctx)
	}
	client, err := m.Creds.Client(ctx, gmail.GmailSendScope)
	if err != nil {
		return nil, err
	}
	return gmail.NewService(ctx, option.WithHTTPClient(client))
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	svc, err := m.service(ctx)
	if err != nil {
		return fmt.Errorf("gmail service: %w", err)
	}
	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", to, subject, body)
	msg := &gmail.Message{Raw: base64.URLEncoding.EncodeToString([]byte(raw))}
	if _, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSendEmail returns a tool taking structured recipient, subject and body.
func (m *Mailer) NewSendEmail() tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "send_email",
			Description: "Send an email to a recipient.",
			Params: []tooling.Param{
				{Name: "to", Type: "string", Required: true, Description: "recipient address"},
				{Name: "subject", Type: "string", Required: true, Description: "subject line"},
				{Name: "body", Type: "string", Required: true, Description: "message body"},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			to := tooling.StringArg(req.Arguments, "to")
			subject := tooling.StringArg(req.Arguments, "subject")
			body := tooling.StringArg(req.Arguments, "body")
			if err := m.send(ctx, to, subject, body); err != nil {
				return tooling.ToolResponse{}, err
			}
			return tooling.ToolResponse{Content: "Email sent to " + to}, nil
		},
	}
}

// NewSendEmailWrapper returns the composite-input variant for models
// that emit a single delimited string.
func (m *Mailer) NewSendEmailWrapper() tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "send_email_wrapper",
			Description: "Send an email. Input is \"<to>||<subject>||<body>\".",
			Params: []tooling.Param{
				{Name: "input", Type: "string", Required: true, Description: "composite \"<to>||<subject>||<body>\""},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			parts, err := tooling.ParseDelimited(tooling.StringArg(req.Arguments, "input"), 3, "")
			if err != nil {
				return tooling.ToolResponse{}, err
			}
			if err := m.send(ctx, parts[0], parts[1], parts[2]); err != nil {
				return tooling.ToolResponse{}, err
			}
			return tooling.ToolResponse{Content: "Email sent to " + parts[0]}, nil
		},
	}
}
