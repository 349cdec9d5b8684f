package toolbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/concierge-labs/concierge/pkg/googleauth"
	"github.com/concierge-labs/concierge/pkg/tooling"
)

// Calendar groups the Google Calendar tools behind one credential source.
type Calendar struct {
	Creds      googleauth.CredentialsProvider
	CalendarID string // defaults to "primary"
	TimeZone   string // defaults to "UTC"

	// newService exists so tests can stub the API client.
	newService func(ctx context.Context) (*calendar.Service, error)
}

func (c *Calendar) service(ctx context.Context) (*calendar.Service, error) {
	if c.newService != nil {
		return c.newService(ctx)
	}
	client, err := c.Creds.Client(ctx, calendar.CalendarScope)
	if err != nil {
		return nil, err
	}
	return calendar.NewService(ctx, option.WithHTTPClient(client))
}

func (c *Calendar) calendarID() string {
	if c.CalendarID != "" {
		return c.CalendarID
	}
	return "primary"
}

func (c *Calendar) timeZone() string {
	if c.TimeZone != "" {
		return c.TimeZone
	}
	return "UTC"
}

// normalizeTimestamp appends missing seconds to minute-precision
// timestamps such as "2026-03-01T09:30".
func normalizeTimestamp(ts string) string {
	ts = strings.TrimSpace(ts)
	if len(ts) == 16 {
		return ts + ":00"
	}
	return ts
}

// NewCreateEvent returns a tool that inserts a calendar event.
func (c *Calendar) NewCreateEvent() tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "create_event",
			Description: "Create a calendar event. Timestamps are local ISO datetimes like 2026-03-01T09:30:00.",
			Params: []tooling.Param{
				{Name: "summary", Type: "string", Required: true, Description: "event title"},
				{Name: "description", Type: "string", Required: false, Description: "event details"},
				{Name: "start", Type: "string", Required: true, Description: "start datetime"},
				{Name: "end", Type: "string", Required: false, Description: "end datetime; defaults to one hour after start"},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			summary := tooling.StringArg(req.Arguments, "summary")
			start := normalizeTimestamp(tooling.StringArg(req.Arguments, "start"))
			end := normalizeTimestamp(tooling.StringArg(req.Arguments, "end"))
			if end == "" {
				t, err := time.Parse("2006-01-02T15:04:05", start)
				if err != nil {
					return tooling.ToolResponse{}, fmt.Errorf("parse start %q: %w", start, err)
				}
				end = t.Add(time.Hour).Format("2006-01-02T15:04:05")
			}

			svc, err := c.service(ctx)
			if err != nil {
				return tooling.ToolResponse{}, fmt.Errorf("calendar service: %w", err)
			}
			event := &calendar.Event{
				Summary:     summary,
				Description: tooling.StringArg(req.Arguments, "description"),
				Start:       &calendar.EventDateTime{DateTime: start, TimeZone: c.timeZone()},
				End:         &calendar.EventDateTime{DateTime: end, TimeZone: c.timeZone()},
			}
			created, err := svc.Events.Insert(c.calendarID(), event).Context(ctx).Do()
			if err != nil {
				return tooling.ToolResponse{}, fmt.Errorf("create event: %w", err)
			}
			return tooling.ToolResponse{
				Content:  fmt.Sprintf("Event created: %s (%s to %s)", summary, start, end),
				Metadata: map[string]string{"event_id": created.Id, "link": created.HtmlLink},
			}, nil
		},
	}
}

// NewListUpcomingEvents returns a tool that lists the next events on the
// calendar, soonest first.
func (c *Calendar) NewListUpcomingEvents() tooling.Tool {
	return tooling.Func{
		ToolSpec: tooling.ToolSpec{
			Name:        "list_upcoming_events",
			Description: "List upcoming calendar events, soonest first.",
			Params: []tooling.Param{
				{Name: "max_results", Type: "int", Required: false, Description: "how many events to list (default 10)"},
			},
		},
		Run: func(ctx context.Context, req tooling.ToolRequest) (tooling.ToolResponse, error) {
			limit := tooling.IntArg(req.Arguments, "max_results", 10)
			svc, err := c.service(ctx)
			if err != nil {
				return tooling.ToolResponse{}, fmt.Errorf("calendar service: %w", err)
			}
			events, err := svc.Events.List(c.calendarID()).
				TimeMin(time.Now().Format(time.RFC3339)).
				SingleEvents(true).
				OrderBy("startTime").
				MaxResults(int64(limit)).
				Context(ctx).Do()
			if err != nil {
				return tooling.ToolResponse{}, fmt.Errorf("list events: %w", err)
			}
			if len(events.Items) == 0 {
				return tooling.ToolResponse{Content: "No upcoming events found."}, nil
			}
			var b strings.Builder
			for _, item := range events.Items {
				when := item.Start.DateTime
				if when == "" {
					when = item.Start.Date
				}
				fmt.Fprintf(&b, "%s - %s\n", when, item.Summary)
			}
			return tooling.ToolResponse{Content: strings.TrimRight(b.String(), "\n")}, nil
		},
	}
}
