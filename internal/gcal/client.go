package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/aquabiolab/biolog-calendar/pkg/logging"
)

// Event is the calendar event payload the pipeline produces for one order.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Timezone    string
}

// Client wraps the Google Calendar v3 API with the three operations the
// pipeline needs.
type Client struct {
	svc    *calendar.Service
	logger *logging.Logger
}

// NewClient builds a calendar client on the given token source. Extra
// options are passed through to the API client; tests use them to point at
// a fake endpoint.
func NewClient(ctx context.Context, ts oauth2.TokenSource, logger *logging.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}
	all := make([]option.ClientOption, 0, len(opts)+1)
	if ts != nil {
		all = append(all, option.WithTokenSource(ts))
	}
	all = append(all, opts...)

	svc, err := calendar.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("gcal: build service: %w", err)
	}
	return &Client{svc: svc, logger: logger}, nil
}

// errStopPaging aborts Pages iteration once the lookup succeeds.
var errStopPaging = errors.New("stop paging")

// FindCalendar looks up a calendar by its display name in the user's
// calendar list. Returns an empty id when no calendar carries that name.
func (c *Client) FindCalendar(ctx context.Context, name string) (string, error) {
	var found string
	err := c.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			if item.Summary == name {
				found = item.Id
				return errStopPaging
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopPaging) {
		return "", fmt.Errorf("gcal: list calendars: %w", err)
	}
	return found, nil
}

// CreateCalendar creates a new calendar with the given name and timezone
// and returns its id.
func (c *Client) CreateCalendar(ctx context.Context, name, timezone string) (string, error) {
	created, err := c.svc.Calendars.Insert(&calendar.Calendar{
		Summary:  name,
		TimeZone: timezone,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: create calendar %q: %w", name, err)
	}
	c.logger.Info("created calendar", "name", name, "calendar_id", created.Id)
	return created.Id, nil
}

// CreateEvent inserts an event into the given calendar and returns the
// event's browser link.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	created, err := c.svc.Events.Insert(calendarID, &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gcal: create event: %w", err)
	}
	return created.HtmlLink, nil
}
