package gcal

import (
	"context"
	"sync"
)

// LazyClient defers building the underlying calendar client until the first
// calendar call. The OAuth token exchange can be interactive, so on runs
// with no calendar work (an empty order window) Google is never touched.
type LazyClient struct {
	build func(ctx context.Context) (*Client, error)

	once   sync.Once
	client *Client
	err    error
}

// NewLazyClient wraps a client constructor. The constructor runs at most
// once; its error is cached and returned by every subsequent call.
func NewLazyClient(build func(ctx context.Context) (*Client, error)) *LazyClient {
	return &LazyClient{build: build}
}

func (l *LazyClient) get(ctx context.Context) (*Client, error) {
	l.once.Do(func() {
		l.client, l.err = l.build(ctx)
	})
	return l.client, l.err
}

func (l *LazyClient) FindCalendar(ctx context.Context, name string) (string, error) {
	c, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return c.FindCalendar(ctx, name)
}

func (l *LazyClient) CreateCalendar(ctx context.Context, name, timezone string) (string, error) {
	c, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return c.CreateCalendar(ctx, name, timezone)
}

func (l *LazyClient) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	c, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return c.CreateEvent(ctx, calendarID, ev)
}
