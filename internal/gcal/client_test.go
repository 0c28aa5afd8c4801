package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/aquabiolab/biolog-calendar/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	client, err := NewClient(context.Background(), nil, logging.Default(),
		option.WithEndpoint(ts.URL),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestFindCalendar_Found(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/me/calendarList") {
			t.Fatalf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"items":[
			{"id":"cal-other","summary":"Работа"},
			{"id":"cal-bio","summary":"Выезд Биолога"}
		]}`))
	})

	id, err := client.FindCalendar(context.Background(), "Выезд Биолога")
	if err != nil {
		t.Fatalf("FindCalendar() error = %v", err)
	}
	if id != "cal-bio" {
		t.Fatalf("id = %s, want cal-bio", id)
	}
}

func TestFindCalendar_StopsAfterMatch(t *testing.T) {
	var requests int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("pageToken") == "" {
			_, _ = w.Write([]byte(`{"nextPageToken":"page-2","items":[{"id":"cal-bio","summary":"Выезд Биолога"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"cal-other","summary":"Работа"}]}`))
	})

	id, err := client.FindCalendar(context.Background(), "Выезд Биолога")
	if err != nil {
		t.Fatalf("FindCalendar() error = %v", err)
	}
	if id != "cal-bio" {
		t.Fatalf("id = %s, want cal-bio", id)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want 1 (remaining pages must not be fetched)", requests)
	}
}

func TestFindCalendar_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"id":"cal-other","summary":"Работа"}]}`))
	})

	id, err := client.FindCalendar(context.Background(), "Выезд Биолога")
	if err != nil {
		t.Fatalf("FindCalendar() error = %v", err)
	}
	if id != "" {
		t.Fatalf("id = %s, want empty", id)
	}
}

func TestCreateCalendar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		var body struct {
			Summary  string `json:"summary"`
			TimeZone string `json:"timeZone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Summary != "Выезд Биолога" || body.TimeZone != "Europe/Moscow" {
			t.Fatalf("body = %+v", body)
		}
		_, _ = w.Write([]byte(`{"id":"cal-new","summary":"Выезд Биолога"}`))
	})

	id, err := client.CreateCalendar(context.Background(), "Выезд Биолога", "Europe/Moscow")
	if err != nil {
		t.Fatalf("CreateCalendar() error = %v", err)
	}
	if id != "cal-new" {
		t.Fatalf("id = %s, want cal-new", id)
	}
}

func TestCreateEvent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/calendars/cal-bio/events") {
			t.Fatalf("path = %s", r.URL.Path)
		}
		var body struct {
			Summary string `json:"summary"`
			Start   struct {
				DateTime string `json:"dateTime"`
				TimeZone string `json:"timeZone"`
			} `json:"start"`
			End struct {
				DateTime string `json:"dateTime"`
			} `json:"end"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Summary != "Выезд биолога: Сергей" {
			t.Fatalf("summary = %s", body.Summary)
		}
		if body.Start.TimeZone != "Europe/Moscow" {
			t.Fatalf("start timezone = %s", body.Start.TimeZone)
		}
		if !strings.HasPrefix(body.Start.DateTime, "2025-09-03T14:00:00") {
			t.Fatalf("start = %s", body.Start.DateTime)
		}
		if !strings.HasPrefix(body.End.DateTime, "2025-09-03T16:00:00") {
			t.Fatalf("end = %s", body.End.DateTime)
		}
		_, _ = w.Write([]byte(`{"id":"evt-1","htmlLink":"https://calendar.google.com/event?eid=evt-1"}`))
	})

	loc := time.FixedZone("MSK", 3*60*60)
	start := time.Date(2025, 9, 3, 14, 0, 0, 0, loc)
	link, err := client.CreateEvent(context.Background(), "cal-bio", Event{
		Title:    "Выезд биолога: Сергей",
		Start:    start,
		End:      start.Add(2 * time.Hour),
		Timezone: "Europe/Moscow",
	})
	if err != nil {
		t.Fatalf("CreateEvent() error = %v", err)
	}
	if link != "https://calendar.google.com/event?eid=evt-1" {
		t.Fatalf("link = %s", link)
	}
}

func TestCreateEvent_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota"}}`, http.StatusForbidden)
	})

	if _, err := client.CreateEvent(context.Background(), "cal-bio", Event{}); err == nil {
		t.Fatal("expected error, got nil")
	}
}
