package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aquabiolab/biolog-calendar/internal/crm"
	"github.com/aquabiolab/biolog-calendar/internal/gcal"
)

const (
	// Custom field keys on the CRM order.
	visitDateField = "data_vyezda"
	biologistField = "biolog"

	// visitDateLayout is the only accepted shape of the visit-date field.
	visitDateLayout = "2006-01-02 15:04:05"

	// Every visit blocks two hours in the calendar.
	eventDuration = 2 * time.Hour

	unassignedBiologist = "Не назначен"
	noPhone             = "Не указан"
	noComment           = "Без комментария"
)

var (
	// ErrMissingVisitDate marks orders without the visit-date custom field.
	ErrMissingVisitDate = errors.New("visit date field missing")
	// ErrBadVisitDate marks orders whose visit-date value does not parse.
	ErrBadVisitDate = errors.New("visit date has unexpected format")
)

// EventBuilder turns a matched order into a calendar event payload. Pure
// transformation: no network calls.
type EventBuilder struct {
	crmBaseURL string
	timezone   string
	loc        *time.Location
}

// NewEventBuilder constructs a builder producing events in the given IANA
// timezone, with order links pointing at the given CRM base URL.
func NewEventBuilder(crmBaseURL, timezone string) (*EventBuilder, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("report: load timezone %q: %w", timezone, err)
	}
	return &EventBuilder{
		crmBaseURL: strings.TrimRight(crmBaseURL, "/"),
		timezone:   timezone,
		loc:        loc,
	}, nil
}

// Build extracts the visit timestamp and produces the event. Returns
// ErrMissingVisitDate or ErrBadVisitDate when the order cannot yield one.
func (b *EventBuilder) Build(order crm.Order) (gcal.Event, error) {
	raw, ok := order.CustomFieldString(visitDateField)
	if !ok || raw == "" {
		return gcal.Event{}, ErrMissingVisitDate
	}

	start, err := time.ParseInLocation(visitDateLayout, raw, b.loc)
	if err != nil {
		return gcal.Event{}, fmt.Errorf("%w: %q", ErrBadVisitDate, raw)
	}

	name := unassignedBiologist
	if biolog, ok := order.CustomFieldString(biologistField); ok && biolog != "" {
		name = capitalize(biolog)
	}

	phone := order.Phone
	if phone == "" {
		phone = noPhone
	}
	comment := order.ManagerComment
	if comment == "" {
		comment = noComment
	}

	description := strings.Join([]string{
		fmt.Sprintf("Заказ CRM ID: %d", order.ID),
		fmt.Sprintf("Заказ External ID: %s", order.ExternalID),
		fmt.Sprintf("Клиент: %s", order.FirstName),
		fmt.Sprintf("Телефон: %s", phone),
		fmt.Sprintf("Менеджер: %s", order.ManagerDisplay()),
		fmt.Sprintf("Комментарий: %s", comment),
		fmt.Sprintf("Ссылка на заказ: %s", b.OrderURL(order.ID)),
	}, "\n")

	return gcal.Event{
		Title:       fmt.Sprintf("Выезд биолога: %s", name),
		Description: description,
		Start:       start,
		End:         start.Add(eventDuration),
		Timezone:    b.timezone,
	}, nil
}

// OrderURL is the CRM back-office link for an order.
func (b *EventBuilder) OrderURL(orderID int) string {
	return fmt.Sprintf("%s/orders/%d/edit", b.crmBaseURL, orderID)
}

// capitalize upper-cases the first rune and lower-cases the rest, the way
// the biologist name is displayed in event titles.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
