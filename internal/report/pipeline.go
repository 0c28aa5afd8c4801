package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aquabiolab/biolog-calendar/internal/crm"
	"github.com/aquabiolab/biolog-calendar/internal/gcal"
	"github.com/aquabiolab/biolog-calendar/internal/notify"
	"github.com/aquabiolab/biolog-calendar/pkg/logging"
)

const (
	// defaultPageSize matches the upstream API page limit. The API signals
	// the last page implicitly with a short page, never with a total count.
	defaultPageSize = 100

	displayTimeLayout = "02.01.2006 15:04:05"
	periodLayout      = "02.01"
	unknownCreatedAt  = "Неизвестно"
	noVisitDate       = "N/A"
)

// OrderSource fetches one page of CRM orders created within a window.
type OrderSource interface {
	ListOrders(ctx context.Context, from, to time.Time, page, pageSize int) ([]crm.Order, error)
}

// CalendarService is the calendar collaborator the pipeline writes to.
type CalendarService interface {
	FindCalendar(ctx context.Context, name string) (string, error)
	CreateCalendar(ctx context.Context, name, timezone string) (string, error)
	CreateEvent(ctx context.Context, calendarID string, ev gcal.Event) (string, error)
}

// Row is one report line for a matched order.
type Row struct {
	CreatedAt  string
	ExternalID string
	InternalID int
	Link       string
	Manager    string
	Price      decimal.Decimal
	VisitDate  string
}

// Summary is the outcome of one pipeline run. CalendarID carries the
// resolved (possibly freshly created) calendar id back to the caller, which
// is responsible for persisting it.
type Summary struct {
	Rows          []Row
	Matched       int
	OrdersFetched int
	CalendarID    string
	EventsCreated int
	EventsFailed  int
}

// Config parameterizes a pipeline run.
type Config struct {
	Service      ServiceSpec
	CalendarName string
	// CalendarID is the previously persisted calendar id; when set,
	// lookup-or-create is skipped entirely.
	CalendarID string
	Timezone   string
	CRMBaseURL string
	PageSize   int
}

// Pipeline orchestrates fetch → match → report → event creation → summary
// for one time window. Stateless across runs.
type Pipeline struct {
	orders   OrderSource
	cal      CalendarService
	notifier notify.Notifier
	builder  *EventBuilder
	cfg      Config
	logger   *logging.Logger
}

// NewPipeline wires the pipeline. The notifier may be a NoopNotifier but
// must not be nil.
func NewPipeline(cfg Config, orders OrderSource, cal CalendarService, notifier notify.Notifier, logger *logging.Logger) (*Pipeline, error) {
	if orders == nil {
		return nil, errors.New("report: pipeline requires an order source")
	}
	if cal == nil {
		return nil, errors.New("report: pipeline requires a calendar service")
	}
	if notifier == nil {
		return nil, errors.New("report: pipeline requires a notifier")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	builder, err := NewEventBuilder(cfg.CRMBaseURL, cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		orders:   orders,
		cal:      cal,
		notifier: notifier,
		builder:  builder,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Run executes one reporting window. It returns an error only when the
// destination calendar cannot be resolved; every other failure is recovered,
// logged and notified without aborting the remaining orders.
func (p *Pipeline) Run(ctx context.Context, window Window) (*Summary, error) {
	orders := p.fetchOrders(ctx, window)
	summary := &Summary{OrdersFetched: len(orders)}
	if len(orders) == 0 {
		p.logger.Info("no orders in window",
			"from", window.Start.Format(displayTimeLayout),
			"to", window.End.Format(displayTimeLayout))
		return summary, nil
	}

	calendarID, err := p.resolveCalendar(ctx)
	if err != nil {
		p.logger.Error("calendar resolution failed", "error", err)
		p.notifier.Notify(ctx, fmt.Sprintf("‼️ *Ошибка Google Calendar API:* Не удалось найти или создать календарь '%s'. Ошибка: %v", p.cfg.CalendarName, err))
		return nil, fmt.Errorf("report: resolve calendar: %w", err)
	}
	summary.CalendarID = calendarID

	for _, order := range orders {
		match := Match(order, p.cfg.Service)
		if !match.Matched {
			continue
		}
		summary.Matched++
		summary.Rows = append(summary.Rows, p.buildRow(order, match))
		p.createEvent(ctx, calendarID, order, summary)
	}

	period := fmt.Sprintf("с %s по %s", window.Start.Format(periodLayout), window.End.Format(periodLayout))
	if summary.Matched == 0 {
		p.logger.Info("no matching orders in window")
		p.notifier.Notify(ctx, fmt.Sprintf("ℹ️ *Информация:* За период %s не найдено заказов с услугами биолога.", period))
	} else {
		p.logger.Info("report generated",
			"matched", summary.Matched,
			"events_created", summary.EventsCreated,
			"events_failed", summary.EventsFailed)
		p.notifier.Notify(ctx, fmt.Sprintf("✅ *Отчет сгенерирован:* За период %s найдено %d заказов с услугами биолога. Подробности в консоли.", period, summary.Matched))
	}
	return summary, nil
}

// fetchOrders pulls every page of the window. A failed page is treated as
// empty: logged, notified, and pagination stops there.
func (p *Pipeline) fetchOrders(ctx context.Context, window Window) []crm.Order {
	var all []crm.Order
	for page := 1; ; page++ {
		orders, err := p.orders.ListOrders(ctx, window.Start, window.End, page, p.cfg.PageSize)
		if err != nil {
			p.logger.Error("order page fetch failed", "page", page, "error", err)
			p.notifier.Notify(ctx, fmt.Sprintf("‼️ *Ошибка RetailCRM API:* %v", err))
			break
		}
		if len(orders) == 0 {
			break
		}
		all = append(all, orders...)
		if len(orders) < p.cfg.PageSize {
			break
		}
	}
	return all
}

// resolveCalendar implements idempotent lookup-or-create of the destination
// calendar. Creation is notifiable: the operator must persist the new id.
func (p *Pipeline) resolveCalendar(ctx context.Context) (string, error) {
	if p.cfg.CalendarID != "" {
		return p.cfg.CalendarID, nil
	}

	id, err := p.cal.FindCalendar(ctx, p.cfg.CalendarName)
	if err != nil {
		return "", err
	}
	if id != "" {
		p.logger.Info("found existing calendar", "name", p.cfg.CalendarName, "calendar_id", id)
		return id, nil
	}

	id, err = p.cal.CreateCalendar(ctx, p.cfg.CalendarName, p.cfg.Timezone)
	if err != nil {
		return "", err
	}
	p.notifier.Notify(ctx, fmt.Sprintf("✅ *Google Календарь создан:* Создан новый календарь '%s'. ID: `%s`. Пожалуйста, сохраните этот ID в переменной GOOGLE_CALENDAR_ID, чтобы не создавать его снова.", p.cfg.CalendarName, id))
	return id, nil
}

func (p *Pipeline) buildRow(order crm.Order, match MatchResult) Row {
	createdAt := unknownCreatedAt
	if t, ok := order.CreatedTime(); ok {
		createdAt = t.Format(displayTimeLayout)
	}
	visitDate := noVisitDate
	if raw, ok := order.CustomFieldString(visitDateField); ok && raw != "" {
		visitDate = raw
	}
	return Row{
		CreatedAt:  createdAt,
		ExternalID: order.ExternalID,
		InternalID: order.ID,
		Link:       p.builder.OrderURL(order.ID),
		Manager:    order.ManagerDisplay(),
		Price:      match.AggregatePrice,
		VisitDate:  visitDate,
	}
}

// createEvent builds and writes one order's calendar event. A failure is
// isolated to that order.
func (p *Pipeline) createEvent(ctx context.Context, calendarID string, order crm.Order, summary *Summary) {
	ev, err := p.builder.Build(order)
	switch {
	case errors.Is(err, ErrMissingVisitDate):
		p.logger.Info("skipping event, no visit date", "order_id", order.ID)
		return
	case errors.Is(err, ErrBadVisitDate):
		p.logger.Warn("skipping event, unparseable visit date", "order_id", order.ID, "error", err)
		return
	case err != nil:
		p.logger.Error("event build failed", "order_id", order.ID, "error", err)
		return
	}

	link, err := p.cal.CreateEvent(ctx, calendarID, ev)
	if err != nil {
		summary.EventsFailed++
		p.logger.Error("event creation failed", "order_id", order.ID, "error", err)
		p.notifier.Notify(ctx, fmt.Sprintf("‼️ *Ошибка Google Calendar API:* Не удалось создать событие для заказа %d. Ошибка: %v", order.ID, err))
		return
	}
	summary.EventsCreated++
	p.logger.Info("event created", "order_id", order.ID, "link", link)
}
