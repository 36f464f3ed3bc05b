// Package dispatch maps scheduled events onto the week engine and the
// notification transports. Every send is guarded by the store's notification
// ledger, so re-delivering an event is safe.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/catalog"
	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/notify"
	"github.com/dcerezal/homeplan/internal/store"
	"github.com/dcerezal/homeplan/internal/week"
)

// Event names one scheduled job. EventAuto resolves to whichever concrete
// events match the current minute.
type Event string

const (
	EventMidweek        Event = "midweek"
	EventDeadline       Event = "deadline"
	EventReprogram      Event = "reprogram"
	EventMonthlySummary Event = "monthly-summary"
	EventDaily          Event = "daily"
	EventAuto           Event = "auto"
)

// ParseEvent validates an event name coming off the wire. The empty string
// means EventAuto.
func ParseEvent(s string) (Event, error) {
	switch Event(s) {
	case "":
		return EventAuto, nil
	case EventMidweek, EventDeadline, EventReprogram, EventMonthlySummary, EventDaily, EventAuto:
		return Event(s), nil
	}
	return "", fmt.Errorf("unknown event %q", s)
}

// Ledger notification types. The (type, date, recipient) triple identifies
// one logical delivery.
const (
	ledgerMidweek   = "midweek"
	ledgerWeekend   = "weekend-email"
	ledgerMonthly   = "monthly-summary"
	ledgerReprogram = "reprogram"
	ledgerBirthday  = "birthday"
	ledgerWorkHours = "work-hours"
)

// ledgerAll marks deliveries that go to the whole household at once.
const ledgerAll = "all"

// detailNothingToSend reports a deadline pass where a person finished every
// task, as opposed to a transport-level skip.
const detailNothingToSend = "nothing_to_send"

// Outcome statuses.
const (
	StatusSent        = "sent"
	StatusSkipped     = "skipped"
	StatusAlreadySent = "already_sent"
	StatusFailed      = "failed"
)

// Outcome records what happened to one delivery target.
type Outcome struct {
	Target string `json:"target"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Report is the result of handling one event, suitable for returning to the
// cron caller.
type Report struct {
	Event       Event     `json:"event"`
	Ran         []Event   `json:"ran,omitempty"`
	WeekStart   string    `json:"weekStart,omitempty"`
	MissedCount int       `json:"missedCount,omitempty"`
	Outcomes    []Outcome `json:"outcomes"`
	HandledAt   time.Time `json:"handledAt"`
}

// BirthdaySource lists the birthdays that fall on a DD/MM date.
type BirthdaySource interface {
	ListOnDate(ddmm string) ([]model.Birthday, error)
}

// Sender is the slice of the notifier the dispatcher needs.
type Sender interface {
	SendMidweekReminder(ctx context.Context, personID string, tasks []model.TaskInstance) notify.Result
	SendWeekendEmail(ctx context.Context, personID string, tasks []model.TaskInstance, deadline time.Time) notify.Result
	SendMonthlySummaryEmail(ctx context.Context, summary *week.MonthSummary) (notify.Result, []string)
	SendBirthdayMessage(ctx context.Context, name string) notify.Result
	SendWorkHoursReminder(ctx context.Context) notify.Result
}

// Dispatcher routes events to handlers. Handlers isolate per-recipient
// failures: one broken send never blocks the rest of the fan-out.
type Dispatcher struct {
	engine    *week.Engine
	store     store.WeekStore
	cat       *catalog.Catalog
	cal       *calendar.Calendar
	sender    Sender
	birthdays BirthdaySource
	schedules map[Event]calendar.Schedule
	handlers  map[Event]func(context.Context, time.Time) (*Report, error)
	logger    *slog.Logger
}

// DefaultSchedules returns the household firing times, interpreted in the
// calendar's timezone.
func DefaultSchedules() map[Event]calendar.Schedule {
	return map[Event]calendar.Schedule{
		EventMidweek:        calendar.Weekly(time.Wednesday, 19, 0),
		EventDeadline:       calendar.Weekly(time.Sunday, 20, 0),
		EventReprogram:      calendar.Weekly(time.Sunday, 21, 0),
		EventMonthlySummary: calendar.MonthlyLastDay(20, 0),
		EventDaily:          calendar.Daily(9, 0),
	}
}

func New(engine *week.Engine, ws store.WeekStore, cat *catalog.Catalog, cal *calendar.Calendar, sender Sender, birthdays BirthdaySource, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		engine:    engine,
		store:     ws,
		cat:       cat,
		cal:       cal,
		sender:    sender,
		birthdays: birthdays,
		schedules: DefaultSchedules(),
		logger:    logger.With("component", "dispatch"),
	}
	d.handlers = map[Event]func(context.Context, time.Time) (*Report, error){
		EventMidweek:        d.handleMidweek,
		EventDeadline:       d.handleDeadline,
		EventReprogram:      d.handleReprogram,
		EventMonthlySummary: d.handleMonthlySummary,
		EventDaily:          d.handleDaily,
	}
	return d
}

// WithSchedules overrides the firing times, for tests and odd households.
func (d *Dispatcher) WithSchedules(s map[Event]calendar.Schedule) *Dispatcher {
	d.schedules = s
	return d
}

// HandleEvent runs one event at the given instant. EventAuto evaluates every
// schedule against the projected local minute and runs the ones that match.
func (d *Dispatcher) HandleEvent(ctx context.Context, event Event, now time.Time) (*Report, error) {
	if event != EventAuto {
		handler, found := d.handlers[event]
		if !found {
			return nil, fmt.Errorf("unknown event %q", event)
		}
		return handler(ctx, now)
	}

	local := d.cal.LocalNow(now)
	report := &Report{Event: EventAuto, HandledAt: now.UTC()}
	for _, ev := range []Event{EventMidweek, EventDeadline, EventReprogram, EventMonthlySummary, EventDaily} {
		if !d.schedules[ev].Matches(local) {
			continue
		}
		sub, err := d.handlers[ev](ctx, now)
		if err != nil {
			d.logger.Error("event failed", "event", ev, "error", err)
			report.Outcomes = append(report.Outcomes, Outcome{Target: string(ev), Status: StatusFailed, Detail: err.Error()})
			continue
		}
		report.Ran = append(report.Ran, ev)
		report.Outcomes = append(report.Outcomes, sub.Outcomes...)
		if sub.MissedCount > 0 {
			report.MissedCount = sub.MissedCount
		}
	}
	return report, nil
}

// handleMidweek nags each person about their outstanding tasks over Telegram.
func (d *Dispatcher) handleMidweek(ctx context.Context, now time.Time) (*Report, error) {
	weekKey := d.cal.WeekStartKey(now)
	overview, err := d.engine.WeekOverview(ctx, weekKey)
	if err != nil {
		return nil, fmt.Errorf("midweek overview: %w", err)
	}

	dateKey := calendar.FormatYMD(d.cal.LocalNow(now))
	report := &Report{Event: EventMidweek, WeekStart: weekKey, HandledAt: now.UTC()}
	for _, owner := range overview.Summary {
		outstanding := overview.PendingByPerson[owner.OwnerID]
		if len(outstanding) == 0 {
			report.Outcomes = append(report.Outcomes, Outcome{Target: owner.OwnerID, Status: StatusSkipped, Detail: notify.ReasonNoPendingTasks})
			continue
		}
		report.Outcomes = append(report.Outcomes, d.guardedSend(ctx, ledgerMidweek, dateKey, owner.OwnerID, func() notify.Result {
			return d.sender.SendMidweekReminder(ctx, owner.OwnerID, outstanding)
		}))
	}
	return report, nil
}

// handleDeadline closes the week: pending tasks become missed, then each
// person with unfinished tasks gets the weekend email.
func (d *Dispatcher) handleDeadline(ctx context.Context, now time.Time) (*Report, error) {
	weekKey := d.cal.WeekStartKey(now)
	if _, _, err := d.engine.MarkPendingTasksAsMissed(ctx, weekKey); err != nil {
		return nil, fmt.Errorf("mark missed: %w", err)
	}
	overview, err := d.engine.WeekOverview(ctx, weekKey)
	if err != nil {
		return nil, fmt.Errorf("deadline overview: %w", err)
	}

	dateKey := calendar.FormatYMD(d.cal.LocalNow(now))
	report := &Report{Event: EventDeadline, WeekStart: weekKey, HandledAt: now.UTC()}
	for _, owner := range overview.Summary {
		outstanding := overview.PendingByPerson[owner.OwnerID]
		if len(outstanding) == 0 {
			report.Outcomes = append(report.Outcomes, Outcome{Target: owner.OwnerID, Status: StatusSkipped, Detail: detailNothingToSend})
			continue
		}
		report.Outcomes = append(report.Outcomes, d.guardedSend(ctx, ledgerWeekend, dateKey, owner.OwnerID, func() notify.Result {
			return d.sender.SendWeekendEmail(ctx, owner.OwnerID, outstanding, overview.DeadlineUTC)
		}))
	}
	return report, nil
}

// handleReprogram rolls missed tasks into next week's history. The ledger
// guard keeps a re-delivered event from stacking duplicate history entries.
func (d *Dispatcher) handleReprogram(ctx context.Context, now time.Time) (*Report, error) {
	weekKey := d.cal.WeekStartKey(now)
	report := &Report{Event: EventReprogram, WeekStart: weekKey, HandledAt: now.UTC()}

	sent, err := d.store.HasNotification(ctx, ledgerReprogram, weekKey, ledgerAll)
	if err != nil {
		return nil, fmt.Errorf("reprogram ledger check: %w", err)
	}
	if sent {
		report.Outcomes = append(report.Outcomes, Outcome{Target: ledgerAll, Status: StatusAlreadySent})
		return report, nil
	}

	res, err := d.engine.ReprogramMissedTasksToNextWeek(ctx, weekKey)
	if err != nil {
		return nil, fmt.Errorf("reprogram: %w", err)
	}
	report.MissedCount = res.MissedCount
	if err := d.store.RecordNotification(ctx, ledgerReprogram, weekKey, ledgerAll, store.NotificationTTL); err != nil {
		d.logger.Error("record reprogram marker", "week", weekKey, "error", err)
	}
	report.Outcomes = append(report.Outcomes, Outcome{Target: ledgerAll, Status: StatusSent, Detail: fmt.Sprintf("%d task(s) reprogrammed", res.MissedCount)})
	return report, nil
}

// handleMonthlySummary emails the month's stats to everyone, once per month.
func (d *Dispatcher) handleMonthlySummary(ctx context.Context, now time.Time) (*Report, error) {
	local := d.cal.LocalNow(now)
	monthKey := calendar.FormatMonth(local.Year(), local.Month())
	report := &Report{Event: EventMonthlySummary, HandledAt: now.UTC()}

	summary, err := d.engine.MonthlySummary(ctx, local.Year(), local.Month())
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}

	outcome := d.guardedSend(ctx, ledgerMonthly, monthKey, ledgerAll, func() notify.Result {
		res, recipients := d.sender.SendMonthlySummaryEmail(ctx, summary)
		if res.Success {
			d.logger.Info("monthly summary sent", "month", monthKey, "recipients", len(recipients))
		}
		return res
	})
	report.Outcomes = append(report.Outcomes, outcome)
	return report, nil
}

// handleDaily greets today's birthdays and, on the last working day of the
// month, nudges everyone to log their work hours.
func (d *Dispatcher) handleDaily(ctx context.Context, now time.Time) (*Report, error) {
	local := d.cal.LocalNow(now)
	dateKey := calendar.FormatYMD(local)
	report := &Report{Event: EventDaily, HandledAt: now.UTC()}

	ddmm := fmt.Sprintf("%02d/%02d", local.Day(), int(local.Month()))
	birthdays, err := d.birthdays.ListOnDate(ddmm)
	if err != nil {
		d.logger.Error("list birthdays", "date", ddmm, "error", err)
		report.Outcomes = append(report.Outcomes, Outcome{Target: "birthdays", Status: StatusFailed, Detail: err.Error()})
	} else {
		for _, b := range birthdays {
			name := b.Name
			report.Outcomes = append(report.Outcomes, d.guardedSend(ctx, ledgerBirthday, dateKey, name, func() notify.Result {
				return d.sender.SendBirthdayMessage(ctx, name)
			}))
		}
	}

	if calendar.IsLastWorkingDay(local) {
		report.Outcomes = append(report.Outcomes, d.guardedSend(ctx, ledgerWorkHours, dateKey, ledgerAll, func() notify.Result {
			return d.sender.SendWorkHoursReminder(ctx)
		}))
	}
	return report, nil
}

// guardedSend wraps one delivery in the ledger: skip if the marker exists,
// otherwise send and record on success. Marker writes that fail are logged
// and swallowed; the notification already went out.
func (d *Dispatcher) guardedSend(ctx context.Context, notifType, dateKey, recipient string, send func() notify.Result) Outcome {
	sent, err := d.store.HasNotification(ctx, notifType, dateKey, recipient)
	if err != nil {
		d.logger.Error("ledger check failed", "type", notifType, "recipient", recipient, "error", err)
		return Outcome{Target: recipient, Status: StatusFailed, Detail: err.Error()}
	}
	if sent {
		return Outcome{Target: recipient, Status: StatusAlreadySent}
	}

	res := send()
	switch {
	case res.Success:
		if err := d.store.RecordNotification(ctx, notifType, dateKey, recipient, store.NotificationTTL); err != nil {
			d.logger.Error("record notification marker", "type", notifType, "recipient", recipient, "error", err)
		}
		return Outcome{Target: recipient, Status: StatusSent}
	case res.Error != "":
		d.logger.Error("send failed", "type", notifType, "recipient", recipient, "error", res.Error)
		return Outcome{Target: recipient, Status: StatusFailed, Detail: res.Error}
	default:
		return Outcome{Target: recipient, Status: StatusSkipped, Detail: res.Reason}
	}
}
