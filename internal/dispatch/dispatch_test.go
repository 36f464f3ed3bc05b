package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dcerezal/homeplan/internal/calendar"
	"github.com/dcerezal/homeplan/internal/catalog"
	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/notify"
	"github.com/dcerezal/homeplan/internal/store"
	"github.com/dcerezal/homeplan/internal/week"
)

type sentCall struct {
	kind     string
	personID string
	tasks    []model.TaskInstance
}

// fakeSender records every delivery and can be told to fail per person.
type fakeSender struct {
	calls    []sentCall
	failFor  map[string]bool
	monthly  int
	birthday []string
	workHrs  int
}

func (f *fakeSender) result(personID string) notify.Result {
	if f.failFor[personID] {
		return notify.Result{Error: "transport down"}
	}
	return notify.Result{Success: true}
}

func (f *fakeSender) SendMidweekReminder(_ context.Context, personID string, tasks []model.TaskInstance) notify.Result {
	f.calls = append(f.calls, sentCall{kind: "midweek", personID: personID, tasks: tasks})
	return f.result(personID)
}

func (f *fakeSender) SendWeekendEmail(_ context.Context, personID string, tasks []model.TaskInstance, _ time.Time) notify.Result {
	f.calls = append(f.calls, sentCall{kind: "weekend", personID: personID, tasks: tasks})
	return f.result(personID)
}

func (f *fakeSender) SendMonthlySummaryEmail(_ context.Context, _ *week.MonthSummary) (notify.Result, []string) {
	f.monthly++
	return notify.Result{Success: true}, []string{"a@example.com"}
}

func (f *fakeSender) SendBirthdayMessage(_ context.Context, name string) notify.Result {
	f.birthday = append(f.birthday, name)
	return notify.Result{Success: true}
}

func (f *fakeSender) SendWorkHoursReminder(_ context.Context) notify.Result {
	f.workHrs++
	return notify.Result{Success: true}
}

func (f *fakeSender) countKind(kind string) int {
	n := 0
	for _, c := range f.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

type fakeBirthdays struct {
	byDate map[string][]model.Birthday
	err    error
}

func (f *fakeBirthdays) ListOnDate(ddmm string) ([]model.Birthday, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[ddmm], nil
}

func setupDispatcher(t *testing.T) (*Dispatcher, *fakeSender, *store.MemoryStore, *week.Engine) {
	t.Helper()
	cal, err := calendar.New("Europe/Madrid")
	if err != nil {
		t.Fatalf("new calendar: %v", err)
	}
	cat := catalog.Default()
	ms := store.NewMemoryStore()
	engine := week.New(ms, cat, cal, nil)
	sender := &fakeSender{failFor: map[string]bool{}}
	birthdays := &fakeBirthdays{byDate: map[string][]model.Birthday{}}
	d := New(engine, ms, cat, cal, sender, birthdays, nil)
	return d, sender, ms, engine
}

// Madrid is UTC+2 in June: a 19:00 local Wednesday is 17:00Z.
var wednesdayEvening = time.Date(2024, 6, 5, 17, 0, 0, 0, time.UTC)
var sundayDeadline = time.Date(2024, 6, 9, 18, 0, 0, 0, time.UTC)
var sundayReprogram = time.Date(2024, 6, 9, 19, 0, 0, 0, time.UTC)

func TestParseEvent(t *testing.T) {
	if ev, err := ParseEvent(""); err != nil || ev != EventAuto {
		t.Errorf("ParseEvent(\"\") = %v, %v; want auto", ev, err)
	}
	if ev, err := ParseEvent("midweek"); err != nil || ev != EventMidweek {
		t.Errorf("ParseEvent(midweek) = %v, %v", ev, err)
	}
	if _, err := ParseEvent("bogus"); err == nil {
		t.Error("expected error for unknown event")
	}
}

func TestMidweekSendsOncePerPerson(t *testing.T) {
	d, sender, _, _ := setupDispatcher(t)
	ctx := context.Background()

	report, err := d.HandleEvent(ctx, EventMidweek, wednesdayEvening)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := sender.countKind("midweek"); got != 2 {
		t.Fatalf("sent %d reminders, want 2", got)
	}
	for _, o := range report.Outcomes {
		if o.Status != StatusSent {
			t.Errorf("outcome for %s = %s, want sent", o.Target, o.Status)
		}
	}

	// Re-delivery is absorbed by the ledger.
	report, err = d.HandleEvent(ctx, EventMidweek, wednesdayEvening)
	if err != nil {
		t.Fatalf("second handle: %v", err)
	}
	if got := sender.countKind("midweek"); got != 2 {
		t.Errorf("second run sent again: %d total", got)
	}
	for _, o := range report.Outcomes {
		if o.Status != StatusAlreadySent {
			t.Errorf("second-run outcome for %s = %s, want already_sent", o.Target, o.Status)
		}
	}
}

func TestMidweekSkipsPeopleWithNothingPending(t *testing.T) {
	d, sender, _, engine := setupDispatcher(t)
	ctx := context.Background()

	for _, id := range []string{"compra", "lavadora", "polvo-orden"} {
		if _, err := engine.SetTaskCompletion(ctx, week.SetCompletionParams{
			WeekStart: "2024-06-03", TaskID: id, Completed: true,
		}); err != nil {
			t.Fatalf("complete %s: %v", id, err)
		}
	}

	report, err := d.HandleEvent(ctx, EventMidweek, wednesdayEvening)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := sender.countKind("midweek"); got != 1 {
		t.Errorf("sent %d reminders, want 1 (only eva has pending tasks)", got)
	}

	var davidOutcome *Outcome
	for i := range report.Outcomes {
		if report.Outcomes[i].Target == "david" {
			davidOutcome = &report.Outcomes[i]
		}
	}
	if davidOutcome == nil || davidOutcome.Status != StatusSkipped {
		t.Errorf("david outcome = %+v, want skipped", davidOutcome)
	}
}

func TestMidweekIncludesMissedTasks(t *testing.T) {
	d, sender, _, engine := setupDispatcher(t)
	ctx := context.Background()

	// A week already closed out: everything flipped to missed.
	if _, _, err := engine.MarkPendingTasksAsMissed(ctx, "2024-06-03"); err != nil {
		t.Fatalf("mark missed: %v", err)
	}

	report, err := d.HandleEvent(ctx, EventMidweek, wednesdayEvening)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Missed tasks are still outstanding, so both owners get the reminder
	// and their missed tasks appear in it.
	if got := sender.countKind("midweek"); got != 2 {
		t.Fatalf("sent %d reminders, want 2", got)
	}
	for _, o := range report.Outcomes {
		if o.Status != StatusSent {
			t.Errorf("outcome for %s = %s, want sent", o.Target, o.Status)
		}
	}
	for _, c := range sender.calls {
		if len(c.tasks) == 0 {
			t.Errorf("reminder to %s carried no tasks", c.personID)
		}
		for _, task := range c.tasks {
			if task.Status != model.StatusMissed {
				t.Errorf("reminder to %s lists %s as %s, want missed", c.personID, task.TaskID, task.Status)
			}
		}
	}
}

func TestMidweekFailureDoesNotBlockOthersOrStick(t *testing.T) {
	d, sender, _, _ := setupDispatcher(t)
	ctx := context.Background()
	sender.failFor["david"] = true

	report, err := d.HandleEvent(ctx, EventMidweek, wednesdayEvening)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	statuses := map[string]string{}
	for _, o := range report.Outcomes {
		statuses[o.Target] = o.Status
	}
	if statuses["david"] != StatusFailed {
		t.Errorf("david = %s, want failed", statuses["david"])
	}
	if statuses["eva"] != StatusSent {
		t.Errorf("eva = %s, want sent despite david failing", statuses["eva"])
	}

	// A failed send leaves no marker, so the retry goes through.
	sender.failFor["david"] = false
	report, _ = d.HandleEvent(ctx, EventMidweek, wednesdayEvening)
	statuses = map[string]string{}
	for _, o := range report.Outcomes {
		statuses[o.Target] = o.Status
	}
	if statuses["david"] != StatusSent {
		t.Errorf("david retry = %s, want sent", statuses["david"])
	}
	if statuses["eva"] != StatusAlreadySent {
		t.Errorf("eva = %s, want already_sent", statuses["eva"])
	}
}

func TestDeadlineMarksMissedThenEmails(t *testing.T) {
	d, sender, ms, engine := setupDispatcher(t)
	ctx := context.Background()

	if _, err := engine.SetTaskCompletion(ctx, week.SetCompletionParams{
		WeekStart: "2024-06-03", TaskID: "compra", Completed: true,
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := d.HandleEvent(ctx, EventDeadline, sundayDeadline); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := sender.countKind("weekend"); got != 2 {
		t.Errorf("sent %d weekend emails, want 2", got)
	}

	// The email lists the tasks already flipped to missed.
	for _, c := range sender.calls {
		for _, task := range c.tasks {
			if task.Status != model.StatusMissed {
				t.Errorf("emailed task %s with status %s, want missed", task.TaskID, task.Status)
			}
		}
	}

	stored, err := ms.GetWeek(ctx, "2024-06-03")
	if err != nil {
		t.Fatalf("get week: %v", err)
	}
	if got := stored.Task("compra").Status; got != model.StatusDone {
		t.Errorf("compra = %s, want done untouched", got)
	}
	if got := stored.Task("cocina").Status; got != model.StatusMissed {
		t.Errorf("cocina = %s, want missed", got)
	}
}

func TestDeadlineSkipsFinishedPeople(t *testing.T) {
	d, sender, _, engine := setupDispatcher(t)
	ctx := context.Background()

	for _, id := range []string{"compra", "lavadora", "polvo-orden"} {
		if _, err := engine.SetTaskCompletion(ctx, week.SetCompletionParams{
			WeekStart: "2024-06-03", TaskID: id, Completed: true,
		}); err != nil {
			t.Fatalf("complete %s: %v", id, err)
		}
	}

	report, err := d.HandleEvent(ctx, EventDeadline, sundayDeadline)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := sender.countKind("weekend"); got != 1 {
		t.Errorf("sent %d weekend emails, want 1 (only eva has unfinished tasks)", got)
	}

	var davidOutcome *Outcome
	for i := range report.Outcomes {
		if report.Outcomes[i].Target == "david" {
			davidOutcome = &report.Outcomes[i]
		}
	}
	if davidOutcome == nil || davidOutcome.Status != StatusSkipped {
		t.Fatalf("david outcome = %+v, want skipped", davidOutcome)
	}
	if davidOutcome.Detail != detailNothingToSend {
		t.Errorf("david skip detail = %q, want %q", davidOutcome.Detail, detailNothingToSend)
	}
}

func TestReprogramRunsOncePerWeek(t *testing.T) {
	d, _, ms, engine := setupDispatcher(t)
	ctx := context.Background()

	if _, _, err := engine.MarkPendingTasksAsMissed(ctx, "2024-06-03"); err != nil {
		t.Fatalf("mark missed: %v", err)
	}

	report, err := d.HandleEvent(ctx, EventReprogram, sundayReprogram)
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if report.MissedCount != 7 {
		t.Errorf("missed count = %d, want 7", report.MissedCount)
	}

	report, err = d.HandleEvent(ctx, EventReprogram, sundayReprogram)
	if err != nil {
		t.Fatalf("second handle: %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Status != StatusAlreadySent {
		t.Errorf("second run outcomes = %+v, want already_sent", report.Outcomes)
	}

	// Exactly one reprogrammed marker per carried task.
	next, err := ms.GetWeek(ctx, "2024-06-10")
	if err != nil {
		t.Fatalf("get next week: %v", err)
	}
	count := 0
	for _, h := range next.Task("cocina").History {
		if h.Action == model.ActionReprogrammed {
			count++
		}
	}
	if count != 1 {
		t.Errorf("cocina has %d reprogrammed entries, want 1", count)
	}
}

func TestMonthlySummarySendsOncePerMonth(t *testing.T) {
	d, sender, _, _ := setupDispatcher(t)
	ctx := context.Background()

	// Last day of June at 20:00 Madrid.
	now := time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC)

	if _, err := d.HandleEvent(ctx, EventMonthlySummary, now); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := d.HandleEvent(ctx, EventMonthlySummary, now); err != nil {
		t.Fatalf("second handle: %v", err)
	}
	if sender.monthly != 1 {
		t.Errorf("monthly summary sent %d times, want 1", sender.monthly)
	}
}

// failingWeekStore fails bulk reads on demand to simulate a storage outage.
type failingWeekStore struct {
	*store.MemoryStore
	getWeeksErr error
}

func (f *failingWeekStore) GetWeeks(ctx context.Context, keys []string) ([]*model.Week, error) {
	if f.getWeeksErr != nil {
		return nil, f.getWeeksErr
	}
	return f.MemoryStore.GetWeeks(ctx, keys)
}

func TestMonthlySummaryStorageErrorAborts(t *testing.T) {
	cal, err := calendar.New("Europe/Madrid")
	if err != nil {
		t.Fatalf("new calendar: %v", err)
	}
	cat := catalog.Default()
	fs := &failingWeekStore{MemoryStore: store.NewMemoryStore(), getWeeksErr: errors.New("redis down")}
	sender := &fakeSender{failFor: map[string]bool{}}
	d := New(week.New(fs, cat, cal, nil), fs, cat, cal, sender, &fakeBirthdays{}, nil)
	ctx := context.Background()

	now := time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC)
	if _, err := d.HandleEvent(ctx, EventMonthlySummary, now); err == nil {
		t.Fatal("expected the storage error to abort the event")
	}
	if sender.monthly != 0 {
		t.Errorf("summary sent %d times during the outage, want 0", sender.monthly)
	}

	// The abort left no marker, so the retry after recovery delivers.
	fs.getWeeksErr = nil
	if _, err := d.HandleEvent(ctx, EventMonthlySummary, now); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if sender.monthly != 1 {
		t.Errorf("summary sent %d times after recovery, want 1", sender.monthly)
	}
}

func TestDailyBirthdaysAndWorkHours(t *testing.T) {
	d, sender, _, _ := setupDispatcher(t)
	ctx := context.Background()

	birthdays := &fakeBirthdays{byDate: map[string][]model.Birthday{
		"28/06": {{ID: 1, Name: "Marta", Date: "28/06"}},
	}}
	d.birthdays = birthdays

	// June 28 2024 is the last working day of the month. 07:00Z is 09:00 local.
	now := time.Date(2024, 6, 28, 7, 0, 0, 0, time.UTC)

	if _, err := d.HandleEvent(ctx, EventDaily, now); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.birthday) != 1 || sender.birthday[0] != "Marta" {
		t.Errorf("birthday greetings = %v, want [Marta]", sender.birthday)
	}
	if sender.workHrs != 1 {
		t.Errorf("work-hours reminders = %d, want 1", sender.workHrs)
	}

	// Second delivery the same day is fully absorbed.
	if _, err := d.HandleEvent(ctx, EventDaily, now); err != nil {
		t.Fatalf("second handle: %v", err)
	}
	if len(sender.birthday) != 1 || sender.workHrs != 1 {
		t.Errorf("re-delivery sent again: birthdays = %d, workHrs = %d", len(sender.birthday), sender.workHrs)
	}
}

func TestDailySkipsWorkHoursMidMonth(t *testing.T) {
	d, sender, _, _ := setupDispatcher(t)

	now := time.Date(2024, 6, 12, 7, 0, 0, 0, time.UTC)
	if _, err := d.HandleEvent(context.Background(), EventDaily, now); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.workHrs != 0 {
		t.Errorf("work-hours reminder fired mid-month")
	}
}

func TestDailyBirthdayListFailure(t *testing.T) {
	d, sender, _, _ := setupDispatcher(t)
	d.birthdays = &fakeBirthdays{err: errors.New("db locked")}

	now := time.Date(2024, 6, 12, 7, 0, 0, 0, time.UTC)
	report, err := d.HandleEvent(context.Background(), EventDaily, now)
	if err != nil {
		t.Fatalf("handle should not fail outright: %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Status != StatusFailed {
		t.Errorf("outcomes = %+v, want one failed", report.Outcomes)
	}
	if len(sender.birthday) != 0 {
		t.Error("greeting sent despite listing failure")
	}
}

func TestAutoResolvesMatchingSchedules(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want []Event
	}{
		{"wednesday reminder", wednesdayEvening, []Event{EventMidweek}},
		{"sunday deadline", sundayDeadline, []Event{EventDeadline}},
		{"sunday reprogram", sundayReprogram, []Event{EventReprogram}},
		{
			// June 30 2024 is both a Sunday and the last day of the month.
			"deadline and monthly coincide",
			time.Date(2024, 6, 30, 18, 0, 0, 0, time.UTC),
			[]Event{EventDeadline, EventMonthlySummary},
		},
		{"quiet minute", time.Date(2024, 6, 5, 12, 34, 0, 0, time.UTC), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _, _ := setupDispatcher(t)
			report, err := d.HandleEvent(context.Background(), EventAuto, tt.now)
			if err != nil {
				t.Fatalf("handle: %v", err)
			}
			if len(report.Ran) != len(tt.want) {
				t.Fatalf("ran %v, want %v", report.Ran, tt.want)
			}
			for i := range tt.want {
				if report.Ran[i] != tt.want[i] {
					t.Errorf("ran[%d] = %s, want %s", i, report.Ran[i], tt.want[i])
				}
			}
		})
	}
}
