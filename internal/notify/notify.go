// Package notify sends the household reminders over email and Telegram.
// Clients are constructed once at startup and injected; there are no lazy
// package-level singletons.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dcerezal/homeplan/internal/catalog"
	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/week"
)

// Soft-failure reasons reported to the dispatcher. A reason means the message
// was not sent but processing should continue for other recipients.
const (
	ReasonPersonNotFound     = "person_not_found"
	ReasonBotNotConfigured   = "telegram_bot_not_configured"
	ReasonChatNotConfigured  = "chat_id_not_configured"
	ReasonEmailNotConfigured = "email_not_configured"
	ReasonNoPendingTasks     = "no_pending_tasks"
)

// Result is the outcome of one send attempt. Reason is set for soft
// configuration failures, Error for transport failures.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok() Result { return Result{Success: true} }

func skipped(reason string) Result { return Result{Reason: reason} }

func failed(err error) Result { return Result{Error: err.Error()} }

// Notifier holds the configured transports for every person plus the shared
// household channel used by the daily jobs.
type Notifier struct {
	cat         *catalog.Catalog
	email       *EmailClient
	bots        map[string]*TelegramClient // person id -> personal bot
	chats       map[string]string          // person id -> chat id
	daily       *TelegramClient            // shared bot for birthdays / work hours
	dailyChatID string
	appURL      string
	logger      *slog.Logger
}

// NewNotifier resolves each person's bot token and chat id from the
// environment variable names in the catalog. People without a token simply
// have no chat transport; sends to them report a configuration reason.
func NewNotifier(cat *catalog.Catalog, email *EmailClient, dailyBot *TelegramClient, dailyChatID, appURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if appURL == "" {
		appURL = "https://reminderdave.vercel.app"
	}
	n := &Notifier{
		cat:         cat,
		email:       email,
		bots:        make(map[string]*TelegramClient),
		chats:       make(map[string]string),
		daily:       dailyBot,
		dailyChatID: dailyChatID,
		appURL:      appURL,
		logger:      logger,
	}
	for _, p := range cat.People {
		if p.TelegramBotTokenEnv == "" {
			continue
		}
		token := os.Getenv(p.TelegramBotTokenEnv)
		if token == "" {
			logger.Warn("telegram bot token not set", "person", p.ID, "env", p.TelegramBotTokenEnv)
			continue
		}
		n.bots[p.ID] = NewTelegramClient(token)
		if p.TelegramChatIDEnv != "" {
			n.chats[p.ID] = os.Getenv(p.TelegramChatIDEnv)
		}
	}
	return n
}

// SendMidweekReminder sends the midweek outstanding-task list to one person
// over their Telegram bot.
func (n *Notifier) SendMidweekReminder(ctx context.Context, personID string, tasks []model.TaskInstance) Result {
	person, found := n.cat.PersonByID(personID)
	if !found {
		return skipped(ReasonPersonNotFound)
	}
	bot, found := n.bots[personID]
	if !found {
		return skipped(ReasonBotNotConfigured)
	}
	chatID := n.chats[personID]
	if chatID == "" {
		n.logger.Warn("telegram chat id not configured", "person", personID)
		return skipped(ReasonChatNotConfigured)
	}

	msg := MidweekMessage(person.Name, tasks, n.appURL)
	if err := bot.SendMessage(ctx, chatID, msg); err != nil {
		return failed(fmt.Errorf("telegram send to %s: %w", personID, err))
	}
	return ok()
}

// SendWeekendEmail emails one person their still-pending tasks with the
// week's deadline.
func (n *Notifier) SendWeekendEmail(ctx context.Context, personID string, tasks []model.TaskInstance, deadline time.Time) Result {
	person, found := n.cat.PersonByID(personID)
	if !found {
		return skipped(ReasonPersonNotFound)
	}
	if person.Email == "" {
		n.logger.Warn("email not configured", "person", personID)
		return skipped(ReasonEmailNotConfigured)
	}
	if len(tasks) == 0 {
		return skipped(ReasonNoPendingTasks)
	}
	if !n.email.Configured() {
		return skipped(ReasonEmailNotConfigured)
	}

	html := WeekendEmailHTML(person.Name, tasks, deadline, n.appURL)
	if err := n.email.Send(ctx, []string{person.Email}, weekendEmailSubject, html); err != nil {
		return failed(fmt.Errorf("weekend email to %s: %w", personID, err))
	}
	return ok()
}

// SendMonthlySummaryEmail emails the month's stats to every configured
// recipient at once. Returns the recipients addressed.
func (n *Notifier) SendMonthlySummaryEmail(ctx context.Context, summary *week.MonthSummary) (Result, []string) {
	recipients := n.cat.EmailRecipients()
	if len(recipients) == 0 || !n.email.Configured() {
		return skipped(ReasonEmailNotConfigured), nil
	}
	subject, html := MonthlySummaryEmail(summary)
	if err := n.email.Send(ctx, recipients, subject, html); err != nil {
		return failed(fmt.Errorf("monthly summary email: %w", err)), nil
	}
	return ok(), recipients
}

// SendBirthdayMessage posts a greeting on the shared household chat.
func (n *Notifier) SendBirthdayMessage(ctx context.Context, name string) Result {
	if n.daily == nil {
		return skipped(ReasonBotNotConfigured)
	}
	if n.dailyChatID == "" {
		return skipped(ReasonChatNotConfigured)
	}
	if err := n.daily.SendMessage(ctx, n.dailyChatID, BirthdayMessage(name)); err != nil {
		return failed(fmt.Errorf("birthday message for %s: %w", name, err))
	}
	return ok()
}

// SendWorkHoursReminder nudges over both the shared chat and email. Either
// channel failing does not suppress the other; the result reflects whether
// at least one went out.
func (n *Notifier) SendWorkHoursReminder(ctx context.Context) Result {
	sentAny := false
	var lastErr error

	if n.daily != nil && n.dailyChatID != "" {
		if err := n.daily.SendMessage(ctx, n.dailyChatID, WorkHoursMessage()); err != nil {
			lastErr = fmt.Errorf("work hours telegram: %w", err)
			n.logger.Error("work hours telegram send", "error", err)
		} else {
			sentAny = true
		}
	}

	if recipients := n.cat.EmailRecipients(); len(recipients) > 0 && n.email.Configured() {
		if err := n.email.Send(ctx, recipients, workHoursEmailSubject, WorkHoursEmailHTML()); err != nil {
			lastErr = fmt.Errorf("work hours email: %w", err)
			n.logger.Error("work hours email send", "error", err)
		} else {
			sentAny = true
		}
	}

	if sentAny {
		return ok()
	}
	if lastErr != nil {
		return failed(lastErr)
	}
	return skipped(ReasonBotNotConfigured)
}
