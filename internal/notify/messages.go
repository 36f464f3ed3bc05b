package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dcerezal/homeplan/internal/model"
	"github.com/dcerezal/homeplan/internal/week"
)

const (
	weekendEmailSubject   = "[Casa] Tareas pendientes de la semana"
	workHoursEmailSubject = "⏰ Recordatorio: Registrar horas de trabajo"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// formatDisplayDateTime renders a projected instant the Spanish way:
// "9 de junio de 2024, 20:00".
func formatDisplayDateTime(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d, %02d:%02d",
		t.Day(), spanishMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// formatMonthLabel renders a YYYY-MM key as "junio de 2024".
func formatMonthLabel(monthKey string) string {
	t, err := time.Parse("2006-01", monthKey)
	if err != nil {
		return monthKey
	}
	return fmt.Sprintf("%s de %d", spanishMonths[t.Month()-1], t.Year())
}

func taskList(tasks []model.TaskInstance) string {
	if len(tasks) == 0 {
		return "¡Todo al día!"
	}
	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = "- " + t.Title
	}
	return strings.Join(lines, "\n")
}

// MidweekMessage builds the Wednesday Telegram reminder.
func MidweekMessage(name string, tasks []model.TaskInstance, appURL string) string {
	return fmt.Sprintf(
		"¡Hola, %s! Recordatorio de mitad de semana:\n\n%s\n\n🕐 Límite: domingo 20:00\n\n📋 Marca tus tareas aquí:\n%s/cleaning-plan",
		name, taskList(tasks), appURL,
	)
}

// WeekendEmailHTML builds the Sunday pending-tasks email body.
func WeekendEmailHTML(name string, tasks []model.TaskInstance, deadline time.Time, appURL string) string {
	var items strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&items, "<li><strong>%s</strong></li>", t.Title)
	}

	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2563eb; text-align: center;">Tareas pendientes de la semana</h2>
  <p>Hola, %s. Siguen pendientes:</p>
  <ul>%s</ul>
  <p>Si no las completas hoy, se reprogramarán automáticamente para la semana siguiente.</p>
  <p style="color: #64748b; font-size: 0.9rem;">Límite formal: %s</p>
  <div style="margin-top: 30px; text-align: center;">
    <a href="%s/cleaning-plan"
       style="display: inline-block; padding: 12px 24px; background-color: #2563eb; color: white; text-decoration: none; border-radius: 6px; font-weight: bold;">
      📋 Marcar tareas como completadas
    </a>
  </div>
</div>`, name, items.String(), formatDisplayDateTime(deadline), appURL)
}

// MonthlySummaryEmail builds the subject and HTML body for the end-of-month
// stats email.
func MonthlySummaryEmail(summary *week.MonthSummary) (subject, html string) {
	label := formatMonthLabel(summary.Month)
	subject = fmt.Sprintf("[Casa] Resumen mensual %s", label)

	var rows strings.Builder
	for _, ps := range orderedStats(summary) {
		fmt.Fprintf(&rows, `<tr>
  <td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td>
  <td style="padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: center;">%d</td>
  <td style="padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: center;">%d</td>
  <td style="padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: center;">%d</td>
  <td style="padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: center;">%d</td>
  <td style="padding: 8px; border-bottom: 1px solid #e5e7eb; text-align: center;">%d%%</td>
</tr>`, ps.OwnerName, ps.Assigned, ps.Completed, ps.Pending, ps.Missed, ps.CompletionRate)
	}

	html = fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 700px; margin: 0 auto;">
  <h2 style="color: #0f172a;">Resumen mensual %s</h2>
  <p>Hola equipo, este es el resumen de limpieza del mes.</p>
  <table style="width: 100%%; border-collapse: collapse; margin-top: 20px;">
    <thead>
      <tr>
        <th style="text-align: left; padding: 8px; border-bottom: 2px solid #1e293b;">Persona</th>
        <th style="padding: 8px; border-bottom: 2px solid #1e293b;">Asignadas</th>
        <th style="padding: 8px; border-bottom: 2px solid #1e293b;">Hechas</th>
        <th style="padding: 8px; border-bottom: 2px solid #1e293b;">Pendientes</th>
        <th style="padding: 8px; border-bottom: 2px solid #1e293b;">No hechas</th>
        <th style="padding: 8px; border-bottom: 2px solid #1e293b;">%% Cumplimiento</th>
      </tr>
    </thead>
    <tbody>%s</tbody>
  </table>
  <div style="margin-top: 20px;">
    <h3>Tareas más olvidadas</h3>
    %s
  </div>
  <div style="margin-top: 20px; padding: 15px; background: #f1f5f9; border-radius: 8px;">
    <strong>Sugerencia:</strong>
    <p>%s</p>
  </div>
</div>`, label, rows.String(), forgottenSection(summary), summaryComment(summary))

	return subject, html
}

// orderedStats returns the per-person stats in a stable order (by owner id).
func orderedStats(summary *week.MonthSummary) []*week.PersonStats {
	ids := make([]string, 0, len(summary.StatsByPerson))
	for id := range summary.StatsByPerson {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	stats := make([]*week.PersonStats, len(ids))
	for i, id := range ids {
		stats[i] = summary.StatsByPerson[id]
	}
	return stats
}

func forgottenSection(summary *week.MonthSummary) string {
	if len(summary.MostForgottenTasks) == 0 {
		return "<p>Sin tareas olvidadas este mes. ¡Buen trabajo!</p>"
	}
	var items strings.Builder
	for _, t := range summary.MostForgottenTasks {
		fmt.Fprintf(&items, "<li><strong>%s</strong>: %d vez/veces</li>", t.Title, t.Misses)
	}
	return "<ul>" + items.String() + "</ul>"
}

func summaryComment(summary *week.MonthSummary) string {
	if len(summary.MostForgottenTasks) == 0 {
		return "¡Enhorabuena! Equipo al día con todas las tareas."
	}
	n := len(summary.MostForgottenTasks)
	if n > 3 {
		n = 3
	}
	titles := make([]string, n)
	for i := 0; i < n; i++ {
		titles[i] = summary.MostForgottenTasks[i].Title
	}
	return fmt.Sprintf("Revisad estas tareas con más cariño la próxima semana: %s.", strings.Join(titles, ", "))
}

// BirthdayMessage builds the shared-chat greeting.
func BirthdayMessage(name string) string {
	return fmt.Sprintf(
		"🎉 *¡FELIZ CUMPLEAÑOS!* 🎉\n\n🎂 ¡Hoy es el cumpleaños de *%s*! 🎂\n\n¡Que tengas un día maravilloso lleno de alegría, sorpresas y momentos especiales! 🌟\n\n¡A celebrar se ha dicho! 🥳🎊",
		name,
	)
}

// WorkHoursMessage builds the last-working-day Telegram nudge.
func WorkHoursMessage() string {
	return "⏰ *RECORDATORIO DE HORAS* ⏰\n\n¡Hola! 👋\n\n📅 Es el último día laboral del mes y es hora de registrar tus horas de trabajo.\n\n🔔 *Acción requerida:*\n• Registrar todas las horas trabajadas este mes\n• Revisar que no falte ningún día\n• Completar el registro antes de que termine el día\n\n¡No lo olvides! 💪"
}

// WorkHoursEmailHTML builds the matching email body.
func WorkHoursEmailHTML() string {
	return `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2563eb; text-align: center;">🕒 Recordatorio de Horas</h2>
  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p style="font-size: 16px; line-height: 1.6; margin: 0;"><strong>¡Hola!</strong></p>
    <p style="font-size: 16px; line-height: 1.6;">
      Este es tu recordatorio automático para registrar las horas de trabajo antes de que termine el mes.
    </p>
    <p style="font-size: 16px; line-height: 1.6;">
      📅 <strong>Fecha:</strong> Último día laboral del mes<br>
      ⏰ <strong>Acción requerida:</strong> Registrar todas las horas trabajadas
    </p>
  </div>
</div>`
}
