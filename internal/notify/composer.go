package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/phrazzld/taskflow/internal/domain"
)

//go:embed templates/reminder.html
var templateFS embed.FS

// DefaultAppName is the product name shown in rendered emails.
const DefaultAppName = "TaskFlow"

// DueDateLayout formats due dates in task lines, e.g. "March 05, 2024".
const DueDateLayout = "January 02, 2006"

var priorityColors = map[domain.Priority]template.CSS{
	domain.PriorityLow:    "#4facfe",
	domain.PriorityMedium: "#43e97b",
	domain.PriorityHigh:   "#fa709a",
}

const defaultPriorityColor template.CSS = "#6b7280"

// Content is the rendered notification for one batch.
type Content struct {
	Subject string
	Title   string
	// Intro is the plain-text greeting line, also embedded in Body.
	Intro string
	// Body is a complete HTML document.
	Body string
}

type taskLine struct {
	Title         string
	PriorityLabel string
	Color         template.CSS
	Due           string
}

type emailData struct {
	AppName string
	Title   string
	Intro   string
	Tasks   []taskLine
}

// Composer renders notification content. It is safe for concurrent use.
type Composer struct {
	appName string
	tmpl    *template.Template
}

// NewComposer parses the embedded email template.
func NewComposer() (*Composer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/reminder.html")
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &Composer{appName: DefaultAppName, tmpl: tmpl}, nil
}

// Compose renders the email for kind covering tasks, addressed to username.
func (c *Composer) Compose(kind domain.NotificationKind, tasks []domain.Task, username string) (Content, error) {
	n := len(tasks)
	var content Content
	switch kind {
	case domain.KindDueToday:
		content.Subject = fmt.Sprintf("🚨 Tasks Due Today - %d %s", n, plural(n, "Task"))
		content.Title = "Tasks Due Today"
		content.Intro = fmt.Sprintf("Hi %s, you have %d %s due today:", username, n, plural(n, "task"))
	case domain.KindDueTomorrow:
		content.Subject = fmt.Sprintf("⏰ Tasks Due Tomorrow - %d %s", n, plural(n, "Task"))
		content.Title = "Tasks Due Tomorrow"
		content.Intro = fmt.Sprintf("Hi %s, you have %d %s due tomorrow:", username, n, plural(n, "task"))
	case domain.KindOverdue:
		content.Subject = fmt.Sprintf("❗ Overdue Tasks - %d %s", n, plural(n, "Task"))
		content.Title = "Overdue Tasks"
		content.Intro = fmt.Sprintf("Hi %s, you have %d overdue %s:", username, n, plural(n, "task"))
	default:
		return Content{}, fmt.Errorf("compose: unsupported notification kind %q", kind)
	}

	data := emailData{
		AppName: c.appName,
		Title:   content.Title,
		Intro:   content.Intro,
		Tasks:   make([]taskLine, 0, n),
	}
	for _, t := range tasks {
		data.Tasks = append(data.Tasks, newTaskLine(t))
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return Content{}, fmt.Errorf("render email: %w", err)
	}
	content.Body = buf.String()
	return content, nil
}

func newTaskLine(t domain.Task) taskLine {
	color, ok := priorityColors[t.Priority]
	if !ok {
		color = defaultPriorityColor
	}
	line := taskLine{
		Title:         t.Title,
		PriorityLabel: titleCase(string(t.Priority)) + " Priority",
		Color:         color,
	}
	if t.HasDueDate() {
		line.Due = t.DueDate.Format(DueDateLayout)
	}
	return line
}

// BatchInAppText returns the in-app title and message summarising a
// scheduled batch of count tasks.
func BatchInAppText(kind domain.NotificationKind, count int) (title, message string) {
	switch kind {
	case domain.KindDueToday:
		return fmt.Sprintf("🚨 %d %s Due Today", count, plural(count, "Task")),
			fmt.Sprintf("You have %d %s due today!", count, plural(count, "task"))
	case domain.KindDueTomorrow:
		return fmt.Sprintf("⏰ %d %s Due Tomorrow", count, plural(count, "Task")),
			fmt.Sprintf("You have %d %s due tomorrow!", count, plural(count, "task"))
	default:
		return fmt.Sprintf("❗ %d Overdue %s", count, plural(count, "Task")),
			fmt.Sprintf("You have %d overdue %s!", count, plural(count, "task"))
	}
}

// ImmediateInAppText returns the in-app title and message for a single
// task that has just become due.
func ImmediateInAppText(kind domain.NotificationKind, taskTitle string) (title, message string) {
	switch kind {
	case domain.KindDueToday:
		return "🚨 New Task Due Today", fmt.Sprintf("Task \"%s\" is due today!", taskTitle)
	case domain.KindDueTomorrow:
		return "⏰ New Task Due Tomorrow", fmt.Sprintf("Task \"%s\" is due tomorrow!", taskTitle)
	default:
		return "❗ New Overdue Task", fmt.Sprintf("Task \"%s\" is already overdue!", taskTitle)
	}
}

// CompletedInAppText is shown when a task is marked complete.
func CompletedInAppText(taskTitle string) (title, message string) {
	return "🎉 Task Completed!", fmt.Sprintf("Great job! You completed \"%s\"", taskTitle)
}

// DeletedInAppText is shown when a task is deleted.
func DeletedInAppText(taskTitle string) (title, message string) {
	return "🗑️ Task Deleted", fmt.Sprintf("Task \"%s\" has been permanently deleted", taskTitle)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
