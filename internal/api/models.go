package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow/internal/domain"
	"github.com/phrazzld/taskflow/internal/notify"
	"github.com/phrazzld/taskflow/internal/service"
)

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint. Either
// username or email identifies the account.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"    validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
}

// identifier returns the field used to look the account up.
func (r LoginRequest) identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	AccessToken string    `json:"token"`
	ExpiresAt   string    `json:"expires_at"`
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string       `json:"title"       validate:"required,max=200"`
	Description string       `json:"description" validate:"max=5000"`
	DueDate     *domain.Date `json:"due_date"`
	Priority    string       `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

func (r CreateTaskRequest) toInput() service.CreateTaskInput {
	return service.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Priority:    domain.Priority(r.Priority),
	}
}

// OptionalDate distinguishes an absent due_date from an explicit null.
type OptionalDate struct {
	Set   bool
	Value *domain.Date
}

// UnmarshalJSON is only called when the key is present.
func (o *OptionalDate) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var d domain.Date
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	o.Value = &d
	return nil
}

// UpdateTaskRequest is the body of PUT /api/tasks/{id}. Absent fields are
// left unchanged; "due_date": null clears the due date.
type UpdateTaskRequest struct {
	Title       *string      `json:"title"       validate:"omitempty,max=200"`
	Description *string      `json:"description" validate:"omitempty,max=5000"`
	DueDate     OptionalDate `json:"due_date"`
	Priority    *string      `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Completed   *bool        `json:"completed"`
}

func (r UpdateTaskRequest) toInput() service.UpdateTaskInput {
	in := service.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			in.ClearDueDate = true
		} else {
			in.DueDate = r.DueDate.Value
		}
	}
	if r.Priority != nil {
		p := domain.Priority(*r.Priority)
		in.Priority = &p
	}
	return in
}

// TaskListResponse wraps the user's tasks.
type TaskListResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

// NotificationListResponse is the body of GET /api/notifications.
type NotificationListResponse struct {
	Notifications []domain.InAppNotification `json:"notifications"`
	Stats         notify.Stats               `json:"stats"`
}

// PreferencesResponse is the body of the preference endpoints.
type PreferencesResponse struct {
	EmailEnabled       bool      `json:"email_enabled"`
	DueTodayEnabled    bool      `json:"due_today_enabled"`
	DueTomorrowEnabled bool      `json:"due_tomorrow_enabled"`
	OverdueEnabled     bool      `json:"overdue_enabled"`
	ReminderHours      int       `json:"reminder_hours"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func preferencesToResponse(p *domain.NotificationPreferences) PreferencesResponse {
	return PreferencesResponse{
		EmailEnabled:       p.EmailEnabled,
		DueTodayEnabled:    p.DueTodayEnabled,
		DueTomorrowEnabled: p.DueTomorrowEnabled,
		OverdueEnabled:     p.OverdueEnabled,
		ReminderHours:      p.ReminderHours,
		UpdatedAt:          p.UpdatedAt,
	}
}

// TriggerResponse is the body of POST /api/notifications/trigger.
type TriggerResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Report  *notify.CycleReport `json:"report,omitempty"`
}

// MessageResponse carries a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}
