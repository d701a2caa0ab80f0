package engine

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"slotnik/internal/models"

	"github.com/go-playground/validator/v10"
)

// ProposeRequest is the already-shaped input to Propose. Handlers build it
// from the transport payload; the engine validates and sanitizes it here
// before any store access.
type ProposeRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
	MeetingType string `json:"meeting_type" validate:"omitempty,oneof=remote in-person phone"`
	Notes       string `json:"notes" validate:"omitempty,max=2000"`
}

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationErrors aggregates per-field failures for one request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

func newValidate() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func (e *Engine) validatePropose(req *ProposeRequest) error {
	err := e.validate.Struct(req)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageForTag(fe),
		})
	}
	return out
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		if fe.Param() == models.DateLayout {
			return "must be a valid date in YYYY-MM-DD format"
		}
		return "must be a valid time in HH:MM format"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

// sanitize trims free-text fields, clamps their length and strips angle
// brackets. Not a full sanitizer; it only blocks stored markup.
func (req *ProposeRequest) sanitize() {
	req.Name = cleanText(req.Name, models.MaxNameLen)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = cleanText(req.Phone, models.MaxPhoneLen)
	req.Notes = cleanText(req.Notes, models.MaxNotesLen)

	if req.MeetingType == "" {
		req.MeetingType = models.MeetingRemote
	}
}

func cleanText(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("<", "", ">", "").Replace(s)
	// Clamp by runes; a byte slice could split a multibyte character.
	if utf8.RuneCountInString(s) > maxLen {
		s = string([]rune(s)[:maxLen])
	}
	return s
}

// slotStart parses the requested slot in the engine's location. Shapes are
// already validated, so a parse failure here is a programming error.
func (e *Engine) slotStart(date, timeOfDay string) (time.Time, error) {
	return time.ParseInLocation(models.SlotTimeLayout, date+" "+timeOfDay, e.loc)
}
