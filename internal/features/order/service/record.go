package service

import (
	"errors"
	"strings"
	"time"

	formmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
	hostmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/models"
)

const (
	MsgOrderRequired = "Будь ласка, опишіть замовлення"
	MsgSubmittedHost = "Замовлення успішно відправлено! Дякуємо!"
	MsgSubmitted     = "Замовлення успішно відправлено!"
	MsgSubmitFailed  = "Помилка відправки замовлення. Спробуйте ще раз."

	unknownUserName = "Невідомий"
)

// ValidationError is a user-facing reason to block the submit.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidation reports whether err blocked the submit before any network call.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Validate applies the submit checks in order, first failure wins.
// The establishment is intentionally not required.
func Validate(state formmodels.FormState) error {
	if strings.TrimSpace(state.Order) == "" {
		return &ValidationError{Field: "order", Message: MsgOrderRequired}
	}
	return nil
}

// layouts renders "date" and "time" the way the locale's toLocale*String does.
var layouts = map[string]struct{ date, clock string }{
	"uk-UA": {"02.01.2006", "15:04:05"},
	"ru-RU": {"02.01.2006", "15:04:05"},
	"en-US": {"1/2/2006", "3:04:05 PM"},
	"en-GB": {"02/01/2006", "15:04:05"},
}

// Clock fixes the instant and rendering rules for one record.
type Clock struct {
	Now      func() time.Time
	Locale   string
	Location *time.Location
}

func (c Clock) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// NewRecord assembles the webhook body from the form and the host user.
func NewRecord(state formmodels.FormState, user *hostmodels.HostUser, clock Clock) models.SubmissionRecord {
	now := clock.now()
	loc := clock.Location
	if loc == nil {
		loc = time.UTC
	}
	layout, ok := layouts[clock.Locale]
	if !ok {
		layout = layouts["uk-UA"]
	}
	local := now.In(loc)

	rec := models.SubmissionRecord{
		Establishment: state.Establishment(),
		Order:         state.Order,
		Comment:       state.Comment,
		UserName:      unknownUserName,
		Timestamp:     now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Date:          local.Format(layout.date),
		Time:          local.Format(layout.clock),
	}
	if user != nil {
		id := user.ID
		rec.TelegramUserID = &id
		rec.UserName = user.DisplayName()
		rec.Username = user.Username
	}
	return rec
}
