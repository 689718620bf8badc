package models

// SubmissionRecord is the JSON body posted to the order-intake webhook.
// It is built once per submit and never stored.
type SubmissionRecord struct {
	Establishment  string `json:"establishment"`
	Order          string `json:"order"`
	Comment        string `json:"comment"`
	TelegramUserID *int64 `json:"telegramUserId,omitempty"`
	UserName       string `json:"userName"`
	Username       string `json:"username"`
	Timestamp      string `json:"timestamp"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

// Outcome is the result of one submit action.
type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
	OutcomeInvalid   Outcome = "invalid"
)
