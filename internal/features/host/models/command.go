package models

// CommandType names one UI primitive the page executes on behalf of the backend.
type CommandType string

const (
	CommandExpand         CommandType = "expand"
	CommandHideMainButton CommandType = "main_button.hide"
	CommandShowAlert      CommandType = "show_alert"
	CommandClose          CommandType = "close"
	CommandDialog         CommandType = "dialog"
)

// Command is executed by the page in list order. show_alert and dialog block
// the queue until the user dismisses them.
type Command struct {
	Type    CommandType `json:"type"`
	Message string      `json:"message,omitempty"`
}
