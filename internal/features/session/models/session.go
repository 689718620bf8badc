package models

import (
	"time"

	formmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
	hostmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host/models"
	ordermodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/models"
)

// SessionView is what the page renders.
type SessionView struct {
	ID          string               `json:"id"`
	HostPresent bool                 `json:"host_present"`
	User        *hostmodels.HostUser `json:"user,omitempty"`
	State       formmodels.FormState `json:"state"`
	CreatedAt   time.Time            `json:"created_at"`
}

type OpenResponse struct {
	Session  SessionView          `json:"session"`
	Commands []hostmodels.Command `json:"commands"`
}

type SessionResponse struct {
	Session SessionView `json:"session"`
}

type StateResponse struct {
	State formmodels.FormState `json:"state"`
}

type SubmitResponse struct {
	Outcome  ordermodels.Outcome  `json:"outcome"`
	Message  string               `json:"message"`
	Commands []hostmodels.Command `json:"commands"`
	State    formmodels.FormState `json:"state"`
}

type FieldUpdate struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

type SelectionUpdate struct {
	Value string `json:"value"`
}
