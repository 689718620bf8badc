package service

import (
	"context"

	formmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/models"
)

type SessionService interface {
	// Open starts a form session for one page load. initData may be empty.
	Open(ctx context.Context, initData string) (*models.OpenResponse, error)
	Get(ctx context.Context, id string) (*models.SessionView, error)
	UpdateField(ctx context.Context, id, name, value string) (formmodels.FormState, error)
	UpdateSelection(ctx context.Context, id, value string) (formmodels.FormState, error)
	// Subscribe streams snapshots until cancel is called or the session expires.
	Subscribe(ctx context.Context, id string) (<-chan formmodels.FormState, func(), error)
	Submit(ctx context.Context, id string) (*models.SubmitResponse, error)
	// Wait blocks until every started hydration finished.
	Wait()
}
