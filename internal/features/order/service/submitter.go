package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/logger"
	formmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host"
	hostmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/metrics"
)

// Environment is the UI the submit reports to. Host is nil outside Telegram.
type Environment struct {
	Host     host.Capabilities
	Fallback host.Fallback
}

// FormResetter clears the form after a browser-mode success.
type FormResetter interface {
	Reset() formmodels.FormState
}

// Result describes one submit action.
type Result struct {
	Outcome models.Outcome
	Message string
	Err     error
}

type Submitter struct {
	sender Sender
	clock  Clock
	log    zerolog.Logger
}

func NewSubmitter(sender Sender, clock Clock) *Submitter {
	return &Submitter{
		sender: sender,
		clock:  clock,
		log:    logger.Component("order"),
	}
}

// Submit validates, posts the order once and reports the outcome through the
// host alert or the browser dialog. A failed post keeps the form intact.
func (s *Submitter) Submit(ctx context.Context, state formmodels.FormState, user *hostmodels.HostUser, env Environment, form FormResetter) Result {
	if err := Validate(state); err != nil {
		metrics.RecordSubmission(string(models.OutcomeInvalid))
		s.notify(env, err.Error(), false)
		return Result{Outcome: models.OutcomeInvalid, Message: err.Error(), Err: err}
	}

	rec := NewRecord(state, user, s.clock)
	if err := s.sender.Send(ctx, rec); err != nil {
		metrics.RecordSubmission(string(models.OutcomeFailed))
		s.log.Error().Err(err).Str("establishment", rec.Establishment).Msg("order submission failed")
		s.notify(env, MsgSubmitFailed, false)
		return Result{Outcome: models.OutcomeFailed, Message: MsgSubmitFailed, Err: err}
	}

	metrics.RecordSubmission(string(models.OutcomeSubmitted))
	s.log.Info().Str("establishment", rec.Establishment).Str("timestamp", rec.Timestamp).Msg("order submitted")

	if env.Host != nil {
		s.notify(env, MsgSubmittedHost, true)
		return Result{Outcome: models.OutcomeSubmitted, Message: MsgSubmittedHost}
	}
	s.notify(env, MsgSubmitted, false)
	form.Reset()
	return Result{Outcome: models.OutcomeSubmitted, Message: MsgSubmitted}
}

func (s *Submitter) notify(env Environment, message string, closeAfter bool) {
	if env.Host != nil {
		var onDismiss func()
		if closeAfter {
			onDismiss = env.Host.Close
		}
		env.Host.Alert(message, onDismiss)
		return
	}
	env.Fallback.Alert(message)
}
