package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/logger"
	formmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
	formservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/service"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host"
	hostmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host/models"
	orderservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/service"
	profileservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/profile/service"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/repository"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// Session is one page load: a form, the detected host and the host user.
type Session struct {
	ID        string
	CreatedAt time.Time

	form     *formservice.Controller
	host     host.Capabilities
	fallback host.Fallback
	user     *hostmodels.HostUser
}

func (s *Session) view() models.SessionView {
	return models.SessionView{
		ID:          s.ID,
		HostPresent: s.host != nil,
		User:        s.user,
		State:       s.form.Snapshot(),
		CreatedAt:   s.CreatedAt,
	}
}

func (s *Session) environment() orderservice.Environment {
	return orderservice.Environment{Host: s.host, Fallback: s.fallback}
}

// commands drains whichever UI branch the session runs in.
func (s *Session) commands() []hostmodels.Command {
	if s.host != nil {
		return s.host.Commands()
	}
	return s.fallback.Commands()
}

// Close releases subscribers when the session is dropped.
func (s *Session) Close() {
	s.form.Close()
}

type Config struct {
	SubmitLockTTL time.Duration
}

type sessionService struct {
	detector  *host.Detector
	hydrator  *profileservice.Hydrator
	submitter *orderservice.Submitter
	store     repository.Store[*Session]
	locker    repository.Locker
	cfg       Config
	log       zerolog.Logger
	inflight  sync.WaitGroup
}

func NewSessionService(
	detector *host.Detector,
	hydrator *profileservice.Hydrator,
	submitter *orderservice.Submitter,
	store repository.Store[*Session],
	locker repository.Locker,
	cfg Config,
) SessionService {
	return &sessionService{
		detector:  detector,
		hydrator:  hydrator,
		submitter: submitter,
		store:     store,
		locker:    locker,
		cfg:       cfg,
		log:       logger.Component("session"),
	}
}

func (s *sessionService) Open(ctx context.Context, initData string) (*models.OpenResponse, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		form:      formservice.NewController(),
		fallback:  host.NewFallback(),
	}

	if caps, ok := s.detector.Detect(initData); ok {
		sess.host = caps
		caps.ExpandViewport()
		caps.HideNativeButton()
		if user, ok := caps.CurrentUser(); ok {
			sess.user = user
		}
	} else {
		s.log.Debug().Str("session_id", sess.ID).Msg("opened outside Telegram")
	}

	s.store.Put(sess.ID, sess)

	if sess.user != nil {
		s.inflight.Add(1)
		hydrateCtx := context.WithoutCancel(ctx)
		go func() {
			defer s.inflight.Done()
			_ = s.hydrator.Hydrate(hydrateCtx, sess.user.ID, sess.form)
		}()
	} else {
		sess.form.MarkReady()
	}

	s.log.Info().
		Str("session_id", sess.ID).
		Bool("host_present", sess.host != nil).
		Bool("has_user", sess.user != nil).
		Msg("session opened")

	return &models.OpenResponse{
		Session:  sess.view(),
		Commands: sess.commands(),
	}, nil
}

func (s *sessionService) Get(_ context.Context, id string) (*models.SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	v := sess.view()
	return &v, nil
}

func (s *sessionService) UpdateField(_ context.Context, id, name, value string) (formmodels.FormState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return formmodels.FormState{}, err
	}
	return sess.form.UpdateField(name, value)
}

func (s *sessionService) UpdateSelection(_ context.Context, id, value string) (formmodels.FormState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return formmodels.FormState{}, err
	}
	return sess.form.UpdateSelection(formservice.FieldEstablishment, value)
}

// Subscribe pins the session in the store for as long as the stream is open.
func (s *sessionService) Subscribe(_ context.Context, id string) (<-chan formmodels.FormState, func(), error) {
	sess, release, ok := s.store.Hold(id)
	if !ok {
		return nil, nil, ErrSessionNotFound
	}
	ch, cancel := sess.form.Subscribe()
	return ch, func() {
		cancel()
		release()
	}, nil
}

func (s *sessionService) Submit(ctx context.Context, id string) (*models.SubmitResponse, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	state := sess.form.Snapshot()
	if state.IsLoading {
		return nil, formservice.ErrLoading
	}

	unlock, err := s.locker.TryLock(ctx, "submit:"+sess.ID, s.cfg.SubmitLockTTL)
	if err != nil {
		if errors.Is(err, repository.ErrLocked) {
			return nil, ErrSubmissionInFlight
		}
		return nil, err
	}
	// Once issued, the post runs to completion even if the caller goes away.
	runCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := unlock(runCtx); err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("submit lock release failed")
		}
	}()

	res := s.submitter.Submit(runCtx, state, sess.user, sess.environment(), sess.form)

	s.log.Info().
		Str("session_id", sess.ID).
		Str("outcome", string(res.Outcome)).
		Msg("submit handled")

	return &models.SubmitResponse{
		Outcome:  res.Outcome,
		Message:  res.Message,
		Commands: sess.commands(),
		State:    sess.form.Snapshot(),
	}, nil
}

func (s *sessionService) Wait() {
	s.inflight.Wait()
}

func (s *sessionService) lookup(id string) (*Session, error) {
	sess, ok := s.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}
