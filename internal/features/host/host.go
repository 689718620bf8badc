// Package host detects whether the mini-app runs inside Telegram and exposes
// the host UI primitives as recorded commands for the page to execute.
package host

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/logger"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host/models"
)

// Capabilities is available only when the page runs inside the Telegram host.
type Capabilities interface {
	ExpandViewport()
	HideNativeButton()
	CurrentUser() (*models.HostUser, bool)
	// Alert shows a blocking host alert. onDismiss, when set, runs after the
	// user closes it.
	Alert(message string, onDismiss func())
	Close()
	Commands() []models.Command
}

// Fallback is the browser branch used when no host is present.
type Fallback interface {
	Alert(message string)
	Commands() []models.Command
}

// Detector validates Telegram init-data against the bot token.
type Detector struct {
	botToken string
	ttl      time.Duration
	debug    bool
	log      zerolog.Logger
}

func NewDetector(botToken string, ttl time.Duration, debug bool) *Detector {
	return &Detector{
		botToken: botToken,
		ttl:      ttl,
		debug:    debug,
		log:      logger.Component("host"),
	}
}

// Detect never fails: running outside Telegram is a normal mode and any
// problem with the init-data is reported as an absent host.
func (d *Detector) Detect(raw string) (Capabilities, bool) {
	if raw == "" {
		d.log.Debug().Msg("Telegram WebApp unavailable, browser mode")
		return nil, false
	}

	switch {
	case d.botToken != "":
		if err := initdata.Validate(raw, d.botToken, d.ttl); err != nil {
			d.log.Debug().Err(err).Msg("init data rejected, browser mode")
			return nil, false
		}
	case !d.debug:
		d.log.Warn().Msg("BOT_TOKEN is not set, init data ignored")
		return nil, false
	}

	parsed, err := initdata.Parse(raw)
	if err != nil {
		d.log.Debug().Err(err).Msg("init data unparsable, browser mode")
		return nil, false
	}

	tg := &telegram{}
	if parsed.User.ID != 0 {
		tg.user = &models.HostUser{
			ID:           parsed.User.ID,
			FirstName:    parsed.User.FirstName,
			LastName:     parsed.User.LastName,
			Username:     parsed.User.Username,
			LanguageCode: parsed.User.LanguageCode,
		}
	}
	d.log.Debug().Int64("user_id", parsed.User.ID).Msg("Telegram WebApp detected")
	return tg, true
}

// recorder collects commands between drains.
type recorder struct {
	mu       sync.Mutex
	commands []models.Command
}

func (r *recorder) push(cmd models.Command) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
}

func (r *recorder) Commands() []models.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.commands
	r.commands = nil
	if out == nil {
		out = []models.Command{}
	}
	return out
}

type telegram struct {
	recorder
	user *models.HostUser
}

func (t *telegram) ExpandViewport() {
	t.push(models.Command{Type: models.CommandExpand})
}

func (t *telegram) HideNativeButton() {
	t.push(models.Command{Type: models.CommandHideMainButton})
}

func (t *telegram) CurrentUser() (*models.HostUser, bool) {
	if t.user == nil {
		return nil, false
	}
	u := *t.user
	return &u, true
}

// Alert queues show_alert. The page holds the queue until dismissal, so the
// continuation's commands are recorded right behind it.
func (t *telegram) Alert(message string, onDismiss func()) {
	t.push(models.Command{Type: models.CommandShowAlert, Message: message})
	if onDismiss != nil {
		onDismiss()
	}
}

func (t *telegram) Close() {
	t.push(models.Command{Type: models.CommandClose})
}

type browser struct {
	recorder
}

// NewFallback returns the browser dialog branch.
func NewFallback() Fallback {
	return &browser{}
}

func (b *browser) Alert(message string) {
	b.push(models.Command{Type: models.CommandDialog, Message: message})
}
