package service

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/logger"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
)

const (
	FieldOrder         = "order"
	FieldComment       = "comment"
	FieldEstablishment = "establishment"
)

var (
	ErrLoading      = errors.New("form is still loading")
	ErrUnknownField = errors.New("unknown form field")
)

// Controller owns the FormState of one session. Every change swaps in a new
// snapshot and broadcasts it to subscribers.
type Controller struct {
	mu          sync.RWMutex
	state       models.FormState
	subscribers map[int]chan models.FormState
	nextID      int
	log         zerolog.Logger
}

func NewController() *Controller {
	return &Controller{
		state:       models.Initial(),
		subscribers: make(map[int]chan models.FormState),
		log:         logger.Component("form"),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() models.FormState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

// UpdateField replaces a free-text field. No validation happens here.
func (c *Controller) UpdateField(name, value string) (models.FormState, error) {
	return c.edit(func(s models.FormState) (models.FormState, error) {
		switch name {
		case FieldOrder:
			s.Order = value
		case FieldComment:
			s.Comment = value
		default:
			return s, ErrUnknownField
		}
		return s, nil
	})
}

// UpdateSelection replaces the establishment choice. Values outside the
// current list are accepted and logged.
func (c *Controller) UpdateSelection(name, value string) (models.FormState, error) {
	return c.edit(func(s models.FormState) (models.FormState, error) {
		if name != FieldEstablishment {
			return s, ErrUnknownField
		}
		if !s.HasEstablishment(value) {
			c.log.Warn().Str("establishment", value).Strs("options", s.Establishments).
				Msg("selected establishment is not among the options")
		}
		s.SelectedEstablishment = &value
		return s, nil
	})
}

// Load bulk-replaces the state while it is still loading. It is a no-op once
// the form is ready.
func (c *Controller) Load(apply func(models.FormState) models.FormState) models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.IsLoading {
		return c.state.Clone()
	}
	next := apply(c.state.Clone()).Clone()
	next.IsLoading = true
	return c.swap(next)
}

// MarkReady moves loading to ready. Ready is terminal and repeat calls are no-ops.
func (c *Controller) MarkReady() models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.IsLoading {
		return c.state.Clone()
	}
	next := c.state.Clone()
	next.IsLoading = false
	return c.swap(next)
}

// Reset clears the selection and the free-text fields. The option list and
// the lifecycle stay as they are.
func (c *Controller) Reset() models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.state.Clone()
	next.SelectedEstablishment = nil
	next.Order = ""
	next.Comment = ""
	return c.swap(next)
}

// Subscribe returns a channel that always yields the latest snapshot. Slow
// readers skip intermediate states. cancel closes the channel.
func (c *Controller) Subscribe() (<-chan models.FormState, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan models.FormState, 1)
	ch <- c.state.Clone()
	c.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subscribers[id]; ok {
				delete(c.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Close drops every subscriber.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subscribers {
		delete(c.subscribers, id)
		close(ch)
	}
}

func (c *Controller) edit(fn func(models.FormState) (models.FormState, error)) (models.FormState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.IsLoading {
		return c.state.Clone(), ErrLoading
	}
	next, err := fn(c.state.Clone())
	if err != nil {
		return c.state.Clone(), err
	}
	return c.swap(next), nil
}

// swap must be called with mu held.
func (c *Controller) swap(next models.FormState) models.FormState {
	c.state = next
	for _, ch := range c.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- next.Clone()
	}
	return next.Clone()
}
