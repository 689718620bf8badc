package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/logger"
	formmodels "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/form/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/profile/models"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/metrics"
)

const companyDelimiter = ","

var ErrProfileUnavailable = errors.New("profile unavailable")

// Fetcher looks up a user's establishments and today's order on the profile webhook.
type Fetcher interface {
	Fetch(ctx context.Context, telegramID int64) (*models.Profile, error)
}

// FormLoader is the part of the form controller hydration needs.
type FormLoader interface {
	Load(apply func(formmodels.FormState) formmodels.FormState) formmodels.FormState
	MarkReady() formmodels.FormState
}

type webhookFetcher struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewFetcher(endpoint string, httpClient *http.Client) Fetcher {
	return &webhookFetcher{
		endpoint:   endpoint,
		httpClient: httpClient,
		log:        logger.Component("profile"),
	}
}

func (f *webhookFetcher) Fetch(ctx context.Context, telegramID int64) (*models.Profile, error) {
	u, err := url.Parse(f.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: bad endpoint: %v", ErrProfileUnavailable, err)
	}
	q := u.Query()
	q.Set("telegram_id", strconv.FormatInt(telegramID, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProfileUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrProfileUnavailable, resp.StatusCode)
	}

	profile, err := Parse(body)
	if err != nil {
		return nil, err
	}
	f.log.Debug().Int64("telegram_id", telegramID).Interface("profile", profile).Msg("profile received")
	return profile, nil
}

// Parse reads the first element of the webhook's JSON array.
func Parse(body []byte) (*models.Profile, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrProfileUnavailable)
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, fmt.Errorf("%w: expected JSON array", ErrProfileUnavailable)
	}
	first := root.Get("0")
	if !first.IsObject() {
		return nil, fmt.Errorf("%w: no profile record", ErrProfileUnavailable)
	}

	p := &models.Profile{Establishments: []string{}}

	if company := first.Get("company"); company.Exists() && company.Type != gjson.Null {
		p.HasCompany = true
		p.Establishments = splitCompany(company.String())
	}

	// An empty order column means nothing was ordered today.
	order := first.Get("order")
	hasOrder := order.Exists() && order.Type != gjson.Null && order.String() != ""
	if hasOrder {
		p.Order = order.String()
	} else {
		p.Order = first.Get("positions").String()
	}
	p.ExistingOrderToday = hasOrder
	if p.ExistingOrderToday {
		p.Comment = first.Get("comment").String()
	}

	return p, nil
}

func splitCompany(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, companyDelimiter) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Apply merges a profile into the loading form state.
func Apply(prev formmodels.FormState, p models.Profile) formmodels.FormState {
	next := prev.Clone()
	if p.HasCompany {
		next.Establishments = append([]string{}, p.Establishments...)
	}
	next.Order = p.Order
	next.Comment = p.Comment
	next.IsExistingOrderToday = p.ExistingOrderToday

	switch {
	case next.SelectedEstablishment != nil && next.HasEstablishment(*next.SelectedEstablishment):
	case len(next.Establishments) == 1:
		only := next.Establishments[0]
		next.SelectedEstablishment = &only
	default:
		next.SelectedEstablishment = nil
	}
	return next
}

// Hydrator fills a form from the profile webhook once per session.
type Hydrator struct {
	fetcher Fetcher
	log     zerolog.Logger
}

func NewHydrator(fetcher Fetcher) *Hydrator {
	return &Hydrator{fetcher: fetcher, log: logger.Component("profile")}
}

// Hydrate always marks the form ready, whether the lookup worked or not.
// A failed lookup leaves the form at its defaults.
func (h *Hydrator) Hydrate(ctx context.Context, telegramID int64, form FormLoader) error {
	defer form.MarkReady()

	profile, err := h.fetcher.Fetch(ctx, telegramID)
	if err != nil {
		metrics.RecordProfileFetch("failed")
		h.log.Error().Err(err).Int64("telegram_id", telegramID).Msg("profile lookup failed")
		return err
	}

	metrics.RecordProfileFetch("ok")
	form.Load(func(prev formmodels.FormState) formmodels.FormState {
		return Apply(prev, *profile)
	})
	return nil
}
