package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/logger"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/models"
)

var ErrSubmissionFailed = errors.New("order submission failed")

// Sender delivers a finished order to the order-intake webhook.
type Sender interface {
	Send(ctx context.Context, rec models.SubmissionRecord) error
}

type webhookSender struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewSender(endpoint string, httpClient *http.Client) Sender {
	return &webhookSender{
		endpoint:   endpoint,
		httpClient: httpClient,
		log:        logger.Component("order"),
	}
}

func (s *webhookSender) Send(ctx context.Context, rec models.SubmissionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSubmissionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	s.log.Debug().RawJSON("order", payload).Msg("sending order")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrSubmissionFailed, resp.StatusCode)
	}
	return nil
}
