package notifier

import (
	"context"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/suresportpicks/picks-service/internal/config"
	"github.com/suresportpicks/picks-service/internal/models"
)

var ErrNotDelivered = errors.New("notification not accepted")

// StatusNotifier tells the external notification service about a status
// change. Delivery is best effort and never blocks a transition.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, change models.StatusChange)
}

type Sender struct {
	cfg    *config.Config
	log    *zerolog.Logger
	client *resty.Client
}

func NewSender(cfg *config.Config, logger *zerolog.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		log:    logger,
		client: resty.New(),
	}
}

func (sender *Sender) NotifyStatusChange(ctx context.Context, change models.StatusChange) {
	if sender.cfg.NotifyAddress == "" {
		return
	}

	if err := sender.post(ctx, change); err != nil {
		sender.log.Error().Err(err).
			Str("withdrawalId", change.WithdrawalID).
			Msg("failed to deliver status notification")
	}
}

func (sender *Sender) post(ctx context.Context, change models.StatusChange) error {
	url := sender.cfg.NotifyAddress + "/api/notifications/withdrawal-status"

	resp, err := sender.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(change).
		Post(url)
	if err != nil {
		return errors.Wrap(err, "could not send notification")
	}

	if resp.StatusCode() >= http.StatusMultipleChoices {
		return errors.Wrapf(ErrNotDelivered, "status %d", resp.StatusCode())
	}

	return nil
}
