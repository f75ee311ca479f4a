// Package push sends best-effort device notifications through Firebase
// Cloud Messaging. Each user listens on a per-user topic, so no device
// token bookkeeping is needed here. Failures are reported to the caller
// and absorbed there; device push never gates feed delivery.
package push

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/ferrohaus/dwelling/backend/internal/models"
)

// FCMSender delivers notifications via Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewFCMSender initializes the Firebase app and its messaging client.
func NewFCMSender(ctx context.Context, credentialsPath string, log zerolog.Logger) (*FCMSender, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	return &FCMSender{client: client, log: log.With().Str("component", "push").Logger()}, nil
}

// Send publishes the notification on the recipient's topic.
func (s *FCMSender) Send(ctx context.Context, n models.Notification) error {
	_, err := s.client.Send(ctx, &messaging.Message{
		Topic: "user-" + n.UserID,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: map[string]string{
			"notification_id": n.ID,
			"type":            n.Type,
			"priority":        n.Priority,
		},
	})
	if err != nil {
		return err
	}
	s.log.Debug().Str("notification_id", n.ID).Str("user_id", n.UserID).Msg("device push sent")
	return nil
}
