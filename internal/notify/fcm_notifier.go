package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"github.com/famto/api/internal/services"
)

// MessageSender is the slice of the FCM client the notifier uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource resolves the device token registered for a user in a role.
type TokenSource interface {
	DeviceToken(ctx context.Context, userID string, role string) (string, error)
}

// FCMNotifier pushes order lifecycle events to customer, merchant and agent
// devices over Firebase Cloud Messaging.
type FCMNotifier struct {
	sender MessageSender
	tokens TokenSource
	logger func(ctx context.Context, event string, fields map[string]any)
}

// FCMNotifierConfig configures the FCMNotifier.
type FCMNotifierConfig struct {
	App    *firebase.App
	Sender MessageSender
	Tokens TokenSource
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// NewFCMNotifier constructs the notifier, deriving the messaging client from
// the Firebase app when no sender is injected.
func NewFCMNotifier(ctx context.Context, cfg FCMNotifierConfig) (*FCMNotifier, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("notify: token source is required")
	}
	sender := cfg.Sender
	if sender == nil {
		if cfg.App == nil {
			return nil, errors.New("notify: firebase app or sender is required")
		}
		client, err := cfg.App.Messaging(ctx)
		if err != nil {
			return nil, fmt.Errorf("notify: initialise messaging client: %w", err)
		}
		sender = client
	}
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &FCMNotifier{
		sender: sender,
		tokens: cfg.Tokens,
		logger: logger,
	}, nil
}

// Notify sends one data message to the user's registered device.
func (n *FCMNotifier) Notify(ctx context.Context, userID string, event string, payload map[string]any, role string) error {
	if n == nil || n.sender == nil || n.tokens == nil {
		return errors.New("notify: notifier not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("notify: user id is required")
	}

	token, err := n.tokens.DeviceToken(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("notify: resolve device token: %w", err)
	}
	if token == "" {
		return fmt.Errorf("notify: no device token registered for user %s", userID)
	}

	data := make(map[string]string, len(payload)+1)
	data["event"] = event
	for key, value := range payload {
		data[key] = stringifyValue(value)
	}

	messageID, err := n.sender.Send(ctx, &messaging.Message{
		Token: token,
		Data:  data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	})
	if err != nil {
		return fmt.Errorf("notify: send message: %w", err)
	}
	n.logger(ctx, "notify.fcm.sent", map[string]any{
		"userId":    userID,
		"event":     event,
		"role":      role,
		"messageId": messageID,
	})
	return nil
}

func stringifyValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

var _ services.Notifier = (*FCMNotifier)(nil)
