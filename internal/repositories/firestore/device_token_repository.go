package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/famto/api/internal/notify"
	pfirestore "github.com/famto/api/internal/platform/firestore"
)

const deviceTokenCollection = "deviceTokens"

type deviceTokenDocument struct {
	Token     string    `firestore:"token"`
	Role      string    `firestore:"role"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// DeviceTokenRepository stores the push token registered per user and role.
// Documents are keyed "<role>:<userId>" so one user can hold tokens for
// several roles.
type DeviceTokenRepository struct {
	base *pfirestore.BaseRepository[deviceTokenDocument]
}

// NewDeviceTokenRepository constructs a Firestore-backed device token repository.
func NewDeviceTokenRepository(provider *pfirestore.Provider) (*DeviceTokenRepository, error) {
	if provider == nil {
		return nil, errors.New("device token repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[deviceTokenDocument](provider, deviceTokenCollection, nil, nil)
	return &DeviceTokenRepository{base: base}, nil
}

// Register upserts the token for a user in a role.
func (r *DeviceTokenRepository) Register(ctx context.Context, userID string, role string, token string, now time.Time) error {
	if r == nil || r.base == nil {
		return errors.New("device token repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	token = strings.TrimSpace(token)
	if userID == "" || token == "" {
		return errors.New("device token repository: user id and token are required")
	}
	_, err := r.base.Set(ctx, deviceTokenDocID(userID, role), deviceTokenDocument{
		Token:     token,
		Role:      normaliseRole(role),
		UpdatedAt: now.UTC(),
	})
	return err
}

// DeviceToken resolves the registered token for a user in a role.
func (r *DeviceTokenRepository) DeviceToken(ctx context.Context, userID string, role string) (string, error) {
	if r == nil || r.base == nil {
		return "", errors.New("device token repository not initialised")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", errors.New("device token repository: user id is required")
	}
	doc, err := r.base.Get(ctx, deviceTokenDocID(userID, role))
	if err != nil {
		return "", err
	}
	return doc.Data.Token, nil
}

func deviceTokenDocID(userID string, role string) string {
	return fmt.Sprintf("%s:%s", normaliseRole(role), userID)
}

func normaliseRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = "customer"
	}
	return role
}

var _ notify.TokenSource = (*DeviceTokenRepository)(nil)
