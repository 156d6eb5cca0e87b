package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/R3E-Network/orders_service/internal/app/domain/user"
)

// UserKind is the cache key kind of users.
const UserKind = "user"

// UsersGateway fetches users from the user directory.
type UsersGateway struct {
	*Gateway[user.Summary]
}

// NewUsersGateway creates the user directory gateway.
func NewUsersGateway(cfg GatewayConfig) *UsersGateway {
	if cfg.Name == "" {
		cfg.Name = "users"
	}
	return &UsersGateway{Gateway: newGateway(cfg, codec[user.Summary]{
		kind: UserKind,
		path: func(id string) string {
			return "/api/users/" + url.PathEscape(id)
		},
		placeholder:    UserPlaceholder,
		fallbackFields: []string{"userID"},
	})}
}

// GetUser fetches a user. The nil id is rejected without a network call.
func (g *UsersGateway) GetUser(ctx context.Context, id uuid.UUID) (Result[user.Summary], error) {
	if id == uuid.Nil {
		return Result[user.Summary]{}, fmt.Errorf("user id: %w: must not be empty", ErrInvalidInput)
	}
	return g.Fetch(ctx, id.String())
}

// UserPlaceholder returns the degraded user for a failure kind.
func UserPlaceholder(failure string) user.Summary {
	marker := Marker(failure)
	return user.Summary{
		ID:          uuid.Nil,
		DisplayName: marker,
		Email:       marker,
		GenderTag:   marker,
	}
}
