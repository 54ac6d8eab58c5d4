package debategateway

import (
	"context"
	"errors"

	"debate-arena/internal/store"
)

var errInvalidAPIKey = errors.New("invalid_api_key")

func authenticateUser(ctx context.Context, st *store.Store, apiKey string) (*store.User, error) {
	if apiKey == "" {
		return nil, errInvalidAPIKey
	}
	user, err := st.GetUserByAPIKey(ctx, apiKey)
	if err != nil || user == nil {
		return nil, errInvalidAPIKey
	}
	return user, nil
}
