package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crucial707/brewlog/internal/apperr"
	"github.com/crucial707/brewlog/internal/metrics"
	"github.com/crucial707/brewlog/internal/repo"
)

// CoffeeService stores each user's coffee list with full-replace semantics.
type CoffeeService struct {
	store repo.Store
	auth  *AuthService
}

func NewCoffeeService(store repo.Store, auth *AuthService) *CoffeeService {
	return &CoffeeService{store: store, auth: auth}
}

// List returns the user's coffees newest first. Each element is the stored JSON
// object with dbId and savedAt added.
func (s *CoffeeService) List(ctx context.Context, token string) ([]map[string]any, error) {
	user, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.UserCoffees(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list coffees: %w", err)
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		item := map[string]any{}
		if err := json.Unmarshal([]byte(row.Data), &item); err != nil || item == nil {
			item = map[string]any{"value": json.RawMessage(row.Data)}
		}
		item["dbId"] = row.ID
		item["savedAt"] = row.CreatedAt.UTC().Format(time.RFC3339)
		out = append(out, item)
	}
	return out, nil
}

// Replace discards the user's stored coffees and saves coffees in their place.
// An empty list clears storage. Returns the number saved.
func (s *CoffeeService) Replace(ctx context.Context, token string, coffees []json.RawMessage) (int, error) {
	user, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return 0, err
	}
	return s.ReplaceForUser(ctx, user.ID, coffees)
}

// ReplaceForUser is Replace for a caller that has already resolved the token.
func (s *CoffeeService) ReplaceForUser(ctx context.Context, userID int64, coffees []json.RawMessage) (int, error) {
	data := make([]string, 0, len(coffees))
	for i, c := range coffees {
		var buf bytes.Buffer
		if err := json.Compact(&buf, c); err != nil {
			return 0, apperr.Validation(fmt.Sprintf("coffees[%d] is not valid JSON", i))
		}
		data = append(data, buf.String())
	}

	n, err := s.store.ReplaceUserCoffees(ctx, userID, data)
	if err != nil {
		return 0, fmt.Errorf("replace coffees: %w", err)
	}
	metrics.AddCoffeesSaved(n)
	return n, nil
}
