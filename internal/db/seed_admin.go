package db

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/assethub/internal/config"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminSeedStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpsertProfile(ctx context.Context, u user.User) (repo.UpdateResult, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string, now time.Time) (repo.UpdateResult, error)
}

// EnsureAdminUser makes sure the configured bootstrap account exists and
// holds the admin role. Without it nobody could ever grant admin.
func EnsureAdminUser(ctx context.Context, users AdminSeedStore, cfg config.Config) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	existing, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		if existing.IsAdmin() {
			return nil
		}
		_, err = users.SetRole(ctx, existing.ID, user.RoleAdmin, now)
		return err
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	_, err = users.UpsertProfile(ctx, user.User{
		Email:     cfg.AdminEmail,
		Name:      cfg.AdminName,
		Role:      user.RoleAdmin,
		Timestamp: now,
	})

	return err
}
