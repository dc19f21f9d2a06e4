package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tbourn/go-artwork-gallery/internal/domain"
)

const nsUser = "user"

// LogUserSignIn records now as u's last sign-in and returns the previously
// recorded time. On a first sign-in the returned time is now.
func LogUserSignIn(ctx context.Context, kv *KV, u domain.GitHubUser, now time.Time) (time.Time, error) {
	key := Key{nsUser, u.Login}

	var prev domain.AdminLogin
	found, err := kv.Get(ctx, key, &prev)
	if err != nil {
		return time.Time{}, err
	}

	var rec domain.AdminLogin
	rec.User.ID = strconv.FormatInt(u.ID, 10)
	rec.User.Login = u.Login
	rec.LastLogin = now.UTC()
	if err := kv.Set(ctx, key, rec); err != nil {
		return time.Time{}, fmt.Errorf("log user %s: %w", key, err)
	}

	if found && !prev.LastLogin.IsZero() {
		return prev.LastLogin, nil
	}
	return rec.LastLogin, nil
}
