package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	UserStatsKeyPrefix = "user:%d:stats"
	EventKeyPrefix     = "event:%d"
)

const (
	UserTTL      = 5 * time.Minute
	UserStatsTTL = time.Minute
	EventTTL     = 2 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UserStatsKey(userID uint) string {
	return fmt.Sprintf(UserStatsKeyPrefix, userID)
}

func EventKey(eventID uint) string {
	return fmt.Sprintf(EventKeyPrefix, eventID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops the profile and the derived stats of a user.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID), UserStatsKey(userID))
}

// InvalidateUserStats drops only the derived stats, e.g. after a vote on the user's content.
func InvalidateUserStats(ctx context.Context, userID uint) {
	Invalidate(ctx, UserStatsKey(userID))
}

func InvalidateEvent(ctx context.Context, eventID uint) {
	Invalidate(ctx, EventKey(eventID))
}
