package notifications

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"collegeconnect/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	defaultOnlineSetKey   = "presence:online"
	defaultLastSeenPrefix = "presence:last_seen:"
	defaultLastSeenTTL    = 90 * time.Second
	defaultOfflineGrace   = 5 * time.Second
	defaultReaperInterval = 60 * time.Second
)

// ConnectionManagerConfig overrides presence keys and timings. Zero values
// keep the defaults.
type ConnectionManagerConfig struct {
	OnlineSetKey       string
	LastSeenKeyPrefix  string
	LastSeenTTL        time.Duration
	OfflineGracePeriod time.Duration
	ReaperInterval     time.Duration
}

// ConnectionManager counts local streams per user, mirrors presence into
// Redis and reports online/offline transitions. A user going offline is
// reported only after a grace window so a quick reconnect is invisible.
type ConnectionManager struct {
	rdb *redis.Client

	mu              sync.RWMutex
	localConnCounts map[uint]int
	offlineTimers   map[uint]*time.Timer
	offlineNotified map[uint]bool

	onlineSetKey   string
	lastSeenPrefix string
	lastSeenTTL    time.Duration
	offlineGrace   time.Duration

	onUserOnline  func(userID uint)
	onUserOffline func(userID uint)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewConnectionManager creates a manager and, with Redis, starts the reaper
// that expires users whose last-seen key lapsed.
func NewConnectionManager(rdb *redis.Client, cfg ConnectionManagerConfig) *ConnectionManager {
	m := &ConnectionManager{
		rdb:             rdb,
		localConnCounts: make(map[uint]int),
		offlineTimers:   make(map[uint]*time.Timer),
		offlineNotified: make(map[uint]bool),
		onlineSetKey:    defaultOnlineSetKey,
		lastSeenPrefix:  defaultLastSeenPrefix,
		lastSeenTTL:     defaultLastSeenTTL,
		offlineGrace:    defaultOfflineGrace,
		stopCh:          make(chan struct{}),
	}
	if cfg.OnlineSetKey != "" {
		m.onlineSetKey = cfg.OnlineSetKey
	}
	if cfg.LastSeenKeyPrefix != "" {
		m.lastSeenPrefix = cfg.LastSeenKeyPrefix
	}
	if cfg.LastSeenTTL > 0 {
		m.lastSeenTTL = cfg.LastSeenTTL
	}
	if cfg.OfflineGracePeriod > 0 {
		m.offlineGrace = cfg.OfflineGracePeriod
	}
	interval := defaultReaperInterval
	if cfg.ReaperInterval > 0 {
		interval = cfg.ReaperInterval
	}

	if m.rdb != nil {
		go m.reaperLoop(interval)
	}
	return m
}

func (m *ConnectionManager) SetCallbacks(onOnline, onOffline func(userID uint)) {
	m.mu.Lock()
	m.onUserOnline = onOnline
	m.onUserOffline = onOffline
	m.mu.Unlock()
}

func (m *ConnectionManager) SetOfflineGracePeriod(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.offlineGrace = d
	m.mu.Unlock()
}

// Stop ends the reaper and cancels pending offline timers.
func (m *ConnectionManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.mu.Lock()
		for userID, timer := range m.offlineTimers {
			timer.Stop()
			delete(m.offlineTimers, userID)
		}
		m.mu.Unlock()
	})
}

// Register counts a new local stream for userID.
func (m *ConnectionManager) Register(ctx context.Context, userID uint) {
	wasOnline := m.IsOnline(ctx, userID)

	m.mu.Lock()
	if t, ok := m.offlineTimers[userID]; ok {
		t.Stop()
		delete(m.offlineTimers, userID)
	}
	m.localConnCounts[userID]++
	m.mu.Unlock()

	m.Touch(ctx, userID)
	if !wasOnline {
		m.emitOnline(userID)
	}
}

// Touch refreshes the user's last-seen key.
func (m *ConnectionManager) Touch(ctx context.Context, userID uint) {
	if m.rdb == nil {
		return
	}
	uid := strconv.FormatUint(uint64(userID), 10)
	_, err := m.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, m.onlineSetKey, uid)
		pipe.SetEx(ctx, m.lastSeenKey(userID), strconv.FormatInt(time.Now().Unix(), 10), m.lastSeenTTL)
		return nil
	})
	if err != nil {
		middleware.RedisErrors.WithLabelValues("presence_touch").Inc()
		middleware.Logger.Warn("presence touch failed", slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
}

// Unregister drops one local stream. The last one starts the offline grace timer.
func (m *ConnectionManager) Unregister(_ context.Context, userID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := m.localConnCounts[userID]; n > 1 {
		m.localConnCounts[userID] = n - 1
		return
	}
	delete(m.localConnCounts, userID)

	if t, ok := m.offlineTimers[userID]; ok {
		t.Stop()
	}
	m.offlineTimers[userID] = time.AfterFunc(m.offlineGrace, func() {
		m.finalizeOffline(context.Background(), userID)
	})
}

// IsOnline checks local streams first, then the shared last-seen key.
func (m *ConnectionManager) IsOnline(ctx context.Context, userID uint) bool {
	m.mu.RLock()
	local := m.localConnCounts[userID] > 0
	m.mu.RUnlock()
	if local {
		return true
	}
	if m.rdb == nil {
		return false
	}
	exists, err := m.rdb.Exists(ctx, m.lastSeenKey(userID)).Result()
	return err == nil && exists > 0
}

// GetOnlineUserIDs unions the live Redis set with local streams.
func (m *ConnectionManager) GetOnlineUserIDs(ctx context.Context) []uint {
	seen := make(map[uint]struct{})
	var result []uint
	add := func(id uint) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}

	live, _ := m.sweep(ctx)
	for _, id := range live {
		add(id)
	}
	for _, id := range m.localUserIDs() {
		add(id)
	}
	if result == nil {
		result = []uint{}
	}
	return result
}

// sweep walks the online set, removing members whose last-seen key expired.
// It returns the live members and the removed ones.
func (m *ConnectionManager) sweep(ctx context.Context) (live, stale []uint) {
	if m.rdb == nil {
		return nil, nil
	}
	members, err := m.rdb.SMembers(ctx, m.onlineSetKey).Result()
	if err != nil {
		middleware.RedisErrors.WithLabelValues("smembers").Inc()
		return nil, nil
	}
	for _, raw := range members {
		id64, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			continue
		}
		userID := uint(id64)
		exists, existsErr := m.rdb.Exists(ctx, m.lastSeenKey(userID)).Result()
		if existsErr != nil {
			continue
		}
		if exists > 0 {
			live = append(live, userID)
			continue
		}
		_ = m.rdb.SRem(ctx, m.onlineSetKey, raw).Err()
		stale = append(stale, userID)
	}
	return live, stale
}

func (m *ConnectionManager) reapOnce(ctx context.Context) {
	_, stale := m.sweep(ctx)
	for _, userID := range stale {
		m.mu.RLock()
		hasLocal := m.localConnCounts[userID] > 0
		m.mu.RUnlock()
		if !hasLocal {
			m.emitOffline(userID)
		}
	}
}

func (m *ConnectionManager) reaperLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.reapOnce(context.Background())
		}
	}
}

func (m *ConnectionManager) finalizeOffline(ctx context.Context, userID uint) {
	m.mu.Lock()
	delete(m.offlineTimers, userID)
	reconnected := m.localConnCounts[userID] > 0
	m.mu.Unlock()
	if reconnected {
		return
	}

	if m.rdb != nil {
		exists, err := m.rdb.Exists(ctx, m.lastSeenKey(userID)).Result()
		if err == nil && exists > 0 {
			// Another process refreshed presence.
			return
		}
		_ = m.rdb.SRem(ctx, m.onlineSetKey, strconv.FormatUint(uint64(userID), 10)).Err()
	}
	m.emitOffline(userID)
}

func (m *ConnectionManager) emitOnline(userID uint) {
	m.mu.Lock()
	m.offlineNotified[userID] = false
	cb := m.onUserOnline
	m.mu.Unlock()
	if cb != nil {
		cb(userID)
	}
}

func (m *ConnectionManager) emitOffline(userID uint) {
	m.mu.Lock()
	if m.offlineNotified[userID] {
		m.mu.Unlock()
		return
	}
	m.offlineNotified[userID] = true
	cb := m.onUserOffline
	m.mu.Unlock()
	if cb != nil {
		cb(userID)
	}
}

func (m *ConnectionManager) localUserIDs() []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint, 0, len(m.localConnCounts))
	for userID := range m.localConnCounts {
		ids = append(ids, userID)
	}
	return ids
}

func (m *ConnectionManager) lastSeenKey(userID uint) string {
	return m.lastSeenPrefix + strconv.FormatUint(uint64(userID), 10)
}
