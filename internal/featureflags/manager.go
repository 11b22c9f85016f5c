// Package featureflags evaluates rollout flags from the FEATURE_FLAGS setting.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

const (
	// TrendingFeed gates the trending sort mode of the post listing.
	TrendingFeed = "trending_feed"
	// RealtimeStream gates websocket ticket issuance.
	RealtimeStream = "realtime_stream"
)

// Defaults apply unless the configured list overrides them.
var Defaults = map[string]string{
	TrendingFeed:   "on",
	RealtimeStream: "on",
}

type ruleKind int

const (
	ruleOff ruleKind = iota
	ruleOn
	rulePercent
	ruleUsers
)

type rule struct {
	raw     string
	kind    ruleKind
	percent int
	users   map[uint]struct{}
}

// parseRule accepts on/true/1, off/false/0, N% and users:1|2|3.
// Anything else evaluates as off.
func parseRule(value string) rule {
	r := rule{raw: value}
	switch {
	case value == "on" || value == "true" || value == "1":
		r.kind = ruleOn
	case strings.HasSuffix(value, "%"):
		pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
		if err != nil {
			return r
		}
		r.kind, r.percent = rulePercent, pct
	case strings.HasPrefix(value, "users:"):
		r.kind = ruleUsers
		r.users = map[uint]struct{}{}
		for _, id := range strings.Split(strings.TrimPrefix(value, "users:"), "|") {
			if n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32); err == nil && n > 0 {
				r.users[uint(n)] = struct{}{}
			}
		}
	}
	return r
}

// Manager evaluates feature flags defined in a key=value list, for example
// "trending_feed=25%,realtime_stream=users:1|7".
type Manager struct {
	rules map[string]rule
}

// NewManager layers the comma-separated config string over Defaults.
// Malformed pairs are skipped.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule, len(Defaults))}
	for k, v := range Defaults {
		m.rules[k] = parseRule(v)
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		m.rules[key] = parseRule(value)
	}
	return m
}

// Enabled reports whether flag name is on for userID. Percentage and
// allowlist rules never match anonymous callers (userID 0).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	if !ok {
		return false
	}

	switch r.kind {
	case ruleOn:
		return true
	case rulePercent:
		if r.percent >= 100 {
			return true
		}
		if r.percent <= 0 || userID == 0 {
			return false
		}
		return rolloutBucket(name, userID) < r.percent
	case ruleUsers:
		_, ok := r.users[userID]
		return ok
	}
	return false
}

// Names lists the known flags in order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.rules))
	for name := range m.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Raw returns the configured value of every flag.
func (m *Manager) Raw() map[string]string {
	out := make(map[string]string, len(m.rules))
	for k, r := range m.rules {
		out[k] = r.raw
	}
	return out
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.rules))
	for name := range m.rules {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
