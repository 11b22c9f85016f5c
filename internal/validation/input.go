package validation

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
	maxTagLength      = 50
)

var tagRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9+#.\- ]*$`)

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare, well formed address.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}

// Password checks the password length policy.
func (e *Errors) Password(field, password string) {
	switch {
	case len(password) < minPasswordLength:
		e.Add(field, "Password must be at least 6 characters long")
	case len(password) > maxPasswordLength:
		e.Add(field, "Password cannot exceed 128 characters")
	}
}

// Email checks an already normalized address.
func (e *Errors) Email(field, email string) {
	if !ValidEmail(email) {
		e.Add(field, "Please provide a valid email")
	}
}

// NormalizeTags lowercases, trims and de-duplicates tags, keeping first-seen order.
// Blank entries are dropped.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Tags checks normalized tags for length and charset.
func (e *Errors) Tags(field string, tags []string) {
	for _, t := range tags {
		if len(t) > maxTagLength || !tagRegex.MatchString(t) {
			e.Add(field, "Tags must be short lowercase words")
			return
		}
	}
}

// SplitList parses a comma separated query value into normalized entries.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(raw, ","))
}
