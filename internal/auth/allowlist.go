package auth

import "strings"

// AllowList is the administrator e-mail set. It is built once from
// configuration and has no mutation path.
type AllowList struct {
	emails map[string]struct{}
}

// NewAllowList parses a comma-separated list of e-mails. Matching is exact
// and case-insensitive; there is no wildcard or domain matching.
func NewAllowList(csv string) *AllowList {
	l := &AllowList{emails: make(map[string]struct{})}
	for _, e := range strings.Split(csv, ",") {
		e = normalizeEmail(e)
		if e != "" {
			l.emails[e] = struct{}{}
		}
	}
	return l
}

func (l *AllowList) IsAuthorized(email string) bool {
	if l == nil {
		return false
	}
	email = normalizeEmail(email)
	if email == "" {
		return false
	}
	_, ok := l.emails[email]
	return ok
}

func (l *AllowList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.emails)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
