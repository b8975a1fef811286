package utils

import (
	"regexp"
	"strings"
)

var (
	subjectPrefixRe = regexp.MustCompile(`(?i)^((re|fwd|fw|tr|aw|sv|rép|réf)\s*(\[\d+\])?\s*:\s*)+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	nonDigitRe      = regexp.MustCompile(`\D`)
)

// NormalizeSubject strips reply/forward prefixes (Re:, Fwd:, TR:, "RE :", ...)
// and collapses whitespace so threads can be matched by subject.
func NormalizeSubject(subject string) string {
	normalized := subjectPrefixRe.ReplaceAllString(strings.TrimSpace(subject), "")
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// NormalizePhone keeps digits only so "+33 6 12 34 56 78" and "0612345678"
// compare equal on their tail.
func NormalizePhone(phone string) string {
	return nonDigitRe.ReplaceAllString(phone, "")
}

func IsStringInSlice(needle string, haystack []string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// LocalPart returns the part of an email address before the @, lowercased.
func LocalPart(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if idx := strings.Index(email, "@"); idx > 0 {
		return email[:idx]
	}
	return email
}

// ExtractDomainFromEmail returns the lowercased domain of an address,
// tolerating "Name <email@domain>" forms.
func ExtractDomainFromEmail(email string) string {
	email = strings.TrimSpace(email)
	if strings.Contains(email, "<") && strings.Contains(email, ">") {
		start := strings.LastIndex(email, "<") + 1
		end := strings.LastIndex(email, ">")
		if start > 0 && end > start {
			email = email[start:end]
		}
	}
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[1]))
}

// Truncate cuts a string to max runes, for LLM prompt snippets.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
