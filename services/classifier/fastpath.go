package classifier

import (
	"regexp"
	"strings"

	"github.com/lokario/backoffice/internal/models"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
var domainPattern = regexp.MustCompile(`@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// senderPatternRe captures the explicit sender forms tenants write in their
// folder rules: "expéditeur contenant X", "from: X", "de X", "sender=X".
var senderPatternRe = regexp.MustCompile(`(?i)(?:exp[ée]diteur\s+contenant\s+|from\s*:\s*|sender\s*=\s*|\bde\s+)([^\s,;:]+)`)

// stopwords are dropped when extracting keywords from folder rules, so that
// connective words never match a sender.
var stopwords = map[string]bool{
	// French
	"le": true, "la": true, "les": true, "un": true, "une": true, "des": true,
	"de": true, "du": true, "et": true, "ou": true, "pour": true, "dans": true,
	"avec": true, "sur": true, "par": true, "est": true, "sont": true,
	"tous": true, "tout": true, "toutes": true, "ce": true, "cette": true,
	"ces": true, "qui": true, "que": true, "dont": true, "aux": true,
	"mails": true, "emails": true, "messages": true, "classer": true,
	"dossier": true, "mettre": true, "ici": true,
	"expéditeur": true, "expediteur": true, "contenant": true,
	// English
	"the": true, "a": true, "an": true, "of": true, "and": true, "or": true,
	"for": true, "in": true, "with": true, "on": true, "by": true, "is": true,
	"are": true, "all": true, "this": true, "that": true, "to": true,
	"from": true, "put": true, "here": true, "folder": true, "mail": true,
	"email": true, "message": true, "sender": true,
}

// senderRules holds the deterministic part of a folder's classification
// rule: exact sender addresses, sender domains, and keywords matched against
// the sender, all lifted from the context.
type senderRules struct {
	addresses map[string]bool
	domains   map[string]bool
	keywords  []string
}

// extractRules parses a folder's free-text classification context into
// matchable sender rules.
func extractRules(folder *models.InboxFolder) senderRules {
	rules := senderRules{
		addresses: make(map[string]bool),
		domains:   make(map[string]bool),
	}
	text := folder.AIRules.Context

	for _, address := range emailPattern.FindAllString(text, -1) {
		rules.addresses[strings.ToLower(address)] = true
	}
	for _, domain := range domainPattern.FindAllString(text, -1) {
		rules.domains[strings.ToLower(strings.TrimPrefix(domain, "@"))] = true
	}

	seen := make(map[string]bool)
	// Explicit sender patterns first; their captures count even when the
	// word is short or a stopword.
	for _, match := range senderPatternRe.FindAllStringSubmatch(text, -1) {
		word := strings.ToLower(strings.Trim(match[1], ".,;:!?\"'()"))
		if word == "" || emailPattern.MatchString(word) || seen[word] {
			continue
		}
		seen[word] = true
		rules.keywords = append(rules.keywords, word)
	}

	cleaned := emailPattern.ReplaceAllString(text, " ")
	for _, word := range strings.Fields(strings.ToLower(cleaned)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) < 3 || stopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		rules.keywords = append(rules.keywords, word)
	}
	return rules
}

// matchesSender reports whether the sender hits one of the folder's rules:
// exact address, domain, or any keyword contained in the sender email or
// display name, both lowercased.
func (r senderRules) matchesSender(senderEmail, senderName string) bool {
	email := strings.ToLower(strings.TrimSpace(senderEmail))
	name := strings.ToLower(strings.TrimSpace(senderName))
	if email == "" && name == "" {
		return false
	}

	if r.addresses[email] {
		return true
	}
	if at := strings.LastIndex(email, "@"); at >= 0 && r.domains[email[at+1:]] {
		return true
	}
	for _, keyword := range r.keywords {
		if email != "" && strings.Contains(email, keyword) {
			return true
		}
		if name != "" && strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}
