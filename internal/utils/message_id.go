package utils

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NormalizeMessageID strips angle brackets and lowercases a Message-ID so it
// can serve as a stable dedup key.
func NormalizeMessageID(messageID string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(messageID), "<>"))
}

// GenerateMessageID creates an RFC 5322 message id for outbound mail.
func GenerateMessageID(domain string) string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		panic(err)
	}
	if domain == "" {
		domain = "lokario.fr"
	}
	return fmt.Sprintf("<%d.%s@%s>", time.Now().UnixMicro(), id, domain)
}

// MessageFingerprint identifies a message without a Message-ID. The timestamp
// is floored to the minute so near-identical retransmissions collide.
func MessageFingerprint(sender, body string, sentAt time.Time) string {
	bodyHash := sha256.Sum256([]byte(body))
	raw := fmt.Sprintf("%s|%x|%d", strings.ToLower(sender), bodyHash, sentAt.Unix()/60)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", sum)
}
