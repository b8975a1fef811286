package utils

import (
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateNanoIDWithPrefix builds ids like "conv_x1y2z3...".
func GenerateNanoIDWithPrefix(prefix string, length int) string {
	id, err := gonanoid.Generate(idAlphabet, length)
	if err != nil {
		panic(err)
	}
	return prefix + "_" + id
}

// GenerateNumericCode builds short human-readable codes like "482913".
func GenerateNumericCode(length int) string {
	code, err := gonanoid.Generate("0123456789", length)
	if err != nil {
		panic(err)
	}
	return code
}

func Now() time.Time {
	return time.Now().UTC()
}

func NowPtr() *time.Time {
	now := Now()
	return &now
}
