package util

import (
	"math/rand"
	"strings"
)

const (
	// ShortIDLength длина короткого идентификатора.
	ShortIDLength = 7
	// ShortIDAlphabet символы, из которых собирается идентификатор.
	ShortIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ$@"
)

// GenerateShortID создаёт новый короткий идентификатор.
// Уникальность не проверяется: конфликт обнаруживает хранилище.
func GenerateShortID() string {
	var b strings.Builder
	b.Grow(ShortIDLength)
	for i := 0; i < ShortIDLength; i++ {
		b.WriteByte(ShortIDAlphabet[rand.Intn(len(ShortIDAlphabet))])
	}
	return b.String()
}

// IsShortID проверяет, что s похож на идентификатор, выданный GenerateShortID.
func IsShortID(s string) bool {
	if len(s) != ShortIDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(ShortIDAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

// NormalizeDestination добавляет https:// к адресу без явной схемы http или https.
// Преобразование чисто текстовое, адрес не валидируется.
func NormalizeDestination(longURL string) string {
	lower := strings.ToLower(longURL)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return longURL
	}
	return "https://" + longURL
}
