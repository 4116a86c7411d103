package i18n

import (
	"crypto/sha1"
	"fmt"
	"strings"
)

// SHA1 returns the hex encoded SHA1 sum of str
func SHA1(str string) string {
	hash := sha1.Sum([]byte(str))
	return fmt.Sprintf("%x", hash)
}

// Digest computes a key identifying the given parts. Parts are joined with a
// separator that cannot occur in template text, so ("ab", "c") and
// ("a", "bc") differ.
func Digest(parts ...string) string {
	return SHA1(strings.Join(parts, "\x00"))
}

// MessageKey returns the catalog key of a message
func MessageKey(domain, language, msgid string) string {
	return domain + "\x04" + language + "\x04" + msgid
}
