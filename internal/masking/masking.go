// Package masking keeps secrets out of prompts, audit logs, and anything
// else that leaves the process: one function masks sensitive key/value
// pairs for display, a separate function strips shell metacharacters
// before content is handed to a subprocess. These are deliberately kept
// as two distinct operations — masking hides a value, sanitizing
// neutralizes it as a command-injection vector — grounded on the
// original implementation's SecurityValidator, which keeps them as two
// methods rather than one.
package masking

import (
	"regexp"
	"strings"
)

// DefaultSensitiveKeywords is the default set of key names whose values
// get masked. Callers may supply their own set via MaskWithKeywords.
var DefaultSensitiveKeywords = []string{
	"password", "api_key", "secret", "token", "credential",
	"private_key", "access_key", "auth_token",
}

const masked = "***MASKED***"

// Mask replaces the value half of KEY=VALUE, KEY: VALUE, and "KEY":
// "VALUE" occurrences for every keyword in DefaultSensitiveKeywords.
func Mask(text string) string {
	return MaskWithKeywords(text, DefaultSensitiveKeywords)
}

// MaskWithKeywords is Mask parameterized over the keyword list, for
// config-driven sensitive_patterns.
func MaskWithKeywords(text string, keywords []string) string {
	out := text
	for _, kw := range keywords {
		kw = regexp.QuoteMeta(kw)
		plain := regexp.MustCompile(`(?i)(` + kw + `\s*[=:]\s*)["']?([^"'\s\n]+)["']?`)
		out = plain.ReplaceAllString(out, "${1}"+masked)
		quotedJSON := regexp.MustCompile(`(?i)("` + kw + `"\s*:\s*)"([^"]+)"`)
		out = quotedJSON.ReplaceAllString(out, "${1}\""+masked+"\"")
	}
	return out
}

// shellMeta matches the shell metacharacters that must never reach a
// subprocess unescaped: backticks, $, ${, ;, &&, ||, |, >, <, and
// newlines.
var shellMeta = regexp.MustCompile("&&|[`$;|<>\n]")

// SanitizeForSubprocess strips shell metacharacters from content before
// it is written to a subprocess's stdin or passed as an argument. This is
// injection defense, not masking — it runs in addition to, not instead
// of, Mask.
func SanitizeForSubprocess(text string) string {
	return shellMeta.ReplaceAllString(text, "")
}

// LooksSanitized reports whether text contains none of the blocked shell
// metacharacters, useful for tests and defensive assertions before a
// subprocess call.
func LooksSanitized(text string) bool {
	return !shellMeta.MatchString(text) && !strings.Contains(text, "&&")
}
