package runtime

import (
	"regexp"
)

// TranslateFunc is the host translation hook. It receives the message id, the
// domain, the mapping of named sub-blocks, the target language and the
// default text, and returns the translated message.
type TranslateFunc func(msgid, domain string, mapping map[string]string, targetLanguage, def string) string

var placeholderRegexp = regexp.MustCompile(`\$\{([^}]*)\}`)

// Interpolate replaces `${name}` placeholders with values from mapping.
// Unknown names are left as they are.
func Interpolate(s string, mapping map[string]string) string {
	if len(mapping) == 0 {
		return s
	}
	return placeholderRegexp.ReplaceAllStringFunc(s, func(m string) string {
		if value, ok := mapping[m[2:len(m)-1]]; ok {
			return value
		}
		return m
	})
}

// SafeTranslate calls translate without letting a panic escape. An empty or
// failed translation falls back to the default text (or the message id when
// there is no default), and the result is interpolated with mapping.
func SafeTranslate(translate TranslateFunc, msgid, domain string, mapping map[string]string, targetLanguage, def string) (result string, err error) {
	if def == "" {
		def = msgid
	}
	if translate != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = &TranslateError{MsgID: msgid, Value: r}
					result = ""
				}
			}()
			result = translate(msgid, domain, mapping, targetLanguage, def)
		}()
	}
	if result == "" {
		result = def
	}
	return Interpolate(result, mapping), err
}
