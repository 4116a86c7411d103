package i18n_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/i18n"
	"github.com/malthe/chameleon-sub000/packages/compiler/src/runtime"
)

const po = `# German messages
msgid ""
msgstr ""
"Language: de\n"

#: page.pt:3
msgid "Hello ${who}!"
msgstr "Hallo ${who}!"

#, fuzzy
msgid "Draft"
msgstr "Entwurf"

msgctxt "menu"
msgid "File"
msgstr "Datei"

msgid "Long"
msgstr ""
"Lang"
"er"

msgid "One"
msgid_plural "Many"
msgstr[0] "Eins"
msgstr[1] "Viele"
`

func TestCatalog_ParsePO(t *testing.T) {
	catalog := i18n.NewCatalog(nil)
	if err := catalog.ParsePO(strings.NewReader(po), "site", "de"); err != nil {
		t.Fatalf("ParsePO() unexpected error: %v", err)
	}

	t.Run("should skip the header, fuzzy and context entries", func(t *testing.T) {
		if diff := cmp.Diff(3, catalog.Len()); diff != "" {
			t.Errorf("Len() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should look up messages with language fallback", func(t *testing.T) {
		var result []string
		for _, msgid := range []string{"Hello ${who}!", "Long", "One", "Draft", "File"} {
			result = append(result, catalog.Translate(msgid, "site", nil, "de_AT", ""))
		}
		expected := []string{"Hallo ${who}!", "Langer", "Eins", "", ""}
		if diff := cmp.Diff(expected, result); diff != "" {
			t.Errorf("Translate() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("should keep domains apart", func(t *testing.T) {
		if got := catalog.Translate("Long", "other", nil, "de", ""); got != "" {
			t.Errorf("Translate() = %q, want no translation", got)
		}
	})

	t.Run("should serve as a translation hook", func(t *testing.T) {
		result, err := runtime.SafeTranslate(catalog.Translate, "Hello ${who}!", "site",
			map[string]string{"who": "Ann"}, "de", "")
		if err != nil {
			t.Fatalf("SafeTranslate() unexpected error: %v", err)
		}
		if diff := cmp.Diff("Hallo Ann!", result); diff != "" {
			t.Errorf("SafeTranslate() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestCatalog_ParsePOErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"should reject unknown keywords", "msgid \"a\"\nmsgtext \"b\"\n"},
		{"should reject unquoted strings", "msgid a\n"},
		{"should reject stray continuations", "\"dangling\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := i18n.NewCatalog(nil).ParsePO(strings.NewReader(tc.source), "d", "de"); err == nil {
				t.Errorf("ParsePO() expected an error")
			}
		})
	}
}

func TestDigest(t *testing.T) {
	t.Run("should separate parts", func(t *testing.T) {
		if i18n.Digest("ab", "c") == i18n.Digest("a", "bc") {
			t.Errorf("Digest() collides on shifted parts")
		}
	})

	t.Run("should hash with SHA1", func(t *testing.T) {
		if diff := cmp.Diff("a9993e364706816aba3e25717850c26c9cd0d89d", i18n.SHA1("abc")); diff != "" {
			t.Errorf("SHA1() mismatch (-want +got):\n%s", diff)
		}
	})
}
