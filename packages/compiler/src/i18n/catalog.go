package i18n

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/malthe/chameleon-sub000/packages/compiler/src/util"
)

// Catalog holds translated messages by domain and language. Its Translate
// method is a runtime.TranslateFunc. A Catalog is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	messages map[string]string
	console  util.Console
}

// NewCatalog creates a new empty Catalog. A nil console discards messages.
func NewCatalog(console util.Console) *Catalog {
	if console == nil {
		console = util.NopConsole{}
	}
	return &Catalog{messages: map[string]string{}, console: console}
}

// Add registers the translation of msgid
func (c *Catalog) Add(domain, language, msgid, msgstr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[MessageKey(domain, language, msgid)] = msgstr
}

// Len returns the number of registered messages
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// Translate looks msgid up for the target language, then for its base
// language ("de" for "de_AT"). It returns "" when there is no translation,
// which makes the caller fall back to the default text.
func (c *Catalog) Translate(msgid, domain string, mapping map[string]string, targetLanguage, def string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, language := range fallbackLanguages(targetLanguage) {
		if msgstr, ok := c.messages[MessageKey(domain, language, msgid)]; ok {
			return msgstr
		}
	}
	return ""
}

func fallbackLanguages(language string) []string {
	if i := strings.IndexAny(language, "_-"); i > 0 {
		return []string{language, language[:i]}
	}
	return []string{language}
}

// poEntry is a message being read from a PO file
type poEntry struct {
	context  *string
	msgid    *string
	msgstr   *string
	fuzzy    bool
	complete bool
}

// ParsePO reads messages in the gettext PO format and registers them for
// domain and language. Fuzzy entries, the header and entries with a message
// context are skipped; of plural forms only the first is kept.
func (c *Catalog) ParsePO(r io.Reader, domain, language string) error {
	var (
		entry   poEntry
		field   *string
		sink    string
		lineNo  int
		added   int
		scanner = bufio.NewScanner(r)
	)
	flush := func() {
		if entry.msgid != nil && entry.msgstr != nil && *entry.msgid != "" && *entry.msgstr != "" &&
			!entry.fuzzy && entry.context == nil {
			c.Add(domain, language, *entry.msgid, *entry.msgstr)
			added++
		}
		entry = poEntry{}
		field = nil
	}
	start := func(target **string) *string {
		if entry.complete {
			flush()
		}
		value := ""
		*target = &value
		return &value
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
			continue
		case strings.HasPrefix(line, "#"):
			if entry.complete {
				flush()
			}
			if strings.HasPrefix(line, "#,") && strings.Contains(line, "fuzzy") {
				entry.fuzzy = true
			}
			continue
		}

		keyword, rest, _ := strings.Cut(line, " ")
		if strings.HasPrefix(line, `"`) {
			keyword, rest = "", line
		}
		switch {
		case keyword == "":
			if field == nil {
				return fmt.Errorf("line %d: continuation without a keyword", lineNo)
			}
		case keyword == "msgctxt":
			field = start(&entry.context)
		case keyword == "msgid":
			if entry.complete || entry.msgid != nil {
				flush()
			}
			field = start(&entry.msgid)
		case keyword == "msgid_plural":
			sink, field = "", &sink
		case keyword == "msgstr" || keyword == "msgstr[0]":
			field = start(&entry.msgstr)
			entry.complete = true
		case strings.HasPrefix(keyword, "msgstr["):
			sink, field = "", &sink
		default:
			return fmt.Errorf("line %d: unexpected keyword %q", lineNo, keyword)
		}

		value, err := strconv.Unquote(strings.TrimSpace(rest))
		if err != nil {
			return fmt.Errorf("line %d: invalid string %s: %w", lineNo, rest, err)
		}
		*field += value
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	flush()
	c.console.Log(fmt.Sprintf("loaded %d messages for domain %q, language %q", added, domain, language))
	return nil
}
