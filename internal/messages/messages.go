// Package messages renders user-facing text in Thai or English.
//
// Keys are the English format strings declared in catalog.go; Thai
// translations live next to them.
package messages

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLanguage is used when no language, or an unsupported one, is configured.
const DefaultLanguage = "th"

var (
	cat     = newCatalog()
	matcher = language.NewMatcher([]language.Tag{language.Thai, language.English})
)

// Printer formats messages in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// For returns a Printer for lang ("th", "en", or any BCP 47 tag that
// matches one of them). Anything else falls back to Thai.
func For(lang string) *Printer {
	tag := language.Thai
	if lang != "" {
		if t, err := language.Parse(lang); err == nil {
			if _, idx, conf := matcher.Match(t); conf != language.No && idx == 1 {
				tag = language.English
			}
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Supported reports whether lang selects a catalog language.
func Supported(lang string) bool {
	t, err := language.Parse(lang)
	if err != nil {
		return false
	}
	_, _, conf := matcher.Match(t)
	return conf != language.No
}

// Language returns the base language code, "th" or "en".
func (p *Printer) Language() string {
	base, _ := p.tag.Base()
	return base.String()
}

// Sprintf formats the message key with args.
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// Fields renders field names (date, time, title) as a localized list.
func (p *Printer) Fields(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = p.p.Sprintf(n)
	}
	return strings.Join(out, ", ")
}

// Usage returns the how-to text for the four supported commands.
func (p *Printer) Usage() string {
	sections := [][2]string{
		{HelpAddTitle, HelpAddBody},
		{HelpDeleteTitle, HelpDeleteBody},
		{HelpUpdateTitle, HelpUpdateBody},
		{HelpViewTitle, HelpViewBody},
	}

	var b strings.Builder
	b.WriteString(p.p.Sprintf(HelpIntro))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n## ")
		b.WriteString(p.p.Sprintf(s[0]))
		b.WriteString("\n")
		b.WriteString(p.p.Sprintf(s[1]))
		b.WriteString("\n")
	}
	return b.String()
}
