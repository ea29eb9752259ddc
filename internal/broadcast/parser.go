package broadcast

import (
	"regexp"
	"strings"

	"github.com/artur/whyspent-bot/internal/i18n"
)

type DirectiveType string

const (
	TypePreview DirectiveType = "preview"
	TypeAll     DirectiveType = "all"
	TypeLang    DirectiveType = "lang"
)

// Directive is a parsed /broadcast command.
type Directive struct {
	Type     DirectiveType
	Language string
	Message  string
}

// Target is the selector string stored in the audit log.
func (d Directive) Target() string {
	if d.Type == TypeLang {
		return "lang:" + d.Language
	}
	return "all"
}

var commandPrefix = regexp.MustCompile(`^/broadcast(@\w+)?\s*`)

// Parse reads a broadcast directive. Recognized forms, tried in order:
//
//	preview:<msg>
//	all:<msg>
//	text:<msg>          alias of all
//	lang:<code>:<msg>   code must be a supported language
//
// The message may be empty; callers decide whether that is acceptable.
func Parse(text string) (Directive, bool) {
	content := strings.TrimSpace(commandPrefix.ReplaceAllString(text, ""))

	if rest, ok := strings.CutPrefix(content, "preview:"); ok {
		return Directive{Type: TypePreview, Message: strings.TrimSpace(rest)}, true
	}
	if rest, ok := strings.CutPrefix(content, "all:"); ok {
		return Directive{Type: TypeAll, Message: strings.TrimSpace(rest)}, true
	}
	if rest, ok := strings.CutPrefix(content, "text:"); ok {
		return Directive{Type: TypeAll, Message: strings.TrimSpace(rest)}, true
	}
	if rest, ok := strings.CutPrefix(content, "lang:"); ok {
		for _, code := range i18n.Supported() {
			if msg, ok := strings.CutPrefix(rest, code+":"); ok {
				return Directive{Type: TypeLang, Language: code, Message: strings.TrimSpace(msg)}, true
			}
		}
	}

	return Directive{}, false
}
