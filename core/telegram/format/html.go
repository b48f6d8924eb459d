package format

import "strings"

// htmlEscaper covers the characters Telegram requires escaped inside
// HTML parse mode text.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes user-provided text for embedding into an HTML
// parse mode message.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
