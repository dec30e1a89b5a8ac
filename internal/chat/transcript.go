// ABOUTME: Transcript export: renders the conversation log as an HTML page.
// ABOUTME: Assistant markdown goes through goldmark; user text is escaped verbatim.

package chat

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
)

const transcriptHeader = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Conversation transcript</title></head>
<body>
`

const transcriptFooter = `</body>
</html>
`

// WriteTranscriptHTML renders the message log as a standalone HTML page.
// Assistant replies are treated as markdown; user turns are escaped and
// kept verbatim.
func WriteTranscriptHTML(w io.Writer, msgs []Message) error {
	if _, err := io.WriteString(w, transcriptHeader); err != nil {
		return err
	}

	for _, msg := range msgs {
		text := msg.Text()
		if text == "" {
			continue
		}
		fmt.Fprintf(w, "<h3>%s</h3>\n", html.EscapeString(string(msg.Role)))

		if msg.Role == RoleAssistant {
			var rendered bytes.Buffer
			if err := goldmark.Convert([]byte(text), &rendered); err != nil {
				return fmt.Errorf("rendering markdown: %w", err)
			}
			if _, err := w.Write(rendered.Bytes()); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "<p>%s</p>\n", html.EscapeString(text))
	}

	_, err := io.WriteString(w, transcriptFooter)
	return err
}
