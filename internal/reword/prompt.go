package reword

import (
	"fmt"
	"strings"

	"github.com/dshills/reword/internal/config"
)

const systemPromptBase = `You are an expert at writing git commit messages. Given a commit's diff and its current message, write an improved commit message that accurately describes the change.

Rules:
1. Use the imperative mood in the subject line ("Add feature", not "Added feature").
2. Keep the subject line at or under 72 characters.
3. Describe WHAT changed and WHY, based only on the diff. Never invent changes that are not in the diff.
4. Do not mention file names unless they are essential to understanding the change.
5. Keep anything genuinely useful from the original message, such as issue references.`

// SystemPrompt returns the system prompt for the given style.
func SystemPrompt(style config.StyleConfig) string {
	var b strings.Builder
	b.WriteString(systemPromptBase)

	if style.Description {
		b.WriteString("\n6. After the subject line, add a blank line and a short body explaining the motivation when the change is non-trivial.")
	} else {
		b.WriteString("\n6. Respond with the subject line only. No body.")
	}
	if style.Emoji {
		b.WriteString("\n7. Prefix the subject line with a single fitting gitmoji.")
	}
	if style.Language != "" && style.Language != "en" {
		fmt.Fprintf(&b, "\nWrite the message in the language with ISO 639-1 code %q.", style.Language)
	}

	b.WriteString("\n\nRespond with ONLY the commit message text. No markdown fences, no quotes, no preamble, no explanation.")
	return b.String()
}

// BuildUserPrompt constructs the user prompt from one commit's diff and its
// current message.
func BuildUserPrompt(diff, original string) string {
	var b strings.Builder

	b.WriteString("Write an improved commit message for the following change.\n\n")
	fmt.Fprintf(&b, "Current commit message:\n%s\n", original)
	b.WriteString("\n--- BEGIN DIFF ---\n")
	b.WriteString(diff)
	b.WriteString("\n--- END DIFF ---\n")

	return b.String()
}
