package generator

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/tbourn/daily-tiers/internal/domain"
)

// Requested lengths in characters. They sit above the validator minimums so
// a slightly short answer still passes review.
const (
	targetShort  = 400
	targetMedium = 1200
	targetLong   = 2000
)

const systemInstruction = "You are a well-read friend who shares the ideas of books in warm, natural, " +
	"plain language. Avoid academic stiffness and never sound like an assistant."

// languageName renders a BCP 47 tag as an English language name for the
// prompt, falling back to the raw tag.
func languageName(tag string) string {
	t, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return tag
	}
	if name := display.English.Languages().Name(t); name != "" {
		return name
	}
	return tag
}

// BuildPrompt composes the single user prompt for item.
func BuildPrompt(item domain.Item, lang string) string {
	var b strings.Builder

	title := item.PrimaryTitle
	if item.SecondaryTitle != "" {
		title = fmt.Sprintf("%s (%s)", item.PrimaryTitle, item.SecondaryTitle)
	}
	fmt.Fprintf(&b, "Write three summaries of the book %s", title)
	if item.Author != "" {
		fmt.Fprintf(&b, " by %s", item.Author)
	}
	fmt.Fprintf(&b, ". Write all three in %s.\n\n", languageName(lang))

	fmt.Fprintf(&b, "tier_short (a 3-minute read, at least %d characters):\n", targetShort)
	b.WriteString("- 3 to 4 tight paragraphs on the single idea that matters most.\n")
	b.WriteString("- End with a \"Signature quote\" section: one memorable line from the book and one sentence on why it lands.\n\n")

	fmt.Fprintf(&b, "tier_medium (a 10-minute read, at least %d characters):\n", targetMedium)
	b.WriteString("- 6 to 8 core ideas, each explained with a concrete everyday example.\n")
	b.WriteString("- End with a \"Reflection prompts\" section of 3 to 4 specific questions that connect the ideas to the reader's life.\n\n")

	fmt.Fprintf(&b, "tier_long (a 30-minute read, at least %d characters):\n", targetLong)
	b.WriteString("- The book's structure, its central arguments and how the author supports them.\n")
	b.WriteString("- Connections to at least four other fields such as psychology, history, economics or philosophy.\n")
	b.WriteString("- 6 to 8 practical applications at work, in relationships and in decisions.\n")
	b.WriteString("- End with a \"Reflection prompts\" section of 4 to 5 deeper questions.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Speak directly about the book. Do not describe what you are doing, do not say \"this summary\" or \"as an AI\", and do not add notes about length.\n")
	b.WriteString("- The three tiers must be entirely different texts with clearly different depth.\n")
	b.WriteString("- Respond with a bare JSON object and nothing else: no markdown, no code fences, no commentary.\n")
	b.WriteString("- The object has exactly three string fields: \"tier_short\", \"tier_medium\", \"tier_long\".\n")
	return b.String()
}
