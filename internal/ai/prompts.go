package ai

import (
	"fmt"
	"strings"
)

// minAbstractLength is the shortest abstract worth summarizing. Below this
// the entry is usually a bare table-of-contents line, so only the title is
// translated.
const minAbstractLength = 50

const translateSystemPromptTmpl = `You are an academic translator specializing in human geography and urban studies. Translate the given journal article title and abstract into %s, keeping discipline-specific terminology precise. Then write a 2-3 sentence summary in %s covering the research question, method, and main finding. Respond with exactly three sections, each starting on its own line with the section marker:
[TITLE]
the translated title
[ABSTRACT]
the translated abstract
[SUMMARY]
the summary
Do not add anything outside these sections.`

const translateTitleOnlySystemPromptTmpl = `You are an academic translator specializing in human geography and urban studies. Translate the given journal article title into %s, keeping discipline-specific terminology precise. Respond with exactly one section:
[TITLE]
the translated title
Do not add anything outside this section.`

// TranslatePrompt builds the system and user prompts for the
// translate-and-summarize operation. When the abstract is too short to
// summarize, it falls back to a title-only prompt.
func TranslatePrompt(targetLanguage, title, abstract string) (systemPrompt string, userPrompt string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", title)

	if len(strings.TrimSpace(abstract)) < minAbstractLength {
		systemPrompt = fmt.Sprintf(translateTitleOnlySystemPromptTmpl, targetLanguage)
		return systemPrompt, b.String()
	}

	systemPrompt = fmt.Sprintf(translateSystemPromptTmpl, targetLanguage, targetLanguage)
	b.WriteString("Abstract:\n")
	b.WriteString(abstract)
	return systemPrompt, b.String()
}

// ParseTranslation extracts the [TITLE], [ABSTRACT] and [SUMMARY] sections
// from an LLM response. A response with no recognizable [TITLE] section is
// an error; missing abstract or summary sections simply come back empty,
// which covers the title-only path.
func ParseTranslation(text string) (Translation, error) {
	sections := splitSections(text)

	title, ok := sections["TITLE"]
	if !ok || title == "" {
		return Translation{}, fmt.Errorf("response has no [TITLE] section: %q", truncate(text, 120))
	}

	return Translation{
		Title:    title,
		Abstract: sections["ABSTRACT"],
		Summary:  sections["SUMMARY"],
	}, nil
}

// splitSections parses "[NAME]\ncontent" blocks into a map. Content runs
// until the next section marker or end of input.
func splitSections(text string) map[string]string {
	sections := make(map[string]string)

	var current string
	var content []string
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(content, "\n"))
		}
		content = content[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") && len(trimmed) > 2 {
			flush()
			current = strings.ToUpper(trimmed[1 : len(trimmed)-1])
			continue
		}
		if current != "" {
			content = append(content, line)
		}
	}
	flush()

	return sections
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
