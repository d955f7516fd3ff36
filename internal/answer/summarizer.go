package answer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/devdocsai/devdocs/internal/vectorstore"
)

// questionKind shapes the extractive answer.
type questionKind int

const (
	kindGeneral questionKind = iota
	kindInformational
	kindList
	kindComparison
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "that": {}, "the": {}, "to": {}, "was": {}, "will": {}, "with": {},
	"i": {}, "you": {}, "your": {}, "we": {}, "they": {}, "them": {}, "this": {},
	"these": {}, "those": {}, "but": {}, "or": {}, "if": {}, "then": {}, "else": {},
	"when": {}, "where": {}, "why": {}, "how": {}, "all": {}, "any": {}, "both": {},
	"each": {}, "few": {}, "more": {}, "most": {}, "other": {}, "some": {}, "such": {},
	"no": {}, "nor": {}, "not": {}, "only": {}, "own": {}, "same": {}, "so": {},
	"than": {}, "too": {}, "very": {}, "can": {}, "just": {}, "should": {}, "now": {},
}

var (
	wordRe     = regexp.MustCompile(`[a-zA-Z]+`)
	sentenceRe = regexp.MustCompile(`[.!?]+`)
)

// Summarizer produces extractive answers without a generative model:
// it scores sentences by keyword overlap with the question and
// assembles a response shaped by the question kind.
type Summarizer struct {
	titleCaser cases.Caser
}

// NewSummarizer creates a Summarizer.
func NewSummarizer() *Summarizer {
	return &Summarizer{titleCaser: cases.Title(language.English)}
}

// Summarize builds an answer for the question from the combined chunk
// text.
func (s *Summarizer) Summarize(docContext, question string, matches []vectorstore.Match) string {
	var b strings.Builder

	switch classify(question) {
	case kindInformational:
		sentences := relevantSentences(docContext, question, 3)
		if len(sentences) > 0 {
			b.WriteString("Based on the documentation, here's what I found:\n\n")
			for i, sentence := range sentences {
				fmt.Fprintf(&b, "%d. %s\n\n", i+1, sentence)
			}
		} else {
			fmt.Fprintf(&b, "I found %d relevant sections in the documentation, but couldn't extract specific information to answer your question. Here are the key sections:\n\n", len(matches))
			writePreviews(&b, matches, 3, 150)
		}

	case kindList:
		sentences := relevantSentences(docContext, question, 6)
		b.WriteString("Based on the documentation, here are the key points:\n\n")
		if len(sentences) > 0 {
			for i, sentence := range sentences {
				fmt.Fprintf(&b, "%d. %s\n", i+1, sentence)
			}
		} else {
			for i, keyword := range keywords(docContext, 8) {
				fmt.Fprintf(&b, "%d. %s\n", i+1, s.titleCaser.String(keyword))
			}
		}
		fmt.Fprintf(&b, "\nI found %d relevant sections with detailed information about these topics.", len(matches))

	case kindComparison:
		sentences := relevantSentences(docContext, question, 4)
		if len(sentences) > 0 {
			b.WriteString("Based on the documentation, here's the comparison information I found:\n\n")
			for i, sentence := range sentences {
				fmt.Fprintf(&b, "%d. %s\n\n", i+1, sentence)
			}
		} else {
			fmt.Fprintf(&b, "I found %d relevant sections that might contain comparison information. Here are the key sections:\n\n", len(matches))
			writePreviews(&b, matches, 3, 200)
		}

	default:
		fmt.Fprintf(&b, "Based on the documentation, I found %d relevant sections. Here's a comprehensive overview:\n\n", len(matches))
		for i, m := range matches {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "**Section %d** (Relevance: %.2f):\n%s\n\n", i+1, m.Score, preview(m.Content, 250))
		}
	}

	b.WriteString("\n---\n*This response was generated using semantic search and intelligent text analysis. For more detailed information, please review the specific sections in the documentation.*")
	return b.String()
}

func classify(question string) questionKind {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, "list", "what are", "name", "examples", "features"):
		return kindList
	case containsAny(q, "compare", "difference", "versus"):
		return kindComparison
	case containsAny(q, "what", "how", "why", "when", "where"):
		return kindInformational
	default:
		return kindGeneral
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// keywords returns the topK most frequent non-stopword terms, most
// frequent first, alphabetical within the same frequency.
func keywords(text string, topK int) []string {
	freq := make(map[string]int)
	for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		freq[word]++
	}

	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > topK {
		words = words[:topK]
	}
	return words
}

// relevantSentences returns up to max sentences scored by keyword
// overlap with the question, in their original order of appearance.
// Sentences with no overlap are dropped.
func relevantSentences(text, question string, max int) []string {
	questionKeywords := make(map[string]struct{})
	for _, w := range keywords(question, 20) {
		questionKeywords[w] = struct{}{}
	}

	var sentences []string
	for _, s := range sentenceRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}

	type scored struct {
		sentence string
		index    int
		score    int
	}
	var ranked []scored
	for i, sentence := range sentences {
		score := 0
		for _, w := range keywords(sentence, 20) {
			if _, ok := questionKeywords[w]; ok {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{sentence, i, score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].index < ranked[j].index })

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.sentence
	}
	return out
}

func writePreviews(b *strings.Builder, matches []vectorstore.Match, limit, width int) {
	for i, m := range matches {
		if i == limit {
			break
		}
		fmt.Fprintf(b, "%d. %s...\n\n", i+1, preview(m.Content, width))
	}
}

func preview(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width])
}
