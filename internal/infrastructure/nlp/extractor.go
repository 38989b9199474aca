package nlp

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	prose "github.com/jdkato/prose/v2"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/budgetbot/backend/internal/core/domain"
)

// Extractor derives retrieval filters (date range, keywords) from free-text
// questions. It is safe for concurrent use and never fails: anything it
// cannot understand contributes nothing to the filter set.
type Extractor struct {
	dates *when.Parser
}

func NewExtractor() *Extractor {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)
	return &Extractor{dates: parser}
}

func (e *Extractor) Extract(query, userID string) domain.FilterSet {
	filters := domain.FilterSet{UserID: userID}
	lowered := strings.ToLower(query)

	if start, end, ok := e.dateRange(lowered); ok {
		filters.StartDate = start
		filters.EndDate = end
	}
	if keywords := extractKeywords(lowered); len(keywords) > 0 {
		filters.Keywords = keywords
	}
	return filters
}

type dateEntity struct {
	pos  int
	end  int
	when time.Time
}

var explicitDate = regexp.MustCompile(
	`\d{4}-\d{1,2}-\d{1,2}` +
		`|\d{1,2}/\d{1,2}/\d{2,4}` +
		`|(?:january|february|march|april|may|june|july|august|september|october|november|december)(?:\s+\d{1,2}(?:st|nd|rd|th)?)?(?:,?\s+\d{4})?`,
)

// dateRange collects date entities in order of appearance: the first parsed
// entity opens the range, the second closes it, otherwise end defaults to
// start. Unparseable date text yields no range.
func (e *Extractor) dateRange(text string) (string, string, bool) {
	entities := e.dateEntities(text)
	if len(entities) == 0 {
		return "", "", false
	}

	start := entities[0].when
	end := start
	if len(entities) > 1 {
		end = entities[1].when
	}
	return start.Format("2006-01-02"), end.Format("2006-01-02"), true
}

func (e *Extractor) dateEntities(text string) []dateEntity {
	var entities []dateEntity

	for _, loc := range explicitDate.FindAllStringIndex(text, -1) {
		parsed, err := dateparse.ParseAny(text[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		entities = append(entities, dateEntity{pos: loc[0], end: loc[1], when: parsed})
	}

	// Natural-language phrases ("last month", "yesterday"). The parser
	// returns one hit per pass, so rescan the remainder after each match.
	offset := 0
	remaining := text
	for i := 0; i < 4; i++ {
		result, err := e.dates.Parse(remaining, time.Now())
		if err != nil || result == nil {
			break
		}
		pos := offset + result.Index
		if !overlaps(entities, pos, pos+len(result.Text)) {
			entities = append(entities, dateEntity{pos: pos, end: pos + len(result.Text), when: result.Time})
		}
		cut := result.Index + len(result.Text)
		if cut >= len(remaining) {
			break
		}
		offset += cut
		remaining = remaining[cut:]
	}

	sort.Slice(entities, func(i, j int) bool { return entities[i].pos < entities[j].pos })
	return entities
}

func overlaps(entities []dateEntity, start, end int) bool {
	for _, ent := range entities {
		if start < ent.end && end > ent.pos {
			return true
		}
	}
	return false
}

// extractKeywords keeps noun and proper-noun tokens that are not stopwords.
// Duplicates pass through unfiltered.
func extractKeywords(text string) []string {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return nil
	}

	var keywords []string
	for _, token := range doc.Tokens() {
		switch token.Tag {
		case "NN", "NNS", "NNP", "NNPS":
			word := strings.ToLower(token.Text)
			if !stopwords[word] && isWord(word) {
				keywords = append(keywords, word)
			}
		}
	}
	return keywords
}

func isWord(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && r != '-' && r != '\'' {
			return false
		}
	}
	return s != ""
}

var stopwords = map[string]bool{
	"a": true, "about": true, "all": true, "an": true, "and": true,
	"any": true, "anyone": true, "anything": true, "are": true, "as": true,
	"at": true, "be": true, "been": true, "bit": true, "by": true,
	"can": true, "did": true, "do": true, "does": true, "for": true,
	"from": true, "had": true, "has": true, "have": true, "how": true,
	"i": true, "if": true, "in": true, "is": true, "it": true,
	"lot": true, "lots": true, "me": true, "much": true, "my": true,
	"of": true, "on": true, "one": true, "or": true, "so": true,
	"some": true, "something": true, "that": true, "the": true, "thing": true,
	"things": true, "this": true, "to": true, "was": true, "way": true,
	"ways": true, "what": true, "when": true, "where": true, "which": true,
	"who": true, "why": true, "with": true, "you": true,
}
