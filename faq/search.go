package faq

import (
	"sort"
	"strings"

	"lengolf/database"
	"lengolf/model"
)

// Search returns active entries matching q, exact question matches first,
// then keyword and question-substring matches in display order. Matching is
// case-insensitive; lang narrows to one language when set.
func Search(db database.DBTX, q, lang string) ([]model.FAQEntry, error) {
	entries, err := database.GetActiveFAQs(db, lang)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(q))
	if needle == "" {
		return entries, nil
	}

	type ranked struct {
		entry model.FAQEntry
		exact bool
		order int
	}
	var matches []ranked
	for i, e := range entries {
		question := strings.ToLower(e.Question)
		switch {
		case question == needle:
			matches = append(matches, ranked{e, true, i})
		case strings.Contains(question, needle) || keywordMatch(e.Keywords, needle):
			matches = append(matches, ranked{e, false, i})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		return matches[i].order < matches[j].order
	})

	results := make([]model.FAQEntry, 0, len(matches))
	for _, m := range matches {
		results = append(results, m.entry)
	}
	return results, nil
}

func keywordMatch(keywords, needle string) bool {
	for _, kw := range strings.Split(keywords, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(kw, needle) || strings.Contains(needle, kw) {
			return true
		}
	}
	return false
}
