package services

import (
	"fmt"
	"regexp"
	"strings"

	"categorydesk/internal/models"
)

// Segment is a piece of a rendered name; Match marks text equal to the search term.
type Segment struct {
	Text  string
	Match bool
}

// Filter keeps categories whose name contains term, ignoring case. The term is used as
// typed; an empty term keeps everything.
func Filter(categories []models.Category, term string) []models.Category {
	needle := strings.ToLower(term)
	out := make([]models.Category, 0, len(categories))
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}

// Highlight splits text around every case-insensitive occurrence of term.
func Highlight(text, term string) []Segment {
	if strings.TrimSpace(term) == "" || text == "" {
		return []Segment{{Text: text}}
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	var segments []Segment
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segments = append(segments, Segment{Text: text[last:loc[0]]})
		}
		segments = append(segments, Segment{Text: text[loc[0]:loc[1]], Match: true})
		last = loc[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}

// Summarize describes a filtered list; empty when no search is active.
func Summarize(shown, total int, term string) string {
	if term == "" {
		return ""
	}
	if shown == 0 {
		return "No categories found"
	}
	return fmt.Sprintf("%d of %d categories", shown, total)
}
