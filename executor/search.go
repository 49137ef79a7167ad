package executor

import (
	"sort"
	"strings"

	"github.com/walkingzzzy/office-bridge/converter"
)

// SearchMatch is one scored hit from Search.
type SearchMatch struct {
	Tool  converter.ConvertedTool
	Score int
}

// nameMatchScore is awarded when the query appears inside the tool name;
// each query word found inside a description word adds one.
const nameMatchScore = 10

// Search ranks the catalog lexically against a query: a substring hit on
// the tool name scores 10, and every query word contained in any
// description word scores 1. Zero-score tools are dropped; ties keep
// registration order.
func (s *Service) Search(query string) []SearchMatch {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	words := strings.Fields(query)
	var matches []SearchMatch
	for _, tool := range s.registry.All() {
		score := 0
		if strings.Contains(strings.ToLower(tool.Source.Name), query) {
			score += nameMatchScore
		}
		description := ""
		if tool.Source.Description != nil {
			description = strings.ToLower(*tool.Source.Description)
		}
		descriptionWords := strings.Fields(description)
		for _, word := range words {
			for _, candidate := range descriptionWords {
				if strings.Contains(candidate, word) {
					score++
					break
				}
			}
		}
		if score > 0 {
			matches = append(matches, SearchMatch{Tool: tool, Score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
