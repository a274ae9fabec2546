// Package related selects related/similar items for detail pages.
package related

import (
	"sort"

	"github.com/launchwire/launchwire/internal/cms"
)

// MaxStartups caps the similar-startups list on a startup detail page.
const MaxStartups = 4

// MaxStories caps the related-stories list on detail pages.
const MaxStories = 3

// Startups scores candidates against the current startup: one point per
// matching dimension (category slug, city slug). Candidates scoring zero
// are excluded, the sort is stable so upstream order breaks ties, and the
// result is capped at MaxStartups.
func Startups(current cms.Startup, candidates []cms.Startup) []cms.Startup {
	type scored struct {
		startup cms.Startup
		score   int
	}
	matches := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Slug == current.Slug {
			continue
		}
		score := 0
		if !current.Category.IsZero() && cand.Category.Slug == current.Category.Slug {
			score++
		}
		if !current.City.IsZero() && cand.City.Slug == current.City.Slug {
			score++
		}
		if score >= 1 {
			matches = append(matches, scored{startup: cand, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > MaxStartups {
		matches = matches[:MaxStartups]
	}
	out := make([]cms.Startup, len(matches))
	for i, m := range matches {
		out[i] = m.startup
	}
	return out
}

// Stories filters candidates to the same category OR city as the given
// dimensions, excluding selfSlug, capped at MaxStories. When the filter
// yields nothing it falls back to the most recent stories excluding self.
func Stories(selfSlug string, category, city cms.Relation, candidates []cms.Story) []cms.Story {
	matched := make([]cms.Story, 0, MaxStories)
	for _, cand := range candidates {
		if cand.Slug == selfSlug {
			continue
		}
		sameCategory := !category.IsZero() && cand.Category.Slug == category.Slug
		sameCity := !city.IsZero() && cand.City.Slug == city.Slug
		if sameCategory || sameCity {
			matched = append(matched, cand)
			if len(matched) == MaxStories {
				return matched
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return Recent(selfSlug, candidates, MaxStories)
}

// Recent returns the n most recently published stories excluding selfSlug.
func Recent(selfSlug string, candidates []cms.Story, n int) []cms.Story {
	others := make([]cms.Story, 0, len(candidates))
	for _, cand := range candidates {
		if cand.Slug == selfSlug {
			continue
		}
		others = append(others, cand)
	}
	sort.SliceStable(others, func(i, j int) bool {
		return others[i].PublishedAt.After(others[j].PublishedAt)
	})
	if len(others) > n {
		others = others[:n]
	}
	return others
}
