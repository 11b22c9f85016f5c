package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"collegeconnect/internal/models"
	"collegeconnect/internal/repository"
)

// Paging defaults shared by every list endpoint.
const (
	DefaultPageLimit  = 20
	CommentPageLimit  = 50
	MaxPageLimit      = 100
	SortTrending      = "trending"
	defaultPageNumber = 1
)

// NewPaging parses raw page and limit values. Missing, non-numeric or
// non-positive values fall back to page 1 and defaultLimit; limit is capped
// at MaxPageLimit.
func NewPaging(rawPage, rawLimit string, defaultLimit int) repository.Paging {
	page := positiveInt(rawPage, defaultPageNumber)
	limit := positiveInt(rawLimit, defaultLimit)
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return repository.Paging{Page: page, Limit: limit}
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// rankTrending orders posts by popularity score, highest first. The input
// arrives ordered by id, and the stable sort keeps that order for ties.
func rankTrending(posts []models.Post, now time.Time) {
	for i := range posts {
		posts[i].Derive(now)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PopularityScore > posts[j].PopularityScore
	})
}

// window returns the slice of items that page p covers. A page past the end
// is empty.
func window[T any](items []T, p repository.Paging) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
