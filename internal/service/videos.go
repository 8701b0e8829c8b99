package service

import (
	"math/rand"

	"utdr-guide/internal/domain"
)

// ChapterAll selects every chapter of a game
const ChapterAll = "all"

const (
	minRecommended = 4
	maxRecommended = 6
)

// FilterVideos returns the videos of game whose chapter matches.
// chapter "all" (or empty) matches every chapter. Catalog order is kept.
func FilterVideos(videos []*domain.Video, game domain.Game, chapter string) []*domain.Video {
	filtered := make([]*domain.Video, 0, len(videos))
	for _, v := range videos {
		if v.Game != game {
			continue
		}
		if chapter == "" || chapter == ChapterAll || v.Chapter == chapter {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// RecommendVideos picks between four and six distinct videos at random.
// Fewer videos than the pick size returns all of them, shuffled.
func RecommendVideos(videos []*domain.Video, rng *rand.Rand) []*domain.Video {
	if len(videos) == 0 {
		return []*domain.Video{}
	}

	n := minRecommended + rng.Intn(maxRecommended-minRecommended+1)
	if n > len(videos) {
		n = len(videos)
	}

	picked := make([]*domain.Video, 0, n)
	for _, i := range rng.Perm(len(videos))[:n] {
		picked = append(picked, videos[i])
	}
	return picked
}
