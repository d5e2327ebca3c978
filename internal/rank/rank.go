// Package rank scores and orders video candidates by engagement quality.
//
// The score is a weighted blend of four normalized signals: view volume
// (log-scaled), like ratio, comment ratio, and recency (exponential decay
// over one year). Weights are configurable and default to favoring reach
// and approval over discussion.
package rank

import (
	"math"
	"sort"
	"time"

	"github.com/tbourn/go-learnhub-backend/internal/providers"
)

// Weights controls the relative contribution of each signal. Values are
// expected to sum to roughly 1 but are not required to.
type Weights struct {
	Views        float64
	LikeRatio    float64
	CommentRatio float64
	Recency      float64
}

// DefaultWeights is the production blend.
func DefaultWeights() Weights {
	return Weights{Views: 0.4, LikeRatio: 0.3, CommentRatio: 0.1, Recency: 0.2}
}

// Candidate pairs a search hit with its engagement stats.
type Candidate struct {
	providers.VideoCandidate
	Stats providers.VideoStats
}

// viewCeiling is the log10 view count treated as a full-score video
// (10 million views).
const viewCeiling = 7.0

// halfLifeDays controls recency decay; a year-old video scores ~0.37.
const halfLifeDays = 365.0

// Score computes the weighted quality score for one candidate.
func Score(c Candidate, now time.Time, w Weights) float64 {
	views := math.Log10(float64(c.Stats.Views)+1) / viewCeiling
	if views > 1 {
		views = 1
	}

	var likeRatio, commentRatio float64
	if c.Stats.Views > 0 {
		// Like ratios above 10% and comment ratios above 1% are already
		// exceptional; cap so outliers don't dominate.
		likeRatio = math.Min(float64(c.Stats.Likes)/float64(c.Stats.Views)/0.10, 1)
		commentRatio = math.Min(float64(c.Stats.Comments)/float64(c.Stats.Views)/0.01, 1)
	}

	recency := 0.0
	if !c.PublishedAt.IsZero() {
		ageDays := now.Sub(c.PublishedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		recency = math.Exp(-ageDays / halfLifeDays)
	}

	return w.Views*views + w.LikeRatio*likeRatio + w.CommentRatio*commentRatio + w.Recency*recency
}

// TopK returns the k best candidates in descending score order. Ties break
// on raw view count so ordering stays deterministic. The input slice is not
// modified.
func TopK(cands []Candidate, k int, now time.Time, w Weights) []Candidate {
	if k <= 0 || len(cands) == 0 {
		return nil
	}

	type scored struct {
		c Candidate
		s float64
	}
	all := make([]scored, len(cands))
	for i, c := range cands {
		all[i] = scored{c: c, s: Score(c, now, w)}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].s != all[j].s {
			return all[i].s > all[j].s
		}
		return all[i].c.Stats.Views > all[j].c.Stats.Views
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]Candidate, k)
	for i := 0; i < k; i++ {
		out[i] = all[i].c
	}
	return out
}
