// Topic pair keys.
//
// A TopicKey is the canonical (search term, learning goal) pair that
// identifies one unit of generated content. It is the uniqueness key of the
// content, lock, and log tables and must only ever be built through MakeKey,
// so that every store agrees on the same normalization.
package normalize

import "errors"

// Validation errors returned by MakeKey. Both signal that the caller
// supplied no usable content (e.g., pure punctuation) and must never be
// retried. Surface them straight to the user.
var (
	ErrEmptyTerm = errors.New("search term is empty after normalization")
	ErrEmptyGoal = errors.New("learning goal is empty after normalization")
)

// TopicKey is a normalized (searchTerm, learningGoal) pair. Constructed
// fresh per request, never mutated, compared by value.
type TopicKey struct {
	SearchTerm   string
	LearningGoal string
}

// MakeKey normalizes both fields and validates that neither collapsed to the
// empty string. The search term uses the generic rules; the goal additionally
// gets level-suffix stripping and the proficiency alias table.
func MakeKey(searchTerm, learningGoal string) (TopicKey, error) {
	k := TopicKey{
		SearchTerm:   Normalize(searchTerm, false),
		LearningGoal: Normalize(learningGoal, true),
	}
	if k.SearchTerm == "" {
		return TopicKey{}, ErrEmptyTerm
	}
	if k.LearningGoal == "" {
		return TopicKey{}, ErrEmptyGoal
	}
	return k, nil
}

// String renders the key for logs and cache keys ("react|beginner").
// The separator cannot occur in a normalized field.
func (k TopicKey) String() string {
	return k.SearchTerm + "|" + k.LearningGoal
}
