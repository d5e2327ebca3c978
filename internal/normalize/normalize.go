// Package normalize turns free-text topic and proficiency input into
// canonical lowercase tokens. It is the single normalization implementation
// shared by the HTTP layer and the batch pre-population job;
// there must never be a second copy of these rules anywhere else, because
// the normalized pair is the uniqueness key for the content, lock, and log
// stores.
//
// Normalization is pure and idempotent: applying it twice always yields the
// same result as applying it once. Empty or whitespace-only input normalizes
// to the empty string; the functions never return an error and never panic
// on user input.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// nonWordRE matches every character that is not a word character, whitespace,
// or one of the retained symbols '#', '+', '.', '-'. Matches are replaced
// with a single space so "react/redux" tokenizes as two words while "c++"
// and "c#" survive intact.
var nonWordRE = regexp.MustCompile(`[^\w\s#+.\-]`)

// goalLevelSuffix is stripped from goal fields before the second synonym
// lookup, so "advanced level" and "advanced" converge.
const goalLevelSuffix = " level"

// termSynonyms maps spelling/punctuation variants of technology names to one
// canonical token. Keys must already be in normalized form (lowercase,
// collapsed whitespace) and values must never appear as keys: the table is
// strictly many-to-one, which initialization verifies.
var termSynonyms = map[string]string{
	// JavaScript ecosystem
	"js":         "javascript",
	"java script": "javascript",
	"ecmascript": "javascript",
	"react.js":   "react",
	"reactjs":    "react",
	"react js":   "react",
	"node.js":    "node",
	"nodejs":     "node",
	"node js":    "node",
	"vue.js":     "vue",
	"vuejs":      "vue",
	"vue js":     "vue",
	"angular.js": "angular",
	"angularjs":  "angular",
	"next.js":    "nextjs",
	"next js":    "nextjs",
	"ts":         "typescript",
	"type script": "typescript",

	// Languages
	"golang":  "go",
	"go lang": "go",
	"py":      "python",
	"python3": "python",
	"c sharp": "c#",
	"csharp":  "c#",
	"cpp":     "c++",
	"c plus plus": "c++",

	// Infra / data
	"k8s":        "kubernetes",
	"postgres":   "postgresql",
	"mongo":      "mongodb",
	"ml":         "machine learning",
	"ai":         "artificial intelligence",
	"dl":         "deep learning",
	"sql server": "mssql",
}

// goalSynonyms maps proficiency-level aliases to the three canonical levels.
// Applied to goal fields only, after the generic table and after stripping a
// trailing " level" suffix.
var goalSynonyms = map[string]string{
	"basic":         "beginner",
	"basics":        "beginner",
	"intro":         "beginner",
	"introduction":  "beginner",
	"introductory":  "beginner",
	"starter":       "beginner",
	"novice":        "beginner",
	"beginners":     "beginner",
	"elementary":    "beginner",
	"fundamentals":  "beginner",
	"entry":         "beginner",
	"mid":           "intermediate",
	"medium":        "intermediate",
	"moderate":      "intermediate",
	"expert":        "advanced",
	"pro":           "advanced",
	"master":        "advanced",
	"mastery":       "advanced",
	"professional":  "advanced",
	"proficient":    "advanced",
	"senior":        "advanced",
}

// synonyms is the merged table consulted by the generic lookup (step 5).
// Built once at init; immutable afterwards.
var synonyms map[string]string

func init() {
	synonyms = make(map[string]string, len(termSynonyms)+len(goalSynonyms))
	for k, v := range termSynonyms {
		synonyms[k] = v
	}
	for k, v := range goalSynonyms {
		synonyms[k] = v
	}
	// A canonical value that is itself a key would make normalization
	// non-idempotent (a → b → c). Refuse to start with such a table.
	for _, v := range synonyms {
		if _, cycle := synonyms[v]; cycle {
			panic("normalize: synonym table is not many-to-one: canonical value " + v + " is also an alias")
		}
	}
	for k, v := range synonyms {
		if clean(k) != k {
			panic("normalize: synonym alias is not in normalized form: " + k)
		}
		if clean(v) != v {
			panic("normalize: canonical value is not in normalized form: " + v)
		}
	}
}

// clean applies the mechanical half of normalization: trim, lowercase,
// punctuation stripping, whitespace collapsing. No synonym lookup.
func clean(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonWordRE.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// Normalize maps an arbitrary topic or goal string to its canonical form.
//
// Steps, in order: trim, lowercase, replace disallowed punctuation with
// spaces, collapse whitespace, exact-match synonym lookup. When isGoal is
// true a trailing " level" suffix is stripped and the goal-specific subset
// of the table is consulted a second time, so "Advanced Level" → "advanced"
// and "Basic" → "beginner".
//
// The result may be empty (for empty or punctuation-only input); it is never
// modified further by repeated application.
func Normalize(input string, isGoal bool) string {
	s := clean(input)
	if canon, ok := synonyms[s]; ok {
		s = canon
	}
	if isGoal {
		s = strings.TrimSuffix(s, goalLevelSuffix)
		if canon, ok := goalSynonyms[s]; ok {
			s = canon
		}
	}
	return s
}

// Title returns a human-facing rendering of a canonical token for UI
// responses ("machine learning" → "Machine Learning"). It never changes the
// canonical form stored in the database. A fresh Caser per call: cases.Caser
// carries internal state and is not safe for concurrent reuse.
func Title(canonical string) string {
	return cases.Title(language.English).String(canonical)
}
