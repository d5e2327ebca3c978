// Package utils holds small helpers shared across layers, free of domain
// logic. Currently that is query-parameter parsing for paginated listings.
package utils

import "strconv"

// AtoiDefault parses s as an int, falling back to def when s is empty or
// unparsable. No trimming: " 42" is unparsable on purpose, query values
// arrive already trimmed or not at all.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// ClampPage turns raw page/page_size query values into usable pagination
// bounds: page is at least 1, size defaults to defSize and is clamped to
// [1, maxSize]. Garbage input degrades to the defaults rather than erroring,
// so listing endpoints never 400 on pagination alone.
func ClampPage(pageRaw, sizeRaw string, defSize, maxSize int) (page, size int) {
	page = AtoiDefault(pageRaw, 1)
	if page < 1 {
		page = 1
	}
	size = AtoiDefault(sizeRaw, defSize)
	if size < 1 {
		size = 1
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}
