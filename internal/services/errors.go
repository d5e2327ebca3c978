// Package services defines the business logic for topic learning requests,
// content generation, and video feedback. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrNoContentFound is returned when video search produced no usable
	// candidates for a topic, so nothing could be generated or served.
	ErrNoContentFound = errors.New("no content found for topic")

	// ErrGenerationFailed wraps provider or persistence failures during a
	// generation run after retries were exhausted.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrStatusUnknown indicates that a topic has never been requested, so
	// there is neither a live generation run nor a log entry to report.
	ErrStatusUnknown = errors.New("no generation activity for topic")

	// ErrVideoNotFound indicates that the referenced video row does not exist.
	ErrVideoNotFound = errors.New("video not found")

	// ErrInvalidFeedback is returned when a feedback value is outside the
	// allowed set (currently -1 or 1).
	ErrInvalidFeedback = errors.New("feedback value must be -1 or 1")

	// ErrDuplicateFeedback is returned when a user attempts to rate a video
	// they have already rated.
	ErrDuplicateFeedback = errors.New("feedback already exists")
)
