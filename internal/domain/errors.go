package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFitted is returned by model operations attempted before training.
	ErrNotFitted = errors.New("model is not fitted")
	// ErrNotEnoughData is returned when a corpus yields no usable features.
	ErrNotEnoughData = errors.New("not enough data to fit")
	// ErrNoLabeledData is returned when retraining finds no labeled items.
	ErrNoLabeledData = errors.New("no labeled items available for training")
	// ErrNoSavedModel is returned when restore finds no complete snapshot.
	ErrNoSavedModel = errors.New("no saved model found")
	// ErrPersistence wraps failures writing a model snapshot.
	ErrPersistence = errors.New("persist model")
	// ErrFeedNotFound is returned when a feed id is unknown to the store.
	ErrFeedNotFound = errors.New("feed not found")
)

// FeedFetchError reports a network or HTTP failure while fetching a feed.
type FeedFetchError struct {
	FeedURL string
	Err     error
}

func (e *FeedFetchError) Error() string {
	return fmt.Sprintf("fetch feed %s: %v", e.FeedURL, e.Err)
}

func (e *FeedFetchError) Unwrap() error { return e.Err }

// FeedParseError reports a document that could not be parsed as a feed.
type FeedParseError struct {
	FeedURL string
	Err     error
}

func (e *FeedParseError) Error() string {
	return fmt.Sprintf("parse feed %s: %v", e.FeedURL, e.Err)
}

func (e *FeedParseError) Unwrap() error { return e.Err }
