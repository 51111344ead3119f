package service

import (
	"errors"
	"fmt"
)

// NoPredictionsMessage is shown when the classifier returns nothing.
const NoPredictionsMessage = "Error: No predictions returned. Check Custom Vision model."

var (
	// ErrNoPredictions indicates the classifier returned an empty result.
	ErrNoPredictions = errors.New("no predictions returned")

	// ErrExampleNotFound indicates the requested gallery image is not listed.
	ErrExampleNotFound = errors.New("example not found")
)

// Pipeline stages.
const (
	StageDecode       = "decode"
	StageClassify     = "classify"
	StageMatchMovie   = "match_movie"
	StageMovieDetails = "movie_details"
	StageQuote        = "quote"
)

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }
