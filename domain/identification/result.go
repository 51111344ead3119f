// Package identification holds the outcome of one identification run.
package identification

import (
	"fmt"
	"time"

	"github.com/helixml/batvision/domain/prediction"
)

// Result is a classified image enriched with movie trivia.
type Result struct {
	id          string
	top         prediction.Prediction
	movie       string
	details     string
	quote       string
	completedAt time.Time
}

// NewResult creates a Result.
func NewResult(id string, top prediction.Prediction, movie, details, quote string) Result {
	return Result{
		id:          id,
		top:         top,
		movie:       movie,
		details:     details,
		quote:       quote,
		completedAt: time.Now().UTC(),
	}
}

// ID returns the run identifier.
func (r Result) ID() string { return r.id }

// Label returns the display label of the winning tag.
func (r Result) Label() string { return r.top.Label() }

// TagName returns the raw winning tag.
func (r Result) TagName() string { return r.top.TagName() }

// Probability returns the winning tag's score.
func (r Result) Probability() float64 { return r.top.Probability() }

// Confidence returns the score as a one-decimal percentage.
func (r Result) Confidence() string { return r.top.Confidence() }

// Movie returns the matched movie title.
func (r Result) Movie() string { return r.movie }

// Details returns the villain and box office line.
func (r Result) Details() string { return r.details }

// Quote returns the character quote.
func (r Result) Quote() string { return r.quote }

// CompletedAt returns when the run finished.
func (r Result) CompletedAt() time.Time { return r.completedAt }

// Text renders the result as shown to users.
func (r Result) Text() string {
	return fmt.Sprintf("%s (%s%% confidence)\nMovie: %s\n%s\n\n%s",
		r.Label(), r.Confidence(), r.movie, r.details, r.quote)
}
