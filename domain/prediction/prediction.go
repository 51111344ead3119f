// Package prediction holds classifier output and the rules for picking and
// presenting the winning tag.
package prediction

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Prediction is a single tag scored by the image classifier.
type Prediction struct {
	tagName     string
	probability float64
}

// New creates a Prediction.
func New(tagName string, probability float64) Prediction {
	return Prediction{tagName: tagName, probability: probability}
}

// TagName returns the raw tag as the classifier reported it.
func (p Prediction) TagName() string { return p.tagName }

// Probability returns the classifier score in [0, 1].
func (p Prediction) Probability() float64 { return p.probability }

// Label returns the tag name with its first character upper-cased.
func (p Prediction) Label() string { return DisplayLabel(p.tagName) }

// Confidence returns the probability as a percentage with one decimal place.
func (p Prediction) Confidence() string { return Confidence(p.probability) }

// Top returns the prediction with the highest probability. Ties resolve to
// the earliest entry. ok is false when predictions is empty.
func Top(predictions []Prediction) (top Prediction, ok bool) {
	if len(predictions) == 0 {
		return Prediction{}, false
	}
	top = predictions[0]
	for _, p := range predictions[1:] {
		if p.probability > top.probability {
			top = p
		}
	}
	return top, true
}

// DisplayLabel upper-cases the first character of tag and leaves the rest
// unchanged.
func DisplayLabel(tag string) string {
	r, size := utf8.DecodeRuneInString(tag)
	if r == utf8.RuneError {
		return tag
	}
	return string(unicode.ToUpper(r)) + tag[size:]
}

// Confidence renders probability*100 with one decimal place.
func Confidence(probability float64) string {
	return fmt.Sprintf("%.1f", probability*100)
}
