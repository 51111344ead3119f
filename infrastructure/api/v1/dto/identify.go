package dto

import (
	"time"

	"github.com/helixml/batvision/application/service"
	"github.com/helixml/batvision/domain/identification"
)

// IdentificationResponse is the result of identifying one image.
type IdentificationResponse struct {
	ID          string    `json:"id"`
	Tag         string    `json:"tag"`
	Label       string    `json:"label"`
	Probability float64   `json:"probability"`
	Confidence  string    `json:"confidence"`
	Movie       string    `json:"movie"`
	Details     string    `json:"details"`
	Quote       string    `json:"quote"`
	Text        string    `json:"text"`
	CompletedAt time.Time `json:"completed_at"`
}

// NewIdentificationResponse converts a domain result to its API shape.
func NewIdentificationResponse(r identification.Result) IdentificationResponse {
	return IdentificationResponse{
		ID:          r.ID(),
		Tag:         r.TagName(),
		Label:       r.Label(),
		Probability: r.Probability(),
		Confidence:  r.Confidence(),
		Movie:       r.Movie(),
		Details:     r.Details(),
		Quote:       r.Quote(),
		Text:        r.Text(),
		CompletedAt: r.CompletedAt(),
	}
}

// ExampleSchema describes one gallery image.
type ExampleSchema struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Available bool   `json:"available"`
}

// ExampleListResponse lists the gallery images.
type ExampleListResponse struct {
	Data []ExampleSchema `json:"data"`
}

// NewExampleListResponse converts gallery entries to their API shape.
func NewExampleListResponse(examples []service.Example) ExampleListResponse {
	data := make([]ExampleSchema, len(examples))
	for i, e := range examples {
		data[i] = ExampleSchema{Name: e.Name, Character: e.Character, Available: e.Available}
	}
	return ExampleListResponse{Data: data}
}
