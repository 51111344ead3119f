// Package testclient provides a shared helper for building batvision clients
// against scripted upstreams, so HTTP and MCP tests never reach Azure or OpenAI.
package testclient

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/helixml/batvision"
	"github.com/helixml/batvision/domain/prediction"
	"github.com/helixml/batvision/infrastructure/provider"
)

// Canned enrichment replies returned by Generator.
const (
	Movie   = "The Dark Knight"
	Details = "This Batman fought: Joker | Box Office: $1.005 billion"
	Quote   = "Why so serious?"
)

// BaleText is the identification text produced for BalePredictions.
const BaleText = "Bale (87.0% confidence)\nMovie: " + Movie + "\n" + Details + "\n\n" + Quote

// BalePredictions returns a classifier response topped by "bale".
func BalePredictions() []prediction.Prediction {
	return []prediction.Prediction{
		prediction.New("affleck", 0.13),
		prediction.New("bale", 0.87),
	}
}

// Classifier returns fixed predictions and counts its calls.
type Classifier struct {
	Predictions []prediction.Prediction
	Err         error

	calls atomic.Int32
}

// Classify implements service.Classifier.
func (c *Classifier) Classify(_ context.Context, _ []byte) ([]prediction.Prediction, error) {
	c.calls.Add(1)
	return c.Predictions, c.Err
}

// Calls returns how many times Classify ran.
func (c *Classifier) Calls() int { return int(c.calls.Load()) }

// Generator answers the three enrichment prompts with Movie, Details and
// Quote, and counts its calls.
type Generator struct {
	Err error

	calls atomic.Int32
}

// ChatCompletion implements provider.TextGenerator.
func (g *Generator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	g.calls.Add(1)
	if g.Err != nil {
		return provider.ChatCompletionResponse{}, g.Err
	}

	messages := req.Messages()
	prompt := messages[len(messages)-1].Content()

	var reply string
	switch {
	case strings.Contains(prompt, "which specific movie"):
		reply = Movie
	case strings.Contains(prompt, "main villain"):
		reply = Details
	case strings.Contains(prompt, "iconic quote"):
		reply = Quote
	}
	return provider.NewChatCompletionResponse(reply, "stop", provider.NewUsage(0, 0, 0)), nil
}

// Calls returns how many completions were requested.
func (g *Generator) Calls() int { return int(g.calls.Load()) }

// New creates a client wired to classifier and generator with an empty
// examples directory. Later options override the defaults.
func New(t *testing.T, classifier *Classifier, generator *Generator, opts ...batvision.Option) *batvision.Client {
	t.Helper()

	base := []batvision.Option{
		batvision.WithClassifier(classifier),
		batvision.WithTextGenerator(generator),
		batvision.WithExamplesDir(t.TempDir()),
	}
	client, err := batvision.New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("testclient.New: %v", err)
	}
	return client
}

// PNG returns a small valid PNG image.
func PNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.Gray{Y: 40})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("testclient.PNG: %v", err)
	}
	return buf.Bytes()
}

// WriteExample stores a valid image as dir/name.
func WriteExample(t *testing.T, dir, name string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), PNG(t), 0o600); err != nil {
		t.Fatalf("testclient.WriteExample: %v", err)
	}
}
