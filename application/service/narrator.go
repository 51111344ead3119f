package service

import (
	"context"
	"fmt"

	"github.com/helixml/batvision/infrastructure/provider"
)

// Token limits per enrichment call.
const (
	matchMovieMaxTokens   = 50
	movieDetailsMaxTokens = 100
	quoteMaxTokens        = 100
)

const matchMoviePrompt = "This is %s as Batman or a Batman lookalike. " +
	"Based on the suit design, cowl shape, and visual style, which specific movie is this from? " +
	"Options for reference: Affleck (Batman v Superman, Justice League), Bale (Batman Begins, " +
	"The Dark Knight, The Dark Knight Rises), Pattinson (The Batman), Nite Owl (Watchmen), " +
	"Darkwing (Invincible). Reply with only the exact movie title."

const movieDetailsSystemPrompt = "Return movie details in this exact format: " +
	"This Batman fought: [villain name] | Box Office: [amount]"

const movieDetailsPrompt = "For the movie %s, who is the main villain and what was the box office total?"

const quoteSystemPrompt = "You return one iconic quote from the specified character. " +
	"For Batman actors (Affleck, Bale, Pattinson), return a quote from their Batman movies. " +
	"For Nite Owl, return a quote from Watchmen. For Darkwing, return a quote from Invincible. " +
	"Just the quote, no attribution or extra text."

const quotePrompt = "Give me an iconic quote from %s's Batman movies."

// Narrator asks a chat model for the trivia shown alongside a classification.
type Narrator struct {
	generator provider.TextGenerator
}

// NewNarrator creates a new Narrator.
func NewNarrator(generator provider.TextGenerator) *Narrator {
	return &Narrator{generator: generator}
}

// MatchMovie identifies which movie the pictured suit is from. imageURL is
// typically a JPEG data URL.
func (n *Narrator) MatchMovie(ctx context.Context, imageURL, label string) (string, error) {
	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.UserImageMessage(fmt.Sprintf(matchMoviePrompt, label), imageURL),
	}).WithMaxTokens(matchMovieMaxTokens)

	return n.complete(ctx, req)
}

// MovieDetails returns the villain and box office line for a movie.
func (n *Narrator) MovieDetails(ctx context.Context, movie string) (string, error) {
	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(movieDetailsSystemPrompt),
		provider.UserMessage(fmt.Sprintf(movieDetailsPrompt, movie)),
	}).WithMaxTokens(movieDetailsMaxTokens)

	return n.complete(ctx, req)
}

// Quote returns an iconic line for the identified character.
func (n *Narrator) Quote(ctx context.Context, label string) (string, error) {
	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(quoteSystemPrompt),
		provider.UserMessage(fmt.Sprintf(quotePrompt, label)),
	}).WithMaxTokens(quoteMaxTokens)

	return n.complete(ctx, req)
}

// complete returns the model's reply exactly as received.
func (n *Narrator) complete(ctx context.Context, req provider.ChatCompletionRequest) (string, error) {
	resp, err := n.generator.ChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}
