package runtime

import (
	"context"

	"github.com/centaurus-ai/roundtable/pkg/core/providers/gemini"
	"github.com/centaurus-ai/roundtable/pkg/core/turn"
)

// GeminiGenerator adapts a gemini.Provider to the engine's generator
// surface.
type GeminiGenerator struct {
	Provider *gemini.Provider
}

func (g GeminiGenerator) StreamGenerate(ctx context.Context, req turn.GenRequest) (turn.TextStream, error) {
	return g.Provider.StreamGenerate(ctx, gemini.GenerateRequest{
		System:      req.System,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
	})
}
