package vision

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

const explainMaxTokens = 150

// Explain asks for a one or two sentence reason why san is the best move in
// the position. line, when given, is the expected continuation in SAN.
func (c *Client) Explain(ctx context.Context, fenStr, san string, line []string) (string, error) {
	var sb strings.Builder
	sb.WriteString("Chess position FEN: ")
	sb.WriteString(fenStr)
	sb.WriteString("\nBest move: ")
	sb.WriteString(san)
	if len(line) > 1 {
		sb.WriteString("\nExpected continuation: ")
		sb.WriteString(strings.Join(line, " "))
	}
	sb.WriteString("\nIn 1-2 sentences, why is this the best move? Be very brief.")

	return c.complete(ctx, c.explainModel, explainMaxTokens, anthropic.NewTextBlock(sb.String()))
}
