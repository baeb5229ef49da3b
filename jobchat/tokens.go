package jobchat

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

// getCodec returns the cl100k_base tokenizer, a reasonable
// approximation for the models this package talks to.
func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// EstimateTokens returns an approximate token count for the given text.
// Falls back to the chars/4 heuristic if the tokenizer is unavailable.
func EstimateTokens(text string) int {
	c, err := getCodec()
	if err != nil {
		return len(text) / 4
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}

// estimateRequestTokens approximates the input token count of a request:
// the system message plus every turn.
func estimateRequestTokens(req *Request) int {
	total := EstimateTokens(req.System)
	for _, turn := range req.Turns {
		total += EstimateTokens(turn.Content)
	}
	return total
}
