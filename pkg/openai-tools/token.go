package openai_tools

import (
	"fmt"
	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const (
	fallbackEncoding = "cl100k_base"
	tokensPerMessage = 3
	tokensPerName    = 1
	tokensPerReply   = 3
)

// CountToken estimates the prompt size of messages for the given model.
// Unknown models are counted with the cl100k_base encoding.
func CountToken(messages []openai.ChatCompletionMessage, model string) (int, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	numTokens := 0
	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
		if message.Name != "" {
			numTokens += len(tkm.Encode(message.Name, nil, nil))
			numTokens += tokensPerName
		}
	}
	numTokens += tokensPerReply
	return numTokens, nil
}

// TrimHistory drops the oldest messages until the count fits limit. The last
// message is always kept. A non-positive limit disables trimming.
func TrimHistory(
	messages []openai.ChatCompletionMessage, model string, limit int,
) ([]openai.ChatCompletionMessage, int, error) {
	if limit <= 0 {
		return messages, 0, nil
	}
	trimmed := 0
	for len(messages) > 1 {
		tokenCount, err := CountToken(messages, model)
		if err != nil {
			return messages, trimmed, err
		}
		if tokenCount < limit {
			break
		}
		messages = messages[1:]
		trimmed++
	}
	return messages, trimmed, nil
}
