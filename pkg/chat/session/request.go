package session

import (
	"errors"

	"kidsgpt-be/pkg/chat/completion"
	"kidsgpt-be/pkg/llm"
)

func completionRequest(info *appended, age *int, apiKey string) completion.Request {
	return completion.Request{
		Type:    info.convTyp,
		Age:     age,
		History: info.history,
		APIKey:  apiKey,
	}
}

func isMissingKey(err error) bool {
	return errors.Is(err, llm.ErrMissingAPIKey)
}
