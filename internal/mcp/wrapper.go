package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrToolFailed is returned when the host reports the call as an error result.
var ErrToolFailed = errors.New("tool reported an error")

// rawTool is one entry of a tools/list result. InputSchema keeps the raw
// bytes so property order survives.
type rawTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type toolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

// decodeToolResult returns the first text block of a tools/call result,
// empty text included. A result without a text block yields nil.
func decodeToolResult(name string, raw json.RawMessage) (*string, error) {
	var result toolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", name, err)
	}

	for _, block := range result.Content {
		if block.Type != "text" {
			continue
		}
		if result.IsError {
			return nil, fmt.Errorf("%w: %s: %s", ErrToolFailed, name, block.Text)
		}
		text := block.Text
		return &text, nil
	}
	if result.IsError {
		return nil, fmt.Errorf("%w: %s", ErrToolFailed, name)
	}
	return nil, nil
}
