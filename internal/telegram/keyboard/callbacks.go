package keyboard

import (
	"fmt"
	"strings"
)

// CallbackData is the decoded form of an inline button payload. Telegram
// caps payloads at 64 bytes, so the encoding stays a bare "action:value"
// pair.
type CallbackData struct {
	Action string
	Value  string
}

// ParseCallback splits a payload on the first colon. The value part may
// itself contain colons.
func ParseCallback(data string) (*CallbackData, error) {
	action, value, ok := strings.Cut(data, ":")
	if !ok {
		return nil, fmt.Errorf("invalid callback format: %s", data)
	}

	return &CallbackData{Action: action, Value: value}, nil
}

// EncodeCallback builds the payload for an inline button.
func EncodeCallback(action, value string) string {
	return action + ":" + value
}
