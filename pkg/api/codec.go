// Package api defines the messages and procedure names of the phobhub.v1
// Connect services. Messages travel as JSON; pass Codec to both handlers and
// clients.
package api

import (
	"encoding/json"
	"fmt"
)

// Codec marshals plain Go message structs as JSON. It registers under the
// "json" name, so clients and handlers negotiate application/json.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
