package domain

import (
	"bytes"
	"fmt"
	"strconv"
)

// CardID names one physical card instance in a room. Two copies of the same
// printed card carry two distinct ids. Clients are inconsistent about whether
// ids travel as JSON numbers or strings, so every id is normalized to its
// canonical string form before any lookup or removal.
type CardID string

// UnmarshalJSON accepts either a JSON string or a JSON number token, so
// "101" and 101 decode to the same id.
func (c *CardID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty card id")
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("invalid card id: %w", err)
		}
		*c = CardID(s)
		return nil
	}
	// Bare number token; keep its text as the canonical form.
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("invalid card id %q", data)
	}
	*c = CardID(data)
	return nil
}
