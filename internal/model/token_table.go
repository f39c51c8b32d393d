package model

import (
	"encoding/json"
	"fmt"
)

const nextIDKey = "nextUuid"

// TokenTable is the auth token document: a flat JSON object mapping every
// token to its account id, with the identifier counter stored under "nextUuid".
type TokenTable struct {
	NextID int64
	Tokens map[string]string
}

func (t TokenTable) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.Tokens)+1)
	for token, accountID := range t.Tokens {
		out[token] = accountID
	}
	out[nextIDKey] = t.NextID
	return json.Marshal(out)
}

func (t *TokenTable) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.NextID = 0
	t.Tokens = make(map[string]string, len(raw))
	for key, value := range raw {
		if key == nextIDKey {
			if err := json.Unmarshal(value, &t.NextID); err != nil {
				return fmt.Errorf("decode %s: %w", nextIDKey, err)
			}
			continue
		}
		var accountID string
		if err := json.Unmarshal(value, &accountID); err != nil {
			return fmt.Errorf("decode token entry: %w", err)
		}
		t.Tokens[key] = accountID
	}
	return nil
}
