package common

import (
	"bytes"
	"encoding/json"
)

// LooseString decodes a JSON string or number and keeps its literal text.
// Money fields use it so clients may send 12.5, "12.5" or "12,50".
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = LooseString(n)
	return nil
}

// String returns the raw text.
func (s LooseString) String() string { return string(s) }
