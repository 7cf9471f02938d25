package payload

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errInvalidCode = errors.New("code must be a string or a number")

// Code is a verification code. Clients send it either as a JSON string or as
// a JSON number, both decode to the same digits.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errInvalidCode
	}
	*c = Code(n.String())
	return nil
}
