package controllers

import (
	"bytes"
	"encoding/json"
)

// rawValue accepts a form field sent either as a JSON string or a JSON number and
// keeps its text, so validation sees exactly what the user typed.
type rawValue string

func (v *rawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = rawValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*v = rawValue(n.String())
	return nil
}
