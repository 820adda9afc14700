package model

import (
	"bytes"
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// FlexFloat decodes from a JSON number, a numeric string or null.
// The backend serialises decimals as strings; strings that are not numbers
// ("None", "N/A") decode as 0.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if !strings.EqualFold(s, "none") && !strings.EqualFold(s, "null") {
				log.Printf("⚠️ non-numeric value %q read as 0", s)
			}
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// FlexInt decodes from a JSON number or a numeric string.
type FlexInt int64

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var f FlexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*i = FlexInt(f)
	return nil
}
