// Package lookup decodes the loosely shaped foreign-key values and option
// rows the organization backend returns.
package lookup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ref is a foreign-key value. The backend sends it as a bare id, a display
// string, or an embedded {id, name} object; all three decode here.
type Ref struct {
	ID   int64
	Name string
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref{Name: strings.TrimSpace(s)}
		return nil
	case '{':
		var opt Option
		if err := json.Unmarshal(data, &opt); err != nil {
			return err
		}
		*r = Ref{ID: opt.ID, Name: opt.Name}
		return nil
	default:
		id, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("unsupported reference value %s", data)
		}
		*r = Ref{ID: id}
		return nil
	}
}

// Display is the name when known, otherwise the id, otherwise "".
func (r Ref) Display() string {
	if r.Name != "" {
		return r.Name
	}
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return ""
}

// FormValue is what a select bound to this reference starts with.
func (r Ref) FormValue() string {
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Name
}

// Option is one entry of a dropdown. Rows carry either "name" or "title".
type Option struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.Number `json:"id"`
		Name  string      `json:"name"`
		Title string      `json:"title"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	o.ID = 0
	if raw.ID != "" {
		id, err := raw.ID.Int64()
		if err != nil {
			return fmt.Errorf("invalid option id %q: %w", raw.ID, err)
		}
		o.ID = id
	}
	o.Name = raw.Name
	if o.Name == "" {
		o.Name = raw.Title
	}
	return nil
}

// Value is the form value submitted when this option is picked.
func (o Option) Value() string {
	return strconv.FormatInt(o.ID, 10)
}

// Label resolves a form value against options, falling back to the value.
func Label(options []Option, value string) string {
	for _, opt := range options {
		if opt.Value() == value {
			return opt.Name
		}
	}
	return value
}

// PayloadValue sends numeric form values as ids and anything else as text.
func PayloadValue(value string) interface{} {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id
	}
	return value
}
