package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Programme is one faculty/programme preference, in order of priority.
type Programme struct {
	Faculty string `json:"faculty" yaml:"faculty"`
	Name    string `json:"program_name" yaml:"program_name"`
}

// Context is the applicant data handed to a bot. Bots only read it.
type Context struct {
	Fields     map[string]string `json:"fields"`
	Uploads    map[string]string `json:"uploads,omitempty"`
	Academic   map[string]string `json:"academic,omitempty"`
	Programmes []Programme       `json:"programmes,omitempty"`
}

func NewContext(fields map[string]string) Context {
	c := Context{Fields: make(map[string]string, len(fields))}
	for k, v := range fields {
		c.Fields[k] = v
	}
	return c
}

func (c Context) Get(key string) string {
	return strings.TrimSpace(c.Fields[key])
}

func (c Context) Has(key string) bool {
	return c.Get(key) != ""
}

// FirstOf returns the first non-empty value among keys.
func (c Context) FirstOf(keys ...string) string {
	for _, k := range keys {
		if v := c.Get(k); v != "" {
			return v
		}
	}
	return ""
}

func (c Context) Flag(key string) bool {
	v, err := strconv.ParseBool(c.Get(key))
	return err == nil && v
}

func (c Context) Upload(kind string) (string, bool) {
	p := strings.TrimSpace(c.Uploads[kind])
	return p, p != ""
}

// Missing lists the keys that are absent or blank, preserving the order given.
func (c Context) Missing(keys ...string) []string {
	var out []string
	for _, k := range keys {
		if !c.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// UploadKinds returns the upload kinds in a stable order.
func (c Context) UploadKinds() []string {
	kinds := make([]string, 0, len(c.Uploads))
	for k := range c.Uploads {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// AcademicKeys returns the academic field names in a stable order.
func (c Context) AcademicKeys() []string {
	keys := make([]string, 0, len(c.Academic))
	for k := range c.Academic {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy so concurrent bots never share maps.
func (c Context) Clone() Context {
	out := Context{
		Fields:  cloneMap(c.Fields),
		Uploads: cloneMap(c.Uploads),
	}
	if c.Academic != nil {
		out.Academic = cloneMap(c.Academic)
	}
	if c.Programmes != nil {
		out.Programmes = append([]Programme(nil), c.Programmes...)
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ContextFromMap builds a Context from a decoded YAML or JSON document.
//
// Recognised sections: uploads (alias documents), academic, personal (flattened into
// fields), programmes (alias program_preferences). Every other scalar becomes a field;
// unknown nested values are ignored. created_email, phone and date_of_birth stand in for email,
// mobile and dob when those are absent.
func ContextFromMap(raw map[string]any) (Context, error) {
	c := Context{Fields: make(map[string]string), Uploads: make(map[string]string)}

	if personal, ok := raw["personal"]; ok {
		m, err := stringMap("personal", personal)
		if err != nil {
			return Context{}, err
		}
		for k, v := range m {
			c.Fields[k] = v
		}
	}

	for key, value := range raw {
		switch key {
		case "personal":
		case "uploads", "documents":
			m, err := stringMap(key, value)
			if err != nil {
				return Context{}, err
			}
			for k, v := range m {
				c.Uploads[k] = v
			}
		case "academic":
			m, err := stringMap(key, value)
			if err != nil {
				return Context{}, err
			}
			c.Academic = m
		case "programmes", "program_preferences":
			progs, err := programmes(key, value)
			if err != nil {
				return Context{}, err
			}
			c.Programmes = progs
		default:
			if s, ok := scalar(value); ok {
				c.Fields[key] = s
			}
		}
	}

	if !c.Has("email") && c.Has("created_email") {
		c.Fields["email"] = c.Get("created_email")
	}
	if !c.Has("mobile") && c.Has("phone") {
		c.Fields["mobile"] = c.Get("phone")
	}
	if !c.Has("dob") && c.Has("date_of_birth") {
		c.Fields["dob"] = c.Get("date_of_birth")
	}
	return c, nil
}

func stringMap(section string, v any) (map[string]string, error) {
	if v == nil {
		return map[string]string{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a mapping, got %T", section, v)
	}
	out := make(map[string]string, len(m))
	for k, raw := range m {
		if s, ok := scalar(raw); ok {
			out[k] = s
		}
	}
	return out, nil
}

func programmes(section string, v any) ([]Programme, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a list, got %T", section, v)
	}
	out := make([]Programme, 0, len(list))
	for i, item := range list {
		m, err := stringMap(fmt.Sprintf("%s[%d]", section, i), item)
		if err != nil {
			return nil, err
		}
		name := m["program_name"]
		if name == "" {
			name = m["programme"]
		}
		if name == "" {
			name = m["name"]
		}
		out = append(out, Programme{Faculty: m["faculty"], Name: name})
	}
	return out, nil
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case time.Time:
		return t.Format(time.DateOnly), true
	default:
		return "", false
	}
}
