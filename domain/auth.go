package domain

// FieldKind discriminates the value variant of an AuthField. The kind of a
// field is fixed per field name for the lifetime of a protocol.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldPassword FieldKind = "password"
	FieldGroup    FieldKind = "group"
)

// FieldValue is a typed login input. Text and password values live in Value
// (empty = unset); group fields nest an ordered field sequence. Group nesting
// must be finite and acyclic.
type FieldValue struct {
	Kind  FieldKind   `json:"kind"`
	Value string      `json:"value,omitempty"`
	Group []AuthField `json:"group,omitempty"`
}

// TextValue returns a set text field value.
func TextValue(s string) FieldValue {
	return FieldValue{Kind: FieldText, Value: s}
}

// PasswordValue returns a set password field value.
func PasswordValue(s string) FieldValue {
	return FieldValue{Kind: FieldPassword, Value: s}
}

// GroupValue returns a group field value nesting the given fields.
func GroupValue(fields ...AuthField) FieldValue {
	return FieldValue{Kind: FieldGroup, Group: fields}
}

// IsZero reports whether the field value carries no usable input.
func (v FieldValue) IsZero() bool {
	if v.Kind == FieldGroup {
		return len(v.Group) == 0
	}
	return v.Value == ""
}

// AuthField is one login input: a machine name, an optional display label,
// a typed value and a required flag.
type AuthField struct {
	Name     string     `json:"name"`
	Display  string     `json:"display,omitempty"`
	Value    FieldValue `json:"value"`
	Required bool       `json:"required,omitempty"`
}

// FieldByName returns the first field with the given name, searching group
// fields depth-first.
func FieldByName(fields []AuthField, name string) (AuthField, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
		if f.Value.Kind == FieldGroup {
			if sub, ok := FieldByName(f.Value.Group, name); ok {
				return sub, true
			}
		}
	}
	return AuthField{}, false
}

// FieldString returns the text/password value of the named field, or "" when
// the field is absent or unset.
func FieldString(fields []AuthField, name string) string {
	f, ok := FieldByName(fields, name)
	if !ok {
		return ""
	}
	return f.Value.Value
}
