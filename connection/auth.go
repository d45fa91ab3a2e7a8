package connection

import "github.com/saikuru0/oshatori/domain"

// maxGroupDepth bounds auth group nesting so descriptor cycles cannot
// recurse unboundedly.
const maxGroupDepth = 8

// ValidateAuth checks supplied fields against a protocol descriptor: every
// required field must be present with a non-empty value of the declared
// kind, and any supplied field named in the descriptor must carry the
// declared kind. Returns a KindAuthValidation error naming the first
// offending field; the check performs no I/O.
func ValidateAuth(spec domain.Protocol, supplied []domain.AuthField) error {
	return validateFields(spec.Auth, supplied, 0)
}

func validateFields(declared, supplied []domain.AuthField, depth int) error {
	if depth >= maxGroupDepth {
		return ErrAuthField("", "auth group nesting too deep")
	}

	for _, want := range declared {
		got, ok := domain.FieldByName(supplied, want.Name)
		if !ok {
			if want.Required {
				return ErrAuthField(want.Name, "required field missing")
			}
			continue
		}

		if got.Value.Kind != want.Value.Kind {
			return ErrAuthField(want.Name, "expected "+string(want.Value.Kind)+" value, got "+string(got.Value.Kind))
		}

		if want.Value.Kind == domain.FieldGroup {
			if err := validateFields(want.Value.Group, got.Value.Group, depth+1); err != nil {
				return err
			}
			continue
		}

		if want.Required && got.Value.IsZero() {
			return ErrAuthField(want.Name, "required field empty")
		}
	}
	return nil
}
