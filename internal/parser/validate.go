package parser

import (
	"fmt"

	"github.com/harrison/scengine/internal/models"
)

// FlagError reports a single flag that failed validation against a
// command's FlagsSpec: unknown, wrong type, or not in the allowed set.
type FlagError struct {
	Flag   string
	Reason string
}

func (e *FlagError) Error() string {
	return fmt.Sprintf("flag %q: %s", e.Flag, e.Reason)
}

// ValidateFlags checks every flag on c against meta.FlagsSpec, returning
// one *FlagError per problem. An unrecognized flag name is always an
// error; a recognized flag is checked against its declared type and
// allowed-values list. Required flags missing from c.Flags are reported
// using their own name.
func ValidateFlags(c models.Command, spec []models.FlagSpec) []error {
	byName := make(map[string]models.FlagSpec, len(spec))
	for _, s := range spec {
		byName[s.Name] = s
	}

	var errs []error
	for name, value := range c.Flags {
		s, known := byName[name]
		if !known {
			errs = append(errs, &FlagError{Flag: name, Reason: "unknown flag"})
			continue
		}
		if err := validateValue(s, value); err != nil {
			errs = append(errs, err)
		}
	}

	for _, s := range spec {
		if s.Required {
			if _, present := c.Flags[s.Name]; !present {
				errs = append(errs, &FlagError{Flag: s.Name, Reason: "required flag missing"})
			}
		}
	}

	return errs
}

func validateValue(s models.FlagSpec, value string) error {
	switch s.Type {
	case "bool":
		if value != "" && value != "true" && value != "false" && value != "1" && value != "0" {
			return &FlagError{Flag: s.Name, Reason: "expected a boolean value"}
		}
	case "int":
		for _, r := range value {
			if r < '0' || r > '9' {
				return &FlagError{Flag: s.Name, Reason: "expected an integer value"}
			}
		}
	}

	if len(s.Allowed) > 0 {
		for _, a := range s.Allowed {
			if a == value {
				return nil
			}
		}
		return &FlagError{Flag: s.Name, Reason: fmt.Sprintf("value %q not in allowed set %v", value, s.Allowed)}
	}

	return nil
}
