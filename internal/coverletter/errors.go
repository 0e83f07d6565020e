package coverletter

import (
	"fmt"
	"strings"
)

// MissingFieldsError flags each required field that was absent or blank
type MissingFieldsError struct {
	JobTitle bool
	Company  bool
}

func (e *MissingFieldsError) Error() string {
	var fields []string
	if e.JobTitle {
		fields = append(fields, "jobTitle")
	}
	if e.Company {
		fields = append(fields, "company")
	}
	return fmt.Sprintf("missing required fields: %s", strings.Join(fields, ", "))
}

// Details returns the per-field flags in the shape sent to clients
func (e *MissingFieldsError) Details() map[string]bool {
	return map[string]bool{
		"jobTitle": e.JobTitle,
		"company":  e.Company,
	}
}

// GenerationError is a terminal completion failure. Message and Type are safe to show callers.
type GenerationError struct {
	Message string
	Type    string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("failed to generate cover letter (%s): %s", e.Type, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
