package coverletter

import "strings"

// Slider defaults used when a form omits them
const (
	DefaultInventiveness = 50
	DefaultHumor         = 20
)

// Request is one generation request after the transport layer has bound it
type Request struct {
	JobTitle      string
	Company       string
	Inventiveness int
	Humor         int

	// CVPath points at a staged PDF, empty when no file was uploaded
	CVPath string
}

// Validate reports which required fields are missing. Whitespace-only counts as missing.
func (r *Request) Validate() error {
	missing := &MissingFieldsError{
		JobTitle: strings.TrimSpace(r.JobTitle) == "",
		Company:  strings.TrimSpace(r.Company) == "",
	}
	if missing.JobTitle || missing.Company {
		return missing
	}
	return nil
}

// Result is a generated letter plus the parameters that produced it
type Result struct {
	CoverLetter     string
	Provider        string
	Model           string
	Temperature     float64
	PresencePenalty float64
	UsedCV          bool
}
