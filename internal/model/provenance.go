package model

import "time"

// Provenance records which external source produced a section and when.
type Provenance struct {
	Section   string    `json:"section"`
	Source    string    `json:"source"`
	URL       string    `json:"url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Failure is the value form of an adapter error. Cause is machine-readable
// (e.g. "timeout", "http_status", "decode"); Message is shown in warnings.
type Failure struct {
	Cause   string `json:"cause"`
	Message string `json:"message"`
}

// Warning formats the failure as a profile warning for the given section.
func (f Failure) Warning(section string) string {
	return section + ": " + f.Message + " (" + f.Cause + ")"
}
