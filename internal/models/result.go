package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Unparseable is the extracted value recorded when no rating could be found in a response,
// or when the backend failed.
const Unparseable = -1

// ErrorPrefix starts the response text of every failed query.
const ErrorPrefix = "ERROR: "

// Status represents the outcome of a single query.
type Status string

const (
	StatusValid       Status = "valid"
	StatusUnparseable Status = "unparseable"
	StatusError       Status = "error"
)

// QueryResult is the record produced for one (model, question) pair.
type QueryResult struct {
	LLM            string    `json:"llm"`
	Question       string    `json:"question"`
	Part           Part      `json:"part"`
	Foundation     string    `json:"moral_foundation"`
	Response       string    `json:"response"`
	ExtractedValue int       `json:"extracted_value"`
	Timestamp      Timestamp `json:"timestamp"`
}

// Valid reports whether the record carries a usable rating.
func (r QueryResult) Valid() bool {
	return r.ExtractedValue >= 0
}

// Failed reports whether the backend call behind this record failed.
func (r QueryResult) Failed() bool {
	return r.ExtractedValue == Unparseable && strings.HasPrefix(r.Response, ErrorPrefix)
}

// Status classifies the record.
func (r QueryResult) Status() Status {
	switch {
	case r.Valid():
		return StatusValid
	case r.Failed():
		return StatusError
	default:
		return StatusUnparseable
	}
}

// Timestamp wraps time.Time with a lenient JSON decoder. Older result files carry naive
// local timestamps with microsecond precision and no zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp accepts RFC3339 as well as the zone-less forms found in older files.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// String returns the RFC3339Nano form, or an empty string for the zero value.
func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	if s == "" {
		*t = Timestamp{}
		return nil
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
