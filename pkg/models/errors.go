package models

import "fmt"

// ParseKind names which textual identity failed to parse.
type ParseKind string

const (
	VersionParseFail ParseKind = "VersionParseFail"
	MetricParseFail  ParseKind = "MetricParseFail"
)

// ParseError is returned when a version or metric identity is malformed.
type ParseError struct {
	Kind  ParseKind
	Input string
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case VersionParseFail:
		return fmt.Sprintf("%s: Error parsing input `%s`. Must be in the format \"major.minor.patch\" where each component is an integer.", e.Kind, e.Input)
	case MetricParseFail:
		return fmt.Sprintf("%s: Error parsing input `%s`. Must be in the format \"metricname%sprojectname\" with no file extensions.", e.Kind, e.Input, MetricSeparator)
	default:
		return fmt.Sprintf("%s: Error parsing input `%s`.", e.Kind, e.Input)
	}
}

// MalformedMeasurementError is returned when benchmark output does not carry
// the number of timings or results the caller requires.
type MalformedMeasurementError struct {
	Path   string
	Field  string // "times" or "results"
	Count  int
	Reason string
}

func (e *MalformedMeasurementError) Error() string {
	return fmt.Sprintf("MalformedMeasurement: %s.\nFilepath: %s\nFound %d %s.", e.Reason, e.Path, e.Count, e.Field)
}
