package domain

import "fmt"

// RetrievalError reports a failed feed download. It is isolated to one
// source: the source contributes no hotspots and the run continues.
type RetrievalError struct {
	Source     string
	URL        string
	StatusCode int // 0 when the request never got a response
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieve %s feed: status %d from %s", e.Source, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("retrieve %s feed: %v", e.Source, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// RowParseError reports a malformed CSV row. The row is dropped.
type RowParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("line %d: parse %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *RowParseError) Unwrap() error { return e.Err }

// EnrichmentFailure reports a wind lookup that fell back to defaults.
type EnrichmentFailure struct {
	Lat float64
	Lon float64
	Err error
}

func (e *EnrichmentFailure) Error() string {
	return fmt.Sprintf("wind lookup at %.4f,%.4f: %v", e.Lat, e.Lon, e.Err)
}

func (e *EnrichmentFailure) Unwrap() error { return e.Err }

// ValidationError reports a hotspot rejected at serialization time.
type ValidationError struct {
	Lat    float64
	Lon    float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid hotspot at %v,%v: %s", e.Lat, e.Lon, e.Reason)
}
