// Package decoder implements protocol decoding.
package decoder

import (
	"errors"
	"fmt"
)

// ErrSkip matches every *SkipError via errors.Is.
var ErrSkip = errors.New("ngtrace: frame skipped")

// SkipReason classifies why a frame was dropped.
type SkipReason uint8

const (
	ReasonTooShort SkipReason = iota + 1
	ReasonUnsupportedLinkProtocol
	ReasonICMP // a deliberate noise filter, not a decode failure
	ReasonTruncatedHeader
	ReasonUndecodable
	ReasonNoMarker
)

var reasonNames = map[SkipReason]string{
	ReasonTooShort:                "too_short",
	ReasonUnsupportedLinkProtocol: "unsupported_link_protocol",
	ReasonICMP:                    "filtered_icmp",
	ReasonTruncatedHeader:         "truncated_header",
	ReasonUndecodable:             "undecodable",
	ReasonNoMarker:                "no_marker",
}

// String returns the metric label form of the reason.
func (r SkipReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

// Filtered reports whether the reason is a noise filter rather than a fault.
func (r SkipReason) Filtered() bool {
	return r == ReasonICMP
}

// Reasons lists every skip reason in declaration order.
func Reasons() []SkipReason {
	return []SkipReason{
		ReasonTooShort,
		ReasonUnsupportedLinkProtocol,
		ReasonICMP,
		ReasonTruncatedHeader,
		ReasonUndecodable,
		ReasonNoMarker,
	}
}

// SkipError reports a dropped frame.
type SkipError struct {
	Reason SkipReason
	Detail string
}

func (e *SkipError) Error() string {
	if e.Detail == "" {
		return "skip: " + e.Reason.String()
	}
	return "skip: " + e.Reason.String() + ": " + e.Detail
}

// Is makes errors.Is(err, ErrSkip) true for any skip.
func (e *SkipError) Is(target error) bool {
	return target == ErrSkip
}

// NewSkip creates a skip error for stages outside this package.
func NewSkip(reason SkipReason, detail string) error {
	return &SkipError{Reason: reason, Detail: detail}
}

// ReasonOf extracts the skip reason from err.
func ReasonOf(err error) (SkipReason, bool) {
	var se *SkipError
	if errors.As(err, &se) {
		return se.Reason, true
	}
	return 0, false
}

func skip(reason SkipReason) error {
	return &SkipError{Reason: reason}
}

func skipf(reason SkipReason, format string, args ...any) error {
	return &SkipError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
