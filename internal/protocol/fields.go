package protocol

import "strings"

// FieldDirection declares which side of the bridge may originate writes to a
// simulated-device field. The direction is fixed at registration time.
type FieldDirection int

const (
	// DirectionUnknown carries no prefix; the field is neither polled
	// outward nor guarded inbound.
	DirectionUnknown FieldDirection = iota
	// DirectionInput flows toward the robot code (">" prefix).
	DirectionInput
	// DirectionOutput flows from the robot code ("<" prefix). Such fields
	// are never echoed back to the counterpart.
	DirectionOutput
	// DirectionBidir flows both ways ("<>" prefix).
	DirectionBidir
)

// Prefix returns the wire marker for the direction.
func (d FieldDirection) Prefix() string {
	switch d {
	case DirectionInput:
		return ">"
	case DirectionOutput:
		return "<"
	case DirectionBidir:
		return "<>"
	}
	return ""
}

func (d FieldDirection) String() string {
	switch d {
	case DirectionInput:
		return "input"
	case DirectionOutput:
		return "output"
	case DirectionBidir:
		return "bidir"
	}
	return "unknown"
}

// FieldIdent merges a bare field name and its direction into the wire
// identifier, e.g. ("accelX", DirectionBidir) -> "<>accelX".
func FieldIdent(name string, dir FieldDirection) string {
	return dir.Prefix() + name
}

// ParseFieldIdent splits a wire identifier into bare name and direction.
// An identifier without a prefix parses to DirectionUnknown. "<>" must be
// checked before "<".
func ParseFieldIdent(ident string) (name string, dir FieldDirection) {
	switch {
	case strings.HasPrefix(ident, "<>"):
		return ident[2:], DirectionBidir
	case strings.HasPrefix(ident, ">"):
		return ident[1:], DirectionInput
	case strings.HasPrefix(ident, "<"):
		return ident[1:], DirectionOutput
	}
	return ident, DirectionUnknown
}
