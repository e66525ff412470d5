package model

import "fmt"

// UseCodeResult is the outcome of a redemption attempt.
// Failure is a business-rule rejection (unknown or already used code),
// Exception is an infrastructure fault. The numeric values are part of the wire contract.
type UseCodeResult byte

const (
	UseCodeFailure   UseCodeResult = 0
	UseCodeSuccess   UseCodeResult = 1
	UseCodeException UseCodeResult = 2
)

// String returns the text form of the result.
func (r UseCodeResult) String() string {
	switch r {
	case UseCodeFailure:
		return "FAILURE"
	case UseCodeSuccess:
		return "SUCCESS"
	case UseCodeException:
		return "EXCEPTION"
	default:
		return fmt.Sprintf("UseCodeResult(%d)", byte(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r UseCodeResult) MarshalText() ([]byte, error) {
	switch r {
	case UseCodeFailure, UseCodeSuccess, UseCodeException:
		return []byte(r.String()), nil
	default:
		return nil, fmt.Errorf("invalid use code result: %d", byte(r))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *UseCodeResult) UnmarshalText(text []byte) error {
	switch string(text) {
	case "FAILURE":
		*r = UseCodeFailure
	case "SUCCESS":
		*r = UseCodeSuccess
	case "EXCEPTION":
		*r = UseCodeException
	default:
		return fmt.Errorf("invalid use code result: %q", string(text))
	}
	return nil
}
