package agmarknet

import "fmt"

// Class labels the result of one upstream call. Everything except
// ClassSuccess is an expected, non-fatal condition: callers branch on the
// class instead of unwrapping errors.
type Class int

const (
	ClassSuccess Class = iota
	ClassRateLimited
	ClassTimeout
	ClassUpstreamError
	ClassNetworkError
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassRateLimited:
		return "rate_limited"
	case ClassTimeout:
		return "timeout"
	case ClassUpstreamError:
		return "upstream_error"
	case ClassNetworkError:
		return "network_error"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Outcome describes how an upstream call ended.
type Outcome struct {
	Class      Class
	StatusCode int
	Err        error
}

func (o Outcome) OK() bool { return o.Class == ClassSuccess }

// Transient reports whether a retry could plausibly succeed.
func (o Outcome) Transient() bool {
	switch o.Class {
	case ClassRateLimited, ClassTimeout, ClassNetworkError:
		return true
	}
	return false
}

// Reason is a short human-readable failure description for response
// envelopes and logs.
func (o Outcome) Reason() string {
	if o.OK() {
		return ""
	}
	if o.Class == ClassUpstreamError || o.Class == ClassRateLimited {
		return fmt.Sprintf("API returned %d", o.StatusCode)
	}
	if o.Err != nil {
		return o.Err.Error()
	}
	return o.Class.String()
}

func success() Outcome { return Outcome{Class: ClassSuccess, StatusCode: 200} }
