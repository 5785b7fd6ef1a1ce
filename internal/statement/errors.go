package statement

import "fmt"

// ValidationKind identifies why an input batch or file was rejected before
// any extraction call was made.
type ValidationKind string

const (
	ValidationNoFiles         ValidationKind = "no_files"
	ValidationTooMany         ValidationKind = "too_many"
	ValidationUnsupportedType ValidationKind = "unsupported_type"
	ValidationUnknownMIMEType ValidationKind = "unknown_mime_type"
)

// ValidationError reports an input that never reached the extraction
// backend. Validation runs before any network call so a bad batch incurs
// no cost.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Kind)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Kind, e.Detail)
}

// ServiceKind classifies a failure of the extraction backend.
type ServiceKind string

const (
	ServiceAuth      ServiceKind = "auth"
	ServiceRateLimit ServiceKind = "rate_limit"
	ServiceTransport ServiceKind = "transport"
	ServiceOther     ServiceKind = "other"
)

// ServiceError wraps a transport, authentication or quota failure from the
// extraction backend. These are surfaced to the caller and never retried
// automatically; each call costs money.
type ServiceError struct {
	Kind ServiceKind
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction service failure: %s", e.Kind)
	}
	return fmt.Sprintf("extraction service failure: %s: %v", e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ParseKind identifies why an extraction response could not be turned into
// transactions.
type ParseKind string

const (
	ParseMalformedJSON  ParseKind = "malformed_json"
	ParseSchemaMismatch ParseKind = "schema_mismatch"
)

// ParseError reports model output that did not contain a valid transaction
// payload.
type ParseError struct {
	Kind   ParseKind
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parsing extraction response: %s", e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// AggregationKind identifies why a transaction set could not be summarized.
type AggregationKind string

const (
	AggregationNoTransactions AggregationKind = "no_transactions"
	AggregationInvalidDate    AggregationKind = "invalid_date"
)

// AggregationError reports a transaction set that cannot be summarized.
type AggregationError struct {
	Kind   AggregationKind
	Detail string
}

func (e *AggregationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("aggregation failed: %s", e.Kind)
	}
	return fmt.Sprintf("aggregation failed: %s: %s", e.Kind, e.Detail)
}
