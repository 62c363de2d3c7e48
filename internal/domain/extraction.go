package domain

import "fmt"

// ExtractionRequest is the boundary input for the URL extraction pipeline
type ExtractionRequest struct {
	URL      string `json:"url"`
	Platform string `json:"platform,omitempty"`
}

// ContentDescriptor holds the best-effort page content produced by the
// fetcher. PageContent is always non-empty: when a live fetch fails it
// carries a synthetic instruction for the AI stage instead of an error.
type ContentDescriptor struct {
	PageContent string
	ImageURL    string
	Caption     string
}

// ProductFields is the sanitized model output, always fully populated
type ProductFields struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// ProductDraft is the normalized candidate listing produced by the pipeline.
// Every field carries a default when extraction yields nothing usable - the
// pipeline never returns a partially populated draft.
type ProductDraft struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Platform    string `json:"platform"`
	SourceURL   string `json:"sourceUrl"`
}

// ExtractionErrorKind identifies the failure class of an extraction attempt
type ExtractionErrorKind string

const (
	ErrKindInputValidation      ExtractionErrorKind = "input_validation"
	ErrKindPlatformProtected    ExtractionErrorKind = "platform_protected"
	ErrKindNetworkUnavailable   ExtractionErrorKind = "network_unavailable"
	ErrKindAIServiceUnavailable ExtractionErrorKind = "ai_service_unavailable"
	ErrKindUnknown              ExtractionErrorKind = "unknown"
)

// AIFailureReason narrows an AI-service failure so the boundary can render a
// specific user message
type AIFailureReason string

const (
	AIReasonInvalidKey       AIFailureReason = "invalid_key"
	AIReasonRateLimited      AIFailureReason = "rate_limited"
	AIReasonUnexpectedShape  AIFailureReason = "unexpected_shape"
	AIReasonEmpty            AIFailureReason = "empty"
	AIReasonJSONParseFailure AIFailureReason = "json_parse_failure"
)

// ExtractionError is the tagged error propagated unchanged from the point of
// failure to the HTTP boundary, which translates it to a status and message
type ExtractionError struct {
	Kind     ExtractionErrorKind
	Reason   AIFailureReason // set only for ErrKindAIServiceUnavailable
	Platform string          // set only for ErrKindPlatformProtected
	Detail   string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("extraction failed: %s (%s): %s", e.Kind, e.Reason, e.Detail)
	}
	return fmt.Sprintf("extraction failed: %s: %s", e.Kind, e.Detail)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewAIError builds an AI-service extraction error with a narrowed reason
func NewAIError(reason AIFailureReason, detail string, err error) *ExtractionError {
	return &ExtractionError{
		Kind:   ErrKindAIServiceUnavailable,
		Reason: reason,
		Detail: detail,
		Err:    err,
	}
}

// NewProtectedError marks a social URL that cannot be read without an
// official platform connection
func NewProtectedError(platform, detail string) *ExtractionError {
	return &ExtractionError{
		Kind:     ErrKindPlatformProtected,
		Platform: platform,
		Detail:   detail,
	}
}
