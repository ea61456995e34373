package sendaccess

// OAuth2 error codes surfaced by the send_access grant. The token endpoint
// never answers with anything outside this taxonomy; collaborator failures
// are downgraded to invalid_request so response shape stays uniform.
const (
	ErrorInvalidRequest = "invalid_request"
	ErrorInvalidGrant   = "invalid_grant"
)

// Exact error_description strings. Clients and the enumeration-protection
// tests depend on these byte for byte.
const (
	DescGrantTypeInvalid    = "grant_type must be send_access"
	DescClientIDRequired    = "client_id is required"
	DescClientIDInvalid     = "client_id is invalid"
	DescScopeInvalid        = "scope must be api.send-access"
	DescDeviceTypeRequired  = "device_type is required"
	DescSendIDRequired      = "send_id is required"
	DescSendIDMalformed     = "send_id is invalid"
	DescPasswordRequired    = "clientB64HashedPassword is required"
	DescPasswordInvalid     = "clientB64HashedPassword is invalid"
	DescEmailRequired       = "email is required"
	DescEmailInvalid        = "email is invalid"
	DescEmailOtpSent        = "email otp sent"
	DescEmailOtpInvalid     = "email otp is invalid"
	DescEmailOtpExpired     = "email otp is expired"
	DescEmailOtpSendFailed  = "failed to send email otp"
	DescInvalidSendID       = "invalid send id"
	DescTokenIssuanceFailed = "failed to issue access token"
)

// GrantError is the OAuth2-shaped failure body of the token endpoint.
type GrantError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *GrantError) Error() string {
	return e.Code + ": " + e.Description
}

func invalidRequest(description string) *GrantError {
	return &GrantError{Code: ErrorInvalidRequest, Description: description}
}

func invalidGrant(description string) *GrantError {
	return &GrantError{Code: ErrorInvalidGrant, Description: description}
}
