package sendaccess

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// GrantTypeSendAccess is the OAuth2 extension grant this service implements.
const GrantTypeSendAccess = "send_access"

// ScopeSendAccess is the only scope the grant issues tokens for.
const ScopeSendAccess = "api.send-access"

// TokenRequest is the form-encoded body of POST /connect/token. The three
// conditional fields belong to specific strategies; their absence is judged
// by the selected validator, not here.
type TokenRequest struct {
	GrantType  string `form:"grant_type" validate:"required,eq=send_access"`
	ClientID   string `form:"client_id" validate:"required"`
	SendID     string `form:"send_id" validate:"required"`
	Scope      string `form:"scope" validate:"required,eq=api.send-access"`
	DeviceType string `form:"device_type" validate:"required"`

	Email                   string `form:"email"`
	EmailOtp                string `form:"emailOtp"`
	ClientB64HashedPassword string `form:"clientB64HashedPassword"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateShape checks the request fields every phase requires, before any
// method resolution. A failure here is a request-shape error, independent
// of authentication outcome.
func validateShape(req TokenRequest) *GrantError {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalidRequest(DescGrantTypeInvalid)
	}

	// Field order in the struct fixes which violation wins, keeping the
	// response deterministic when several fields are missing.
	switch verrs[0].StructField() {
	case "GrantType":
		return invalidRequest(DescGrantTypeInvalid)
	case "ClientID":
		return invalidRequest(DescClientIDRequired)
	case "SendID":
		return invalidRequest(DescSendIDRequired)
	case "Scope":
		return invalidRequest(DescScopeInvalid)
	case "DeviceType":
		return invalidRequest(DescDeviceTypeRequired)
	default:
		return invalidRequest(DescGrantTypeInvalid)
	}
}

// wellFormedEmail reports whether the value parses as an email address.
func wellFormedEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
