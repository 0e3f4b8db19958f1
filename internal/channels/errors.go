package channels

import (
	"context"
	"errors"
	"net"

	"github.com/medibook/backend/internal/models"
)

// ErrorCode classifies a failed attempt for the delivery log
type ErrorCode string

const (
	CodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"
	CodeRecipientNotFound    ErrorCode = "RECIPIENT_NOT_FOUND"
	CodeRecipientDataMissing ErrorCode = "RECIPIENT_DATA_MISSING"
	CodeTemplateInvalid      ErrorCode = "TEMPLATE_INVALID"
	CodeProviderRejected     ErrorCode = "PROVIDER_REJECTED"
	CodeProviderTimeout      ErrorCode = "PROVIDER_TIMEOUT"
	CodeTokenDead            ErrorCode = "TOKEN_DEAD"
)

var (
	ErrConfigurationMissing = errors.New("channel disabled: configuration missing")
	ErrRecipientNotFound    = models.ErrRecipientNotFound
	ErrRecipientDataMissing = errors.New("recipient contact data missing")
	ErrTemplateInvalid      = errors.New("template invalid")
	ErrProviderRejected     = errors.New("provider rejected the request")
	ErrProviderTimeout      = errors.New("provider timed out")
	ErrTokenInvalid         = errors.New("push token no longer valid")
)

// CodeOf maps an error onto the delivery-log taxonomy
func CodeOf(err error) ErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTokenInvalid):
		return CodeTokenDead
	case errors.Is(err, ErrConfigurationMissing):
		return CodeConfigurationMissing
	case errors.Is(err, ErrRecipientNotFound):
		return CodeRecipientNotFound
	case errors.Is(err, ErrRecipientDataMissing):
		return CodeRecipientDataMissing
	case errors.Is(err, ErrTemplateInvalid):
		return CodeTemplateInvalid
	case errors.Is(err, ErrProviderTimeout), isTimeout(err):
		return CodeProviderTimeout
	default:
		return CodeProviderRejected
	}
}

// Failed builds the outcome for err
func Failed(err error) Outcome {
	return Outcome{ErrorCode: CodeOf(err), ErrorMessage: err.Error()}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
