// Package httperr maps HTTP status codes from provider APIs onto the
// domain error taxonomy so the retry policy can tell transient failures
// from permanent ones.
package httperr

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/docrisk/internal/core/domain"
)

// maxDetail caps how much of a response body is echoed into errors.
const maxDetail = 512

// FromStatus builds an error for a non-success response.
//
// 429 wraps domain.ErrRateLimited. Other 4xx codes except 408 wrap
// domain.ErrPermanent: bad credentials, missing models and malformed
// requests do not improve on retry. Everything else stays transient.
func FromStatus(provider string, status int, body string) error {
	detail := strings.TrimSpace(body)
	if len(detail) > maxDetail {
		detail = detail[:maxDetail] + "..."
	}
	if detail == "" {
		detail = http.StatusText(status)
	}

	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrRateLimited, status, detail)
	case status == http.StatusRequestTimeout:
		return fmt.Errorf("%s: status %d: %s", provider, status, detail)
	case status >= 400 && status < 500:
		return fmt.Errorf("%s: %w (status %d): %s", provider, domain.ErrPermanent, status, detail)
	default:
		return fmt.Errorf("%s: status %d: %s", provider, status, detail)
	}
}

// IsSuccess reports whether the status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
