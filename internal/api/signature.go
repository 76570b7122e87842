package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SignatureHeader carries the form provider's HMAC of the raw body.
const SignatureHeader = "Tally-Signature"

// VerifySignature checks the webhook signature when a signing secret is
// configured: base64 HMAC-SHA256 of the raw request body, compared in
// constant time before any parsing. Without a secret the check is disabled.
func VerifySignature(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return next(c)
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

			got := c.Request().Header.Get(SignatureHeader)
			if got == "" || !hmac.Equal([]byte(expected), []byte(got)) {
				return echo.NewHTTPError(http.StatusForbidden, "signature mismatch")
			}
			return next(c)
		}
	}
}
