package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValidateIdentityAssertion verifies an identity assertion issued by the
// external auth provider. The assertion is a query-encoded string carrying at
// least sub (provider subject id) and issued_at, signed with an HMAC-SHA256
// over the sorted key=value lines using the shared provider secret. Stale
// assertions (older than 1 hour) are rejected to mitigate replay.
func ValidateIdentityAssertion(assertion, providerSecret string) (url.Values, bool) {
	values, err := url.ParseQuery(assertion)
	if err != nil {
		return nil, false
	}

	sig := values.Get("sig")
	if sig == "" {
		return nil, false
	}
	values.Del("sig")

	var dataCheck []string
	for k, v := range values {
		dataCheck = append(dataCheck, k+"="+strings.Join(v, ""))
	}

	sort.Strings(dataCheck)
	dataString := strings.Join(dataCheck, "\n")

	secret := sha256.Sum256([]byte(providerSecret))
	h := hmac.New(sha256.New, secret[:])
	h.Write([]byte(dataString))

	calculated := h.Sum(nil)
	provided, err := hex.DecodeString(sig)
	if err != nil {
		return nil, false
	}

	if !hmac.Equal(calculated, provided) {
		return nil, false
	}

	if values.Get("sub") == "" {
		return nil, false
	}

	issuedAtStr := values.Get("issued_at")
	if issuedAtStr == "" {
		return nil, false
	}
	issuedAt, err := strconv.ParseInt(issuedAtStr, 10, 64)
	if err != nil {
		return nil, false
	}

	now := time.Now().Unix()
	// allow small clock skew, but reject anything older than 1 hour
	if now-issuedAt > 3600 || issuedAt-now > 300 {
		return nil, false
	}

	return values, true
}
