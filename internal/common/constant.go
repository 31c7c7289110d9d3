package common

// AuthorizationHeaderName carries the caller's bearer token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName is echoed back on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"

// ShareTokenBytes is the amount of CSPRNG output behind a share link token
// (128 bits, hex encoded to 32 characters).
const ShareTokenBytes = 16
