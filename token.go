package accounts

import (
	"crypto/rand"
	"encoding/hex"

	goerrors "github.com/goliatone/go-errors"
)

// OpaqueTokenBytes is the entropy of verification and reset tokens.
// 32 bytes is 256 bits, hex encoded to 64 characters for URL safety.
const OpaqueTokenBytes = 32

// TokenSource produces opaque tokens. Commands take one so tests can pin
// token values; production wiring uses NewOpaqueToken.
type TokenSource func() (string, error)

// NewOpaqueToken returns a cryptographically random token with no decodable
// structure. Verification and reset tokens are both minted here but always
// stored in independent columns with independent invalidation.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, OpaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes for token")
	}
	return hex.EncodeToString(buf), nil
}

func resolveTokenSource(src TokenSource) TokenSource {
	if src == nil {
		return NewOpaqueToken
	}
	return src
}
