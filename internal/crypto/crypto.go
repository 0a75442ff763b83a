package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/google/uuid"
)

// Encoding selects the output alphabet for Token.
type Encoding string

const (
	Hex       Encoding = "hex"
	Base64    Encoding = "base64"
	Base64URL Encoding = "base64url"
)

// Alg selects the HMAC hash for Sign and Verify.
type Alg string

const (
	SHA256 Alg = "sha256"
	SHA512 Alg = "sha512"
)

// Token returns a random string of exactly length characters in the given
// encoding. Bytes come from crypto/rand only. Unknown encodings panic: they
// are wiring mistakes, not runtime conditions.
func Token(length int, enc Encoding) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("crypto: token length must be positive, got %d", length)
	}
	var n int
	switch enc {
	case Hex:
		n = (length + 1) / 2
	case Base64, Base64URL:
		n = 3 * ((length + 3) / 4)
	default:
		panic("crypto: unsupported token encoding " + string(enc))
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("crypto: read random bytes: %w", err)
	}
	var out string
	switch enc {
	case Hex:
		out = hex.EncodeToString(buf)
	case Base64:
		out = base64.RawStdEncoding.EncodeToString(buf)
	case Base64URL:
		out = base64.RawURLEncoding.EncodeToString(buf)
	}
	return out[:length], nil
}

// UUID returns a random RFC 4122 version 4 UUID.
func UUID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("crypto: generate uuid: %w", err)
	}
	return id.String(), nil
}

// ConstantTimeEqual compares two strings in time independent of where they
// first differ. When lengths differ it still burns a comparison over the
// shorter length before returning false, so a caller cannot time the
// length check apart from a content mismatch.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		n := len(a)
		if len(b) < n {
			n = len(b)
		}
		subtle.ConstantTimeCompare([]byte(a[:n]), []byte(a[:n]))
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Hash returns the hex SHA-256 digest of value. Used to fingerprint
// single-use tokens before they hit storage; never for passwords.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// Sign computes a hex HMAC over data with the given hash. Unknown
// algorithms panic.
func Sign(data string, secret []byte, alg Alg) string {
	mac := hmac.New(hmacHash(alg), secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the HMAC for data and compares it against signature
// in constant time.
func Verify(data, signature string, secret []byte, alg Alg) bool {
	return ConstantTimeEqual(Sign(data, secret, alg), signature)
}

func hmacHash(alg Alg) func() hash.Hash {
	switch alg {
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	default:
		panic("crypto: unsupported hmac algorithm " + string(alg))
	}
}
