package crypto

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenLengthAndCharset(t *testing.T) {
	cases := []struct {
		enc     Encoding
		pattern string
	}{
		{Hex, `^[0-9a-f]+$`},
		{Base64, `^[A-Za-z0-9+/]+$`},
		{Base64URL, `^[A-Za-z0-9_-]+$`},
	}
	for _, tc := range cases {
		re := regexp.MustCompile(tc.pattern)
		for _, length := range []int{1, 2, 15, 16, 32, 33, 64} {
			got, err := Token(length, tc.enc)
			require.NoError(t, err)
			require.Len(t, got, length, "encoding %s", tc.enc)
			require.True(t, re.MatchString(got), "token %q not in %s charset", got, tc.enc)
		}
	}
}

func TestTokenUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok, err := Token(16, Hex)
		require.NoError(t, err)
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token after %d draws: %s", i, tok)
		}
		seen[tok] = struct{}{}
	}
}

func TestTokenRejectsNonPositiveLength(t *testing.T) {
	_, err := Token(0, Hex)
	require.Error(t, err)
	_, err = Token(-4, Base64URL)
	require.Error(t, err)
}

func TestTokenPanicsOnUnknownEncoding(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = Token(16, Encoding("rot13"))
	})
}

func TestUUIDShape(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	prev := ""
	for i := 0; i < 64; i++ {
		id, err := UUID()
		require.NoError(t, err)
		require.True(t, re.MatchString(id), "not a v4 uuid: %s", id)
		require.NotEqual(t, prev, id)
		prev = id
	}
}

func TestConstantTimeEqual(t *testing.T) {
	require.True(t, ConstantTimeEqual("", ""))
	require.True(t, ConstantTimeEqual("abc", "abc"))
	require.False(t, ConstantTimeEqual("abc", "abd"))
	require.False(t, ConstantTimeEqual("abc", "ab"))
	require.False(t, ConstantTimeEqual("", "a"))

	// Mismatches at every divergence point must all come back false.
	base := strings.Repeat("a", 64)
	for i := 0; i < len(base); i++ {
		mutated := base[:i] + "b" + base[i+1:]
		require.False(t, ConstantTimeEqual(base, mutated), "divergence at %d", i)
	}
}

func TestHashStableAndHex(t *testing.T) {
	h1 := Hash("reset-token")
	h2 := Hash("reset-token")
	require.Equal(t, h1, h2)
	require.Len(t, h1, 64)
	require.NotEqual(t, h1, Hash("reset-token2"))
	require.NotContains(t, h1, "reset-token")
}

func TestSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("wall-hmac-secret")
	for _, alg := range []Alg{SHA256, SHA512} {
		sig := Sign("payload", secret, alg)
		require.True(t, Verify("payload", sig, secret, alg))
		require.False(t, Verify("payload2", sig, secret, alg))
		require.False(t, Verify("payload", sig, []byte("other"), alg))

		tampered := []byte(sig)
		if tampered[0] == 'a' {
			tampered[0] = 'b'
		} else {
			tampered[0] = 'a'
		}
		require.False(t, Verify("payload", string(tampered), secret, alg))
	}
}

func TestSignPanicsOnUnknownAlg(t *testing.T) {
	assert.Panics(t, func() {
		Sign("payload", []byte("secret"), Alg("md5"))
	})
}

func TestHashPasswordClampsCost(t *testing.T) {
	hashed, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, MinPasswordCost, cost)

	assert.True(t, CheckPassword(hashed, "s3cret!"))
	assert.False(t, CheckPassword(hashed, "s3cret"))
}
