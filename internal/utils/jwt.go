package utils // package utils provides helpers for session cookie tokens and random values

import (
    "crypto/rand"     // secure random number generation
    "encoding/base64" // base64 encoding for CSRF tokens
    "encoding/hex"    // hex encoding for hashed session ids
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"    // JWT library for signing the session cookie
    "golang.org/x/crypto/blake2b"     // keyed hashing of session ids
)

// ErrInvalidSessionToken is returned when a session cookie cannot be
// verified or does not carry a session id.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionToken represents the signed value placed in the session cookie.
// Token holds the compact JWT and Exp its expiry.  The JWT only carries the
// opaque session id; all session values live in the session store.
type SessionToken struct {
    Token string
    Exp   time.Time
}

// NewSessionToken signs an HS256 JWT whose "sid" claim is the given session
// id.  The cookie therefore cannot be forged or altered without the secret.
func NewSessionToken(secret, sessionID string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := jwt.MapClaims{
        "sid": sessionID,
        "exp": exp.Unix(),
        "iat": now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies a cookie value produced by NewSessionToken and
// returns the session id.  Expired tokens and tokens signed with any method
// other than HMAC are rejected.
func ParseSessionToken(secret, raw string) (string, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSessionToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return "", ErrInvalidSessionToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", ErrInvalidSessionToken
    }
    sid, ok := claims["sid"].(string)
    if !ok || sid == "" {
        return "", ErrInvalidSessionToken
    }
    return sid, nil
}

// HashSessionID returns the keyed BLAKE2b-256 digest of a session id as a hex
// string.  Session stores are keyed by this digest so that a leaked store
// dump cannot be replayed as cookies.
func HashSessionID(secret, sessionID string) string {
    key := []byte(secret)
    if len(key) > blake2b.Size {
        sum := blake2b.Sum256(key)
        key = sum[:]
    }
    h, err := blake2b.New256(key)
    if err != nil {
        // only reachable with a key longer than 64 bytes, handled above
        sum := blake2b.Sum256([]byte(secret + sessionID))
        return hex.EncodeToString(sum[:])
    }
    h.Write([]byte(sessionID))
    return hex.EncodeToString(h.Sum(nil))
}

// RandomBase64 returns n bytes of cryptographically secure random data
// encoded with standard base64.
func RandomBase64(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return base64.StdEncoding.EncodeToString(buf), nil
}

// EncodeCredential base64-encodes a credential before it is sent to the
// backend API, which expects encoded usernames and passwords.
func EncodeCredential(s string) string {
    return base64.StdEncoding.EncodeToString([]byte(s))
}
