package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"
)

// Password bounds. The minimum counts characters so non-ASCII passphrases
// are not penalised; the maximum counts bytes because it caps hashing cost.
const (
	MinPasswordChars = 8
	MaxPasswordBytes = 1024
)

// ErrWeakPassword is returned for passwords that fail CheckPassword.
var ErrWeakPassword = errors.New("password must be 8 to 1024 characters and not blank")

// hashParams are the argon2id cost settings embedded in every stored hash.
type hashParams struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

var currentParams = hashParams{
	memory:  64 * 1024,
	time:    3,
	threads: 4,
	keyLen:  32,
	saltLen: 16,
}

var b64 = base64.RawStdEncoding

// CheckPassword applies the sign-up password rules without hashing.
func CheckPassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrWeakPassword
	}
	if utf8.RuneCountInString(password) < MinPasswordChars || strings.TrimSpace(password) == "" {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword checks the password and returns its argon2id hash in PHC
// string form: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>.
func HashPassword(password string) (string, error) {
	if err := CheckPassword(password); err != nil {
		return "", err
	}

	p := currentParams
	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches the stored hash.
// Malformed hashes and oversized passwords never match.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > MaxPasswordBytes {
		return false, nil
	}
	p, salt, key, ok := parsePHC(encodedHash)
	if !ok {
		return false, nil
	}
	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(key, got) == 1, nil
}

// parsePHC splits an argon2id PHC string. The parameters are taken from the
// hash itself so hashes made with older settings still verify.
func parsePHC(encoded string) (p hashParams, salt, key []byte, ok bool) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return p, nil, nil, false
	}

	for field := range strings.SplitSeq(parts[3], ",") {
		name, raw, found := strings.Cut(field, "=")
		if !found {
			return p, nil, nil, false
		}
		switch name {
		case "m":
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return p, nil, nil, false
			}
			p.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return p, nil, nil, false
			}
			p.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(raw, 10, 8)
			if err != nil {
				return p, nil, nil, false
			}
			p.threads = uint8(n)
		default:
			return p, nil, nil, false
		}
	}
	if p.memory == 0 || p.time == 0 || p.threads == 0 {
		return p, nil, nil, false
	}

	var err error
	if salt, err = b64.DecodeString(parts[4]); err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	if key, err = b64.DecodeString(parts[5]); err != nil || len(key) == 0 {
		return p, nil, nil, false
	}
	p.keyLen = uint32(len(key)) //nolint:gosec // decoded from a short base64 field
	p.saltLen = len(salt)
	return p, salt, key, true
}
