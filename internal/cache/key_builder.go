package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"qrgate/internal/params"
	"qrgate/internal/qrcode"
)

// identityVersion is mixed into every hash. Bump it if the rendered output
// for an unchanged identity ever changes.
const identityVersion = "qrgate/identity/v1"

// Identity is everything that determines a rendered image.
type Identity struct {
	Text   string
	Preset string
	ECC    qrcode.Level
	Quiet  int
}

// IdentityFromParams builds the Identity of a validated request.
func IdentityFromParams(p params.Params) Identity {
	return Identity{
		Text:   p.Data,
		Preset: p.Preset.ID,
		ECC:    p.ECC,
		Quiet:  p.Quiet,
	}
}

// HashIdentity returns the lowercase hex SHA-256 of id.
//
// Every field is written as <len>:<bytes>, so a delimiter inside Text
// cannot shift a field boundary.
func HashIdentity(id Identity) string {
	h := sha256.New()
	writeField(h, identityVersion)
	writeField(h, id.Text)
	writeField(h, id.Preset)
	writeField(h, strings.ToUpper(string(id.ECC)))
	writeField(h, strconv.Itoa(id.Quiet))
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, s string) {
	_, _ = h.Write([]byte(strconv.Itoa(len(s))))
	_, _ = h.Write([]byte{':'})
	_, _ = h.Write([]byte(s))
}

// IsHash reports whether s has the shape of a HashIdentity result.
func IsHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// CanonicalKey addresses a rendered image by preset and identity hash.
// It never includes query parameters.
type CanonicalKey struct {
	Preset string
	Hash   string
}

// BuildCanonicalKey hashes p into its canonical key.
func BuildCanonicalKey(p params.Params) CanonicalKey {
	return CanonicalKey{
		Preset: p.Preset.ID,
		Hash:   HashIdentity(IdentityFromParams(p)),
	}
}

// String converts the structured key into the final string used in Redis/map.
func (k CanonicalKey) String() string {
	// qr:<PRESET>:<HASH_HEX>
	return "qr:" + k.Preset + ":" + k.Hash
}

// Path is the canonical URL path for k.
func (k CanonicalKey) Path() string {
	return "/qr/" + k.Preset + "/" + k.Hash + ".svg"
}
