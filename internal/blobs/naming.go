package blobs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"readify-backend/internal/shared/util"
)

// NamingPolicy decides the storage key for uploaded bytes.
type NamingPolicy string

const (
	// NamingContentHash keys objects by the SHA-256 of their bytes. Identical uploads share
	// one object and different bytes never overwrite each other.
	NamingContentHash NamingPolicy = "content-hash"
	// NamingRandom prefixes every upload with a random 128-bit id.
	NamingRandom NamingPolicy = "random"
	// NamingDeterministic stores under the sanitized name alone; re-uploads overwrite.
	NamingDeterministic NamingPolicy = "deterministic"
)

// ParseNamingPolicy maps a configuration value to a policy. Empty selects content-hash.
func ParseNamingPolicy(v string) (NamingPolicy, error) {
	switch p := NamingPolicy(strings.ToLower(strings.TrimSpace(v))); p {
	case "":
		return NamingContentHash, nil
	case NamingContentHash, NamingRandom, NamingDeterministic:
		return p, nil
	default:
		return "", fmt.Errorf("unknown blob naming policy %q", v)
	}
}

func (p NamingPolicy) key(name string, data []byte) (string, error) {
	clean, err := util.SanitizeFileName(name)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	switch p {
	case NamingDeterministic:
		return clean, nil
	case NamingRandom:
		return path.Join(randomID(), clean), nil
	default:
		return path.Join(util.SHA256Hex(data), clean), nil
	}
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
