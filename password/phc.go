package password

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

func encodePHC(p phc) string {
	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		p.memory,
		p.time,
		p.parallelism,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.hash),
	)
}

// decodePHC parses $argon2id$v=19$m=..,t=..,p=..$salt$hash. Salt and hash are
// accepted with or without base64 padding.
func decodePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: format", ErrInvalidHash)
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, fmt.Errorf("%w: version", ErrInvalidHash)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHash, version)
	}

	out := &phc{}
	if err := parseParams(parts[3], out); err != nil {
		return nil, err
	}

	if out.salt, err = decodeB64(parts[4]); err != nil || len(out.salt) < int(minSaltLength) {
		return nil, fmt.Errorf("%w: salt", ErrInvalidHash)
	}
	if out.hash, err = decodeB64(parts[5]); err != nil || len(out.hash) == 0 {
		return nil, fmt.Errorf("%w: hash", ErrInvalidHash)
	}
	return out, nil
}

func parseParams(part string, out *phc) error {
	var seen int
	for _, pair := range strings.Split(part, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("%w: parameter %q", ErrInvalidHash, pair)
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return fmt.Errorf("%w: memory", ErrInvalidHash)
			}
			out.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return fmt.Errorf("%w: time", ErrInvalidHash)
			}
			out.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return fmt.Errorf("%w: parallelism", ErrInvalidHash)
			}
			out.parallelism = uint8(n)
		default:
			return fmt.Errorf("%w: unsupported parameter %q", ErrInvalidHash, k)
		}
		seen++
	}
	if seen != 3 || out.memory == 0 || out.time == 0 || out.parallelism == 0 {
		return fmt.Errorf("%w: missing parameters", ErrInvalidHash)
	}
	return nil
}

func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
