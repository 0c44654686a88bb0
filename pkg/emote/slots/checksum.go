package slots

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/adler32"
	"strings"
)

// ChecksumAlgorithm represents supported checksum algorithms
type ChecksumAlgorithm int

const (
	ChecksumSHA256 ChecksumAlgorithm = iota
	ChecksumSHA512
	ChecksumAdler32
)

func (c ChecksumAlgorithm) String() string {
	switch c {
	case ChecksumSHA256:
		return "sha256"
	case ChecksumSHA512:
		return "sha512"
	case ChecksumAdler32:
		return "adler32"
	default:
		return "unknown"
	}
}

// CalculateChecksum returns "algorithm:hexvalue" for data.
func CalculateChecksum(data []byte, algorithm ChecksumAlgorithm) string {
	var h hash.Hash
	switch algorithm {
	case ChecksumSHA512:
		h = sha512.New()
	case ChecksumAdler32:
		h = adler32.New()
	default:
		algorithm = ChecksumSHA256
		h = sha256.New()
	}

	h.Write(data)
	return algorithm.String() + ":" + hex.EncodeToString(h.Sum(nil))
}

// VerifyChecksum checks data against a prefixed checksum string.
func VerifyChecksum(data []byte, checksum string) (bool, error) {
	prefix, _, ok := strings.Cut(checksum, ":")
	if !ok {
		return false, fmt.Errorf("invalid checksum format: %s", checksum)
	}

	var algo ChecksumAlgorithm
	switch prefix {
	case "sha256":
		algo = ChecksumSHA256
	case "sha512":
		algo = ChecksumSHA512
	case "adler32":
		algo = ChecksumAdler32
	default:
		return false, fmt.Errorf("unknown checksum algorithm: %s", prefix)
	}

	return CalculateChecksum(data, algo) == checksum, nil
}
