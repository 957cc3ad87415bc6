package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet for short booking ids. Skips 0/O and 1/I so the id survives
// being read over the phone.
const shortIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateShortID returns a human-friendly booking reference like
// "CS-7KQ2M9XD". Collisions are guarded by the unique index on the column;
// callers retry on a unique violation.
func GenerateShortID() (string, error) {
	const length = 8

	id := make([]byte, length)
	max := big.NewInt(int64(len(shortIDAlphabet)))
	for i := range id {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate short id: %w", err)
		}
		id[i] = shortIDAlphabet[n.Int64()]
	}

	return "CS-" + string(id), nil
}
