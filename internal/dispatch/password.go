package dispatch

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	passwordAlphabet   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultPasswordLen = 8
	minPasswordLen     = 4
	maxPasswordLen     = 64
)

var lengthRe = regexp.MustCompile(`\d+`)

// GeneratePassword returns n characters drawn uniformly from letters and
// digits using crypto/rand.
func GeneratePassword(n int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, n)
	for i := range out {
		k, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("random: %w", err)
		}
		out[i] = passwordAlphabet[k.Int64()]
	}
	return string(out), nil
}
