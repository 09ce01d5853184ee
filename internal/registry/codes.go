package registry

import (
	"crypto/rand"
	"math/big"
)

// codeAlphabet deliberately omits characters players misread when typing
// a code from a TV screen: 0/O, 1/I/L.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// codeLength keeps codes short enough to type and long enough that
// blind guessing is impractical at party scale.
const codeLength = 6

// generateCode draws a random room code. Uniqueness is the caller's
// responsibility via collision retry.
func generateCode() string {
	buf := make([]byte, codeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; nothing sensible to do but stop.
			panic(err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf)
}
