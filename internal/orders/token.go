package orders

import "math/rand"

// Pickup tokens are what the counter calls out, so the alphabet skips the
// lookalikes (0/O, 1/I). Five characters is enough for a single canteen's
// open orders; there is no uniqueness check, collisions in a rush hour are
// an accepted risk.
const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const tokenLength = 5

func NewToken() string {
	b := make([]byte, tokenLength)
	for i := range b {
		b[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}
