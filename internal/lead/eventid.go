package lead

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	suffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffixLen      = 9
)

// EventID derives the dedup id shared by the browser pixel and the server
// event: {user_id}_Lead_{epoch_millis}_{suffix}.
func EventID(userID string, at time.Time, suffix string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return fmt.Sprintf("%s_Lead_%d_%s", userID, at.UnixMilli(), suffix)
}

// RandomSuffix returns suffixLen random base-36 characters.
func RandomSuffix() string {
	buf := make([]byte, suffixLen)
	base := big.NewInt(int64(len(suffixAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		buf[i] = suffixAlphabet[n.Int64()]
	}
	return string(buf)
}
