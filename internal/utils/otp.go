package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateOTP returns a 6-digit numeric one-time passcode drawn uniformly
// from [100000, 999999].
func GenerateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(fmt.Sprintf("otp generation: %v", err))
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
