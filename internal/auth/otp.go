package auth

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// OTPTTL is the verification window from OTP generation.
const OTPTTL = 10 * time.Minute

// GenerateOTP returns a random 6-digit numeric code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
