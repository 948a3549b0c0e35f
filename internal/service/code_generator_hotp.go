package service

import (
	"encoding/base32"
	"time"

	"coffeeshop/internal/utils"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const DefaultCodeDigits = 6

// HOTPCodeGenerator derives numeric codes from RFC 4226 HOTP with a fresh
// random secret per code, so consecutive codes are unrelated.
type HOTPCodeGenerator struct {
	Digits     otp.Digits
	SecretSize int
	Clock      Clock
}

func NewHOTPCodeGenerator(digits int) *HOTPCodeGenerator {
	if digits <= 0 {
		digits = DefaultCodeDigits
	}
	return &HOTPCodeGenerator{
		Digits:     otp.Digits(digits),
		SecretSize: 20,
		Clock:      RealClock{},
	}
}

func (g *HOTPCodeGenerator) Generate() (string, error) {
	raw, err := utils.RandomBytes(g.secretSize())
	if err != nil {
		return "", err
	}
	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
	return hotp.GenerateCodeCustom(secret, g.counter(), hotp.ValidateOpts{
		Digits:    g.digits(),
		Algorithm: otp.AlgorithmSHA1,
	})
}

func (g *HOTPCodeGenerator) counter() uint64 {
	if g.Clock == nil {
		return uint64(time.Now().UnixNano())
	}
	return uint64(g.Clock.Now().UnixNano())
}

func (g *HOTPCodeGenerator) digits() otp.Digits {
	if g.Digits == 0 {
		return otp.Digits(DefaultCodeDigits)
	}
	return g.Digits
}

func (g *HOTPCodeGenerator) secretSize() int {
	if g.SecretSize <= 0 {
		return 20
	}
	return g.SecretSize
}
