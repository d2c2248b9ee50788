package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CodeLength is the number of digits in a confirmation code.
const CodeLength = 10

// CodeGenerator produces confirmation codes. Uniqueness is enforced by
// persistence, not by the generator.
type CodeGenerator interface {
	Generate() (string, error)
}

type digitCodeGenerator struct{}

// NewCodeGenerator returns a generator of CodeLength random decimal digits.
func NewCodeGenerator() CodeGenerator {
	return digitCodeGenerator{}
}

var ten = big.NewInt(10)

func (digitCodeGenerator) Generate() (string, error) {
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate confirmation code: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

// IsConfirmationCode reports whether s has the shape of a generated code.
func IsConfirmationCode(s string) bool {
	if len(s) != CodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
