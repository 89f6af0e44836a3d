package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	apperrors "github.com/axellelanca/shortlink/internal/errors"
)

// charset is the URL-safe alphabet codes are drawn from: 64 symbols, so an 8-character
// code carries 48 bits of entropy.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"

// CodeLength is the size of generated codes.
const CodeLength = 8

const (
	minSlugLength = 3
	maxSlugLength = 64
)

var slugRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedSlugs would be shadowed by fixed routes.
var reservedSlugs = map[string]struct{}{
	"api":    {},
	"auth":   {},
	"health": {},
	"url":    {},
}

// CodeGenerator produces candidate short codes. Uniqueness is not its job: the link
// store's unique index is the authority.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomCodeGenerator draws codes from crypto/rand.
type RandomCodeGenerator struct{}

func (RandomCodeGenerator) Generate() (string, error) {
	return GenerateCode()
}

// GenerateCode returns a random CodeLength-character code.
func GenerateCode() (string, error) {
	code := make([]byte, CodeLength)
	max := big.NewInt(int64(len(charset)))
	for i := range code {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// ValidateSlug checks a user-chosen code.
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLength || len(slug) > maxSlugLength {
		return apperrors.NewValidationError("customSlug", fmt.Sprintf("must be %d to %d characters long", minSlugLength, maxSlugLength))
	}
	if !slugRe.MatchString(slug) {
		return apperrors.NewValidationError("customSlug", "may only contain letters, digits, '-' and '_'")
	}
	if _, ok := reservedSlugs[strings.ToLower(slug)]; ok {
		return apperrors.NewValidationError("customSlug", fmt.Sprintf("%q is reserved", slug))
	}
	return nil
}
