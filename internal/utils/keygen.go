package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// GenerateInternalSKU builds a unique internal SKU for a product created by
// the matching pipeline. Format: SUP-PREFIX-randomhex, where PREFIX is derived
// from the product name (first two alphanumeric runs, upper-cased, max 8
// chars). Example: SUP-USBCCABL-a1b2c3d4.
func GenerateInternalSKU(name string) (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("SUP-%s-%s", skuPrefix(name), hex.EncodeToString(b)), nil
}

func skuPrefix(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToUpper(r))
		}
		if sb.Len() >= 8 {
			break
		}
	}
	if sb.Len() == 0 {
		return "ITEM"
	}
	return sb.String()
}
