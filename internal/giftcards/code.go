package giftcards

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// codeAlphabet excludes characters that misread when printed or scanned
// (0/O, 1/I/l).
const codeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const codePrefix = "GW-"

const codeLength = 12

// newCode generates a redemption code suitable for QR encoding.
func newCode() (string, error) {
	code, err := nanoid.Generate(codeAlphabet, codeLength)
	if err != nil {
		return "", fmt.Errorf("generate gift card code: %w", err)
	}
	return codePrefix + code, nil
}
