// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	digitChars        = "0123456789"
)

// SessionMarker generates a random alphanumeric string of the given length.
// It identifies one session in both the JWT payload and the session ledger.
func SessionMarker(length int) (string, error) {
	return randomString(alphanumericChars, length)
}

// NumericCode generates a random digit string of the given length, used for
// password reset codes delivered over WhatsApp.
func NumericCode(length int) (string, error) {
	return randomString(digitChars, length)
}

// randomString draws length characters from the charset using crypto/rand.
func randomString(charset string, length int) (string, error) {
	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))

	for i := range result {
		index, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("sec_random_string_failed: %w", err)
		}
		result[i] = charset[index.Int64()]
	}

	return string(result), nil
}
