// Package credentials generates starter login material for child profiles
// that a catalog leaves blank.
package credentials

import (
	"crypto/rand"
	"math/big"
)

// avatarColors is the palette new child profiles draw from
var avatarColors = []string{
	"#4a90e2", "#50e3c2", "#f5a623", "#d0021b", "#9013fe",
	"#7ed321", "#bd10e0", "#f8e71c", "#ff6f61", "#2ec4b6",
}

// PINLength is the number of digits in a generated PIN
const PINLength = 4

// GenerateKidPIN returns a random numeric PIN for the login pad
func GenerateKidPIN() (string, error) {
	pin := make([]byte, PINLength)
	for i := range pin {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		pin[i] = byte('0' + n.Int64())
	}
	return string(pin), nil
}

// PickAvatarColor returns a random palette color
func PickAvatarColor() (string, error) {
	return randomElement(avatarColors)
}

func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}
	return slice[n.Int64()], nil
}
