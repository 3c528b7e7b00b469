package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Clamp limits value to the [min, max] interval
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Clamp01 limits value to [0,1]
func Clamp01(value float64) float64 {
	return Clamp(value, 0, 1)
}

// HashKey derives a stable cache-key fragment from arbitrary text
func HashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
