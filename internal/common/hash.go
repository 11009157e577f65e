package common

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// HashJSON returns the lowercase hex SHA-256 digest of v's JSON encoding.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
