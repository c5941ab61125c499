package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"
)

// IdempotencyRecord links a client-supplied key to the transfer it produced.
type IdempotencyRecord struct {
	Key           string    `json:"key"` // Format: "account_id:client_key"
	RequestHash   string    `json:"request_hash"`
	TransactionID uuid.UUID `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidateClientKey rejects client keys containing the scope separator.
// Account ids may contain ':', so the key is what keeps the split unique.
func ValidateClientKey(clientKey string) error {
	if strings.Contains(clientKey, ":") {
		return ErrInvalidIdempotencyKey
	}
	return nil
}

// BuildIdempotencyKey scopes a client key to the initiating account. The
// client key must have passed ValidateClientKey; the last ':' then always
// separates the two parts.
func BuildIdempotencyKey(accountID, clientKey string) string {
	return accountID + ":" + clientKey
}

// transferFingerprint is the normalized transfer payload that gets hashed.
type transferFingerprint struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// TransferRequestHash returns the hex SHA-256 of the RFC 8785 canonical JSON
// of a normalized transfer.
func TransferRequestHash(fromAccountID, toHandle string, amount int64) (string, error) {
	raw, err := json.Marshal(transferFingerprint{From: fromAccountID, To: toHandle, Amount: amount})
	if err != nil {
		return "", fmt.Errorf("marshal fingerprint: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize fingerprint: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
