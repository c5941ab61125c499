package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	amount := decimal.NewFromInt(10)
	req := TransferRequest{
		ToUsername: "  alice  ",
		Amount:     &amount,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.ToUsername)
	assert.True(t, req.Amount.Equal(amount), "non-string fields are untouched")
}

func TestSanitizeStruct_KeepsMarkup(t *testing.T) {
	req := ClaimUsernameRequest{Username: " <b>bob</b> "}
	SanitizeStruct(&req)

	assert.Equal(t, "<b>bob</b>", req.Username, "handles are opaque strings")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	type withPointer struct {
		Note *string
		Nil  *string
	}
	note := "  hello  "
	req := withPointer{Note: &note}
	SanitizeStruct(&req)

	assert.Equal(t, "hello", *req.Note)
	assert.Nil(t, req.Nil)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"ref-001",
		"REF_002",
		"a.b.c",
		"simple123",
		"3f0c9a1e-4b1d-4f3a-9d7e-0a4c2b1e9f00",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"ref 001",  // space
		"ref<001>", // angle brackets
		"ref;DROP", // semicolon
		"",         // empty
		"ref\n001", // newline
		"order:42", // scope separator
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

func TestBinding_ClaimUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		valid    bool
	}{
		{"ascii", "alice", true},
		{"multibyte", "김철수", true},
		{"too short", "ab", false},
		{"short after trim", "  ab  ", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(ClaimUsernameRequest{Username: tt.username})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestBinding_TransferRequiresAmount(t *testing.T) {
	err := binding.Validator.ValidateStruct(TransferRequest{ToUsername: "bob"})
	assert.Error(t, err)

	amount := decimal.RequireFromString("50.9")
	err = binding.Validator.ValidateStruct(TransferRequest{ToUsername: "bob", Amount: &amount})
	assert.NoError(t, err)
}

func TestBinding_TransferHeaders(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(TransferHeaders{}))
	assert.NoError(t, binding.Validator.ValidateStruct(TransferHeaders{IdempotencyKey: "order-1"}))
	assert.Error(t, binding.Validator.ValidateStruct(TransferHeaders{IdempotencyKey: "bad key"}))
	assert.Error(t, binding.Validator.ValidateStruct(TransferHeaders{IdempotencyKey: "x:y"}))
}
