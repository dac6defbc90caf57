package capi

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"lead-gateway/internal/model"
)

// HashSHA256 returns the lowercase hex encoded SHA-256 digest of v.
func HashSHA256(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// HashEmail normalizes an email (trim, lower-case) and hashes it.
// It returns "" when nothing is left to hash.
func HashEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	return HashSHA256(email)
}

// HashPhone keeps only the digits of phone and hashes them.
// It returns "" when phone has no digits.
func HashPhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if digits == "" {
		return ""
	}
	return HashSHA256(digits)
}

// HashValue hashes v as-is, returning "" for an empty value.
func HashValue(v string) string {
	if v == "" {
		return ""
	}
	return HashSHA256(v)
}

// HashUserData builds the outbound user_data block. Raw email, phone, country
// and city never appear in the result.
func HashUserData(u model.UserData, meta model.RequestMeta) model.HashedUserData {
	return model.HashedUserData{
		ClientIPAddress: meta.ClientIP,
		ClientUserAgent: meta.UserAgent,
		Em:              HashEmail(u.Email),
		Ph:              HashPhone(u.Phone),
		FBC:             u.FBC,
		FBP:             u.FBP,
		Country:         HashValue(u.Country),
		Ct:              HashValue(u.City),
	}
}
