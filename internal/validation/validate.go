// Package validation provides centralized input validation and key
// normalization logic.
//
// All object keys and bucket names are cleaned and validated here before
// any request reaches the remote endpoint.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/porterbay/transit/errors"
)

// MaxKeyLength is the longest object key the remote store accepts, in bytes.
const MaxKeyLength = 1024

// NormalizeKey cleans a caller-supplied object key into canonical form.
// Backslashes become forward slashes, characters below 0x20 are dropped,
// runs of slashes collapse to one, a single leading slash is stripped, and
// the result is truncated to MaxKeyLength bytes.
//
// NormalizeKey is a pure function and idempotent: feeding its output back
// in returns the same string.
func NormalizeKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")

	// Control characters are all single-byte, so filtering at the byte
	// level leaves multi-byte sequences untouched even when a previous
	// truncation split one.
	cleaned := make([]byte, 0, len(key))
	for i := 0; i < len(key); i++ {
		if key[i] >= 0x20 {
			cleaned = append(cleaned, key[i])
		}
	}
	key = string(cleaned)

	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}

	key = strings.TrimPrefix(key, "/")

	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}

	return key
}

// ValidateKey validates an object key according to remote store rules.
// Keys must be non-empty, at most MaxKeyLength bytes, and free of the
// control bytes the store rejects outright.
func ValidateKey(key string) error {
	if key == "" {
		return errors.New(errors.KindInvalidKey, "validateKey").
			WithMessage("object key cannot be empty")
	}

	if len(key) > MaxKeyLength {
		return errors.New(errors.KindInvalidKey, "validateKey").
			WithKey(key).
			WithMessage(fmt.Sprintf("object key cannot exceed %d bytes", MaxKeyLength))
	}

	for i := 0; i < len(key); i++ {
		if isInvalidKeyByte(key[i]) {
			return errors.New(errors.KindInvalidKey, "validateKey").
				WithKey(key).
				WithMessage("object key cannot contain control characters")
		}
	}

	return nil
}

// isInvalidKeyByte reports whether the byte is one the store rejects.
func isInvalidKeyByte(b byte) bool {
	switch b {
	case 0x00, 0x08, 0x0B, 0x0C, 0x0E, 0x1F:
		return true
	}
	return false
}

// ValidateBucketName validates that a bucket name is DNS-compliant.
func ValidateBucketName(bucket string) error {
	if err := validateBucketNameBasics(bucket); err != nil {
		return err
	}

	if err := validateBucketNameCharacters(bucket); err != nil {
		return err
	}

	return validateBucketNameStructure(bucket)
}

// SanitizeMetadata sanitizes metadata keys and values before they are sent
// as headers. Non-printable characters are removed and entries with empty
// keys are dropped.
func SanitizeMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}

	sanitized := make(map[string]string, len(metadata))
	for key, value := range metadata {
		k := sanitizeMetadataKey(key)
		if k == "" {
			continue
		}
		sanitized[k] = sanitizeMetadataValue(value)
	}

	return sanitized
}

// ValidateMetadata validates metadata keys and values according to the
// limits the store enforces on user metadata headers.
func ValidateMetadata(metadata map[string]string) error {
	if metadata == nil {
		return nil
	}

	for key, value := range metadata {
		if err := validateMetadataKey(key); err != nil {
			return err
		}
		if err := validateMetadataValue(value); err != nil {
			return err
		}
	}

	return nil
}

// ValidateContentType validates that a content type is a plausible MIME type.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil // Empty content type falls back to detection
	}

	mimePattern := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*\/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)
	if !mimePattern.MatchString(contentType) {
		return errors.New(errors.KindGeneric, "validateContentType").
			WithMessage("content type must be a valid MIME type")
	}

	return nil
}

// validateBucketNameBasics validates basic bucket name requirements
func validateBucketNameBasics(bucket string) error {
	if bucket == "" {
		return errors.New(errors.KindBucketMissing, "validateBucketName").
			WithBucket(bucket).
			WithMessage("bucket name cannot be empty")
	}

	// Bucket names must be between 3 and 63 characters long
	if len(bucket) < 3 || len(bucket) > 63 {
		return errors.New(errors.KindBucketMissing, "validateBucketName").
			WithBucket(bucket).
			WithMessage("bucket name must be between 3 and 63 characters long")
	}

	return nil
}

// validateBucketNameCharacters validates allowed characters in bucket names
func validateBucketNameCharacters(bucket string) error {
	// Bucket names can consist only of lowercase letters, numbers, dots, and hyphens
	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return errors.New(errors.KindBucketMissing, "validateBucketName").
				WithBucket(bucket).
				WithMessage("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	return nil
}

// validateBucketNameStructure validates bucket name structural requirements
func validateBucketNameStructure(bucket string) error {
	// Bucket names must not start or end with a hyphen or dot
	if bucket[0] == '-' || bucket[0] == '.' || bucket[len(bucket)-1] == '-' || bucket[len(bucket)-1] == '.' {
		return errors.New(errors.KindBucketMissing, "validateBucketName").
			WithBucket(bucket).
			WithMessage("bucket name cannot start or end with a hyphen or dot")
	}

	// Bucket names cannot be formatted as an IP address
	if isIPAddress(bucket) {
		return errors.New(errors.KindBucketMissing, "validateBucketName").
			WithBucket(bucket).
			WithMessage("bucket name cannot be formatted as an IP address")
	}

	// Bucket names cannot contain two adjacent periods or hyphens
	if hasAdjacentSpecialChars(bucket) {
		return errors.New(errors.KindBucketMissing, "validateBucketName").
			WithBucket(bucket).
			WithMessage("bucket name cannot contain two adjacent periods or hyphens")
	}

	return nil
}

// isValidBucketChar checks if a character is valid in a bucket name
func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

// hasAdjacentSpecialChars checks for adjacent special characters
func hasAdjacentSpecialChars(bucket string) bool {
	for i := 0; i < len(bucket)-1; i++ {
		if (bucket[i] == '.' && bucket[i+1] == '.') || (bucket[i] == '-' && bucket[i+1] == '-') {
			return true
		}
	}
	return false
}

// isIPAddress checks if a string is formatted as an IP address
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if len(part) == 0 {
			return true // Empty part still indicates IP-like format
		}
		num := 0
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
			num = num*10 + int(char-'0')
		}
		if num > 255 {
			return false
		}
	}

	return true
}

// sanitizeMetadataKey sanitizes metadata keys
func sanitizeMetadataKey(key string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(key))
}

// sanitizeMetadataValue sanitizes metadata values
func sanitizeMetadataValue(value string) string {
	// Keep newlines and tabs for multi-line values
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, value)
}

// validateMetadataKey validates a metadata key
func validateMetadataKey(key string) error {
	if key == "" {
		return errors.New(errors.KindGeneric, "validateMetadata").
			WithMessage("metadata key cannot be empty")
	}

	if len(key) > 128 {
		return errors.New(errors.KindGeneric, "validateMetadata").
			WithMessage("metadata key cannot exceed 128 characters")
	}

	// Keys cannot use prefixes reserved by the provider
	reservedPrefixes := []string{"aws:", "x-amz-", "x-amz:"}
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(strings.ToLower(key), prefix) {
			return errors.New(errors.KindGeneric, "validateMetadata").
				WithMessage(fmt.Sprintf("metadata key cannot start with reserved prefix: %s", prefix))
		}
	}

	for _, char := range key {
		if char < 32 || char > 126 {
			return errors.New(errors.KindGeneric, "validateMetadata").
				WithMessage("metadata key can only contain printable ASCII characters")
		}
	}

	return nil
}

// validateMetadataValue validates a metadata value
func validateMetadataValue(value string) error {
	// User metadata values are limited to 2KB in total
	if len(value) > 2048 {
		return errors.New(errors.KindGeneric, "validateMetadata").
			WithMessage("metadata value cannot exceed 2048 characters")
	}

	for _, char := range value {
		if !unicode.IsPrint(char) && char != '\n' && char != '\t' {
			return errors.New(errors.KindGeneric, "validateMetadata").
				WithMessage("metadata value can only contain printable characters")
		}
	}

	return nil
}
