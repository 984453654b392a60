package validation

import (
	"strings"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"already_clean", "folder/file.txt", "folder/file.txt"},
		{"backslashes", `folder\subfolder\file.txt`, "folder/subfolder/file.txt"},
		{"leading_slash_and_doubled", "/folder//file.txt", "folder/file.txt"},
		{"collapse_runs", "a///b////c", "a/b/c"},
		{"leading_slash", "/a/b", "a/b"},
		{"control_bytes_dropped", "file\x00na\x1fme.txt", "filename.txt"},
		{"backslash_run", `a\\\b`, "a/b"},
		{"empty", "", ""},
		{"only_slashes", "///", ""},
		{"unicode_untouched", "файл.txt", "файл.txt"},
		{"truncated", strings.Repeat("a", 1500), strings.Repeat("a", MaxKeyLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKey(tt.key)
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey_Idempotent(t *testing.T) {
	inputs := []string{
		"folder/file.txt",
		`\\a\\b\\c`,
		"/folder//file.txt",
		"file\x00\x01\x02.txt",
		strings.Repeat("a", 2000),
		// Truncation at the byte limit can split a multi-byte rune; the
		// leftover lead byte must survive a second pass unchanged.
		strings.Repeat("a", MaxKeyLength-1) + "я",
	}

	for _, in := range inputs {
		once := NormalizeKey(in)
		twice := NormalizeKey(once)
		if once != twice {
			t.Errorf("NormalizeKey not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
		errMsg    string
	}{
		{"valid_simple", "my-file.txt", false, ""},
		{"valid_with_path", "folder/subfolder/file.txt", false, ""},
		{"valid_unicode", "файл.txt", false, ""},
		{"valid_spaces", "file with spaces.txt", false, ""},
		{"valid_max_length", strings.Repeat("a", MaxKeyLength), false, ""},
		{"newline_allowed", "file\nname.txt", false, ""},

		{"empty", "", true, "object key cannot be empty"},
		{
			"too_long",
			strings.Repeat("a", MaxKeyLength+1),
			true,
			"object key cannot exceed 1024 bytes",
		},
		{"null_byte", "file\x00.txt", true, "object key cannot contain control characters"},
		{"backspace", "file\x08.txt", true, "object key cannot contain control characters"},
		{"vertical_tab", "file\x0b.txt", true, "object key cannot contain control characters"},
		{"form_feed", "file\x0c.txt", true, "object key cannot contain control characters"},
		{"shift_out", "file\x0e.txt", true, "object key cannot contain control characters"},
		{"unit_separator", "file\x1f.txt", true, "object key cannot contain control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateKey(%q) expected error, got nil", tt.key)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateKey(%q) error = %q, want to contain %q", tt.key, err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateKey(%q) expected no error, got %q", tt.key, err)
				}
			}
		})
	}
}

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		wantError bool
		errMsg    string
	}{
		// Valid bucket names
		{"valid_simple", "my-bucket", false, ""},
		{"valid_with_numbers", "my-bucket123", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_with_hyphens", "my-bucket-name", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},
		{"valid_leading_digit", "1bucket", false, ""},

		// Invalid bucket names
		{"empty", "", true, "bucket name cannot be empty"},
		{"too_short", "ab", true, "bucket name must be between 3 and 63 characters long"},
		{
			"too_long",
			strings.Repeat("a", 64),
			true,
			"bucket name must be between 3 and 63 characters long",
		},
		{
			"starts_with_hyphen",
			"-bucket",
			true,
			"bucket name cannot start or end with a hyphen or dot",
		},
		{
			"ends_with_hyphen",
			"bucket-",
			true,
			"bucket name cannot start or end with a hyphen or dot",
		},
		{
			"starts_with_dot",
			".bucket",
			true,
			"bucket name cannot start or end with a hyphen or dot",
		},
		{"ends_with_dot", "bucket.", true, "bucket name cannot start or end with a hyphen or dot"},
		{
			"contains_uppercase",
			"MyBucket",
			true,
			"bucket name can only contain lowercase letters, numbers, dots, and hyphens",
		},
		{
			"contains_underscore",
			"my_bucket",
			true,
			"bucket name can only contain lowercase letters, numbers, dots, and hyphens",
		},
		{
			"contains_space",
			"my bucket",
			true,
			"bucket name can only contain lowercase letters, numbers, dots, and hyphens",
		},
		{"ip_address", "192.168.1.1", true, "bucket name cannot be formatted as an IP address"},
		{
			"double_dots",
			"my..bucket",
			true,
			"bucket name cannot contain two adjacent periods or hyphens",
		},
		{
			"double_hyphens",
			"my--bucket",
			true,
			"bucket name cannot contain two adjacent periods or hyphens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateBucketName(%q) expected error, got nil", tt.bucket)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateBucketName(%q) error = %q, want to contain %q", tt.bucket, err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateBucketName(%q) expected no error, got %q", tt.bucket, err)
				}
			}
		})
	}
}

func TestSanitizeMetadata(t *testing.T) {
	tests := []struct {
		name     string
		input    map[string]string
		expected map[string]string
	}{
		{
			name:     "nil_metadata",
			input:    nil,
			expected: nil,
		},
		{
			name:     "empty_metadata",
			input:    map[string]string{},
			expected: map[string]string{},
		},
		{
			name: "remove_control_chars",
			input: map[string]string{
				"key1": "value\x00with\x01null",
				"key2": "value\nwith\nnewlines",
				"key3": "value\twith\ttabs",
			},
			expected: map[string]string{
				"key1": "valuewithnull",
				"key2": "value\nwith\nnewlines",
				"key3": "value\twith\ttabs",
			},
		},
		{
			name: "sanitize_keys_and_values",
			input: map[string]string{
				"Key\x01With\x02Control": "Value\x03With\x04Control",
				"Normal-Key":             "Normal Value",
			},
			expected: map[string]string{
				"KeyWithControl": "ValueWithControl",
				"Normal-Key":     "Normal Value",
			},
		},
		{
			name: "keys_trimmed",
			input: map[string]string{
				"  padded-key  ": "value",
			},
			expected: map[string]string{
				"padded-key": "value",
			},
		},
		{
			name: "empty_keys_dropped",
			input: map[string]string{
				"":         "orphaned value",
				"\x01\x02": "key collapses to nothing",
				"kept":     "value",
			},
			expected: map[string]string{
				"kept": "value",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeMetadata(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf(
					"SanitizeMetadata() length mismatch: got %d, want %d",
					len(result),
					len(tt.expected),
				)
			}

			for k, v := range tt.expected {
				if result[k] != v {
					t.Errorf("SanitizeMetadata()[%q] = %q, want %q", k, result[k], v)
				}
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name      string
		metadata  map[string]string
		wantError bool
		errMsg    string
	}{
		{
			name:      "nil_metadata",
			metadata:  nil,
			wantError: false,
		},
		{
			name:      "empty_metadata",
			metadata:  map[string]string{},
			wantError: false,
		},
		{
			name: "valid_metadata",
			metadata: map[string]string{
				"content-owner": "platform-team",
				"cache-control": "max-age=3600",
				"revision":      "42",
			},
			wantError: false,
		},
		{
			name: "multiline_value",
			metadata: map[string]string{
				"notes": "line one\nline two\tindented",
			},
			wantError: false,
		},
		{
			name: "too_long_value",
			metadata: map[string]string{
				"long-value": strings.Repeat("a", 2049),
			},
			wantError: true,
			errMsg:    "metadata value cannot exceed 2048 characters",
		},
		{
			name: "aws_reserved_prefix",
			metadata: map[string]string{
				"aws:some-key": "value",
			},
			wantError: true,
			errMsg:    "metadata key cannot start with reserved prefix",
		},
		{
			name: "x_amz_reserved_prefix",
			metadata: map[string]string{
				"x-amz-meta-custom": "value",
			},
			wantError: true,
			errMsg:    "metadata key cannot start with reserved prefix",
		},
		{
			name: "reserved_prefix_case_insensitive",
			metadata: map[string]string{
				"X-Amz-Meta-Custom": "value",
			},
			wantError: true,
			errMsg:    "metadata key cannot start with reserved prefix",
		},
		{
			name: "control_characters_in_value",
			metadata: map[string]string{
				"key": "value\x00with\x01null",
			},
			wantError: true,
			errMsg:    "metadata value can only contain printable characters",
		},
		{
			name: "empty_key",
			metadata: map[string]string{
				"": "value",
			},
			wantError: true,
			errMsg:    "metadata key cannot be empty",
		},
		{
			name: "too_long_key",
			metadata: map[string]string{
				strings.Repeat("a", 129): "value",
			},
			wantError: true,
			errMsg:    "metadata key cannot exceed 128 characters",
		},
		{
			name: "non_ascii_key",
			metadata: map[string]string{
				"clé": "value",
			},
			wantError: true,
			errMsg:    "metadata key can only contain printable ASCII characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.metadata)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateMetadata() expected error, got nil")
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateMetadata() error = %q, want to contain %q", err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateMetadata() expected no error, got %q", err)
				}
			}
		})
	}
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantError   bool
		errMsg      string
	}{
		{"empty", "", false, ""},
		{"valid_mime", "application/json", false, ""},
		{"valid_with_params", "text/plain; charset=utf-8", false, ""},
		{"valid_vendor_tree", "application/vnd.api+json", false, ""},
		{"missing_slash", "notamimetype", true, "content type must be a valid MIME type"},
		{"extra_slashes", "invalid/mime/type/extra", true, "content type must be a valid MIME type"},
		{"leading_slash", "/json", true, "content type must be a valid MIME type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContentType(tt.contentType)
			if tt.wantError {
				if err == nil {
					t.Errorf("ValidateContentType(%q) expected error, got nil", tt.contentType)
				} else if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateContentType(%q) error = %q, want to contain %q", tt.contentType, err.Error(), tt.errMsg)
				}
			} else {
				if err != nil {
					t.Errorf("ValidateContentType(%q) expected no error, got %q", tt.contentType, err)
				}
			}
		})
	}
}

func BenchmarkNormalizeKey(b *testing.B) {
	keys := []string{
		"simple-file.txt",
		"folder/subfolder/deep/nested/file.txt",
		`windows\style\path\file.txt`,
		"/leading//doubled///slashes.txt",
	}

	for _, key := range keys {
		b.Run(key, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = NormalizeKey(key)
			}
		})
	}
}

func BenchmarkValidateKey(b *testing.B) {
	validKeys := []string{
		"simple-file.txt",
		"folder/subfolder/deep/nested/file.txt",
		"unicode-文件名.txt",
	}

	for _, key := range validKeys {
		b.Run("valid_"+key, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = ValidateKey(key)
			}
		})
	}
}

func BenchmarkSanitizeMetadata(b *testing.B) {
	metadata := map[string]string{
		"content-owner":  "platform-team",
		"cache-control":  "max-age=3600",
		"custom-header":  "value-with-control\x00chars",
		"another-header": "another-value",
		"long-value":     strings.Repeat("a", 100),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SanitizeMetadata(metadata)
	}
}
