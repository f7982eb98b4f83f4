package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "alice", false},
		{"minimum length", "ab", false},
		{"trimmed to valid", "  bob  ", false},
		{"too short", "a", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("x", 51), true},
		{"maximum length", strings.Repeat("x", 50), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Username(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "alice@x.com", false},
		{"subdomain", "a@mail.example.org", false},
		{"missing at", "alice.x.com", true},
		{"missing tld", "alice@x", true},
		{"spaces", "ali ce@x.com", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Email(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "Aa1!aaaa", false},
		{"long valid", "SuperSecret9$", false},
		{"too short", "Aa1!aaa", true},
		{"no upper", "aa1!aaaa", true},
		{"no lower", "AA1!AAAA", true},
		{"no digit", "Aa!!aaaa", true},
		{"no special", "Aa1aaaaa", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOTP(t *testing.T) {
	assert.NoError(t, OTP("123456"))
	assert.Error(t, OTP("12345"))
	assert.Error(t, OTP("1234567"))
	assert.Error(t, OTP("12a456"))
	assert.Error(t, OTP(""))
}

func TestStatus(t *testing.T) {
	for _, s := range []string{"pending", "active", "inactive", "rejected", "suspended"} {
		assert.True(t, Status(s), s)
	}
	assert.False(t, Status("deleted"))
	assert.False(t, Status("ACTIVE"))
	assert.False(t, Status(""))
}
