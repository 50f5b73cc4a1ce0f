package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMobile(t *testing.T) {
	valid := []string{"9876543210", "6000000000", "7123456789", "8999999999"}
	for _, m := range valid {
		assert.True(t, ValidateMobile(m), "expected %q to be valid", m)
	}

	invalid := []string{
		"12345",       // too short
		"5876543210",  // starts below 6
		"98765432100", // too long
		"98765 43210", // contains space
		"+919876543210",
		"abcdefghij",
		"",
	}
	for _, m := range invalid {
		assert.False(t, ValidateMobile(m), "expected %q to be invalid", m)
	}
}

func TestMobileStructTag(t *testing.T) {
	type form struct {
		MobileNo string `validate:"required,mobile"`
	}

	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(&form{MobileNo: "9876543210"}))
	assert.Error(t, v.ValidateStruct(&form{MobileNo: "12345"}))
	assert.Error(t, v.ValidateStruct(&form{}))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("student@example.com"))
	assert.True(t, ValidateEmail("a.b+tag@sub.domain.in"))

	assert.False(t, ValidateEmail("not-an-email"))
	assert.False(t, ValidateEmail("@example.com"))
	assert.False(t, ValidateEmail("user@"))
	assert.False(t, ValidateEmail(""))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "hello", SanitizeString("  hello  "))
	assert.Equal(t, "hello", SanitizeString("hel\x00lo"))
}
