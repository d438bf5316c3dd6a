package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected Ordering
	}{
		{name: "equal", a: "1.2.3", b: "1.2.3", expected: Equal},
		{name: "zero padding", a: "1.2", b: "1.2.0", expected: Equal},
		{name: "zero padding long tail", a: "1", b: "1.0.0.0", expected: Equal},
		{name: "major wins over longer minor", a: "2.0", b: "1.9.9", expected: Greater},
		{name: "numeric not lexical", a: "1.10", b: "1.9", expected: Greater},
		{name: "patch less", a: "1.2.3", b: "1.2.4", expected: Less},
		{name: "extra non-zero segment", a: "1.2.0.1", b: "1.2", expected: Greater},
		{name: "non-numeric segment is zero", a: "1.x", b: "1.0", expected: Equal},
		{name: "prerelease suffix is zero", a: "1.2.3-beta", b: "1.2.0", expected: Equal},
		{name: "empty string", a: "", b: "0", expected: Equal},
		{name: "empty vs version", a: "", b: "0.0.1", expected: Less},
		{name: "negative is malformed", a: "1.-1", b: "1.0", expected: Equal},
		{name: "whitespace tolerated", a: " 2 . 1", b: "2.1", expected: Equal},
		{name: "overflow saturates", a: "99999999999999999999999", b: "18446744073709551614", expected: Greater},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CompareVersions(tt.a, tt.b))
		})
	}
}

func TestCompareVersions_Antisymmetric(t *testing.T) {
	versions := []string{"", "0", "1", "1.0", "1.0.1", "1.2", "1.10", "2.0", "2.0.0.0.1", "abc", "3.x.1", "10.0"}

	for _, a := range versions {
		assert.Equal(t, Equal, CompareVersions(a, a), "compare(%q, %q)", a, a)
		for _, b := range versions {
			ab := CompareVersions(a, b)
			ba := CompareVersions(b, a)
			assert.Equal(t, ab, -ba, "compare(%q, %q)=%s but compare(%q, %q)=%s", a, b, ab, b, a, ba)
			assert.Equal(t, ab == Greater, ba == Less)
		}
	}
}

func TestIsVersionGreater(t *testing.T) {
	assert.True(t, IsVersionGreater("2.0", "1.9.9"))
	assert.False(t, IsVersionGreater("1.2", "1.2.0"))
	assert.False(t, IsVersionGreater("1.0", "1.0.1"))
}

func TestOrderingString(t *testing.T) {
	assert.Equal(t, "less", Less.String())
	assert.Equal(t, "equal", Equal.String())
	assert.Equal(t, "greater", Greater.String())
	assert.Equal(t, "unknown", Ordering(7).String())
}
