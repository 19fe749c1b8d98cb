package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "A - B", NormalizeAddress("A, B"))
	assert.Equal(t, "12 Main St", NormalizeAddress("12 Main St"))
	assert.Equal(t, "a - b - c", NormalizeAddress("a, b, c"))
}

func TestCompute_LiteralVectors(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		address  string
		expected string
	}{
		{"comma normalized", "Test", "A, B", "1fd1b9ad26ffe84fe1f18733f8e7ef57d0ddb7b0090f9e5b58a680e7ac891050"},
		{"unicode name", "Cơm Nhà", "12 Main St", "1b01a89dc2e42862a81926911b042939ee1d953175595406864cc672b327ba08"},
		{"already normalized address", "Phở Bò", "5 Hàng Bông - Hoàn Kiếm", "e28614155a886897f09ad1938ebcef2b448ec9a1c27832a606a82d483651d26e"},
		{"empty", "", "", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Compute(tt.itemName, tt.address))
		})
	}
}

func TestCompute_Deterministic(t *testing.T) {
	first := Compute("Cơm Nhà", "12 Main St")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute("Cơm Nhà", "12 Main St"))
	}
	assert.Len(t, first, 64)
}

func TestCompute_RawAndNormalizedAddressAgree(t *testing.T) {
	assert.Equal(t, Compute("Test", "A, B"), Compute("Test", "A - B"))
	assert.NotEqual(t, Compute("Test", "A, B"), Compute("Test2", "A, B"))
}
