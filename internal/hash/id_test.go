package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID(t *testing.T) {
	tests := []struct {
		name string
		data string
		id   uint64
	}{
		{"empty string", "", 0xef46db3751d8e999},
		{"tag path", `weapons\pistol\pistol.weapon`, ID(`weapons\pistol\pistol.weapon`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.id, ID(tt.data))
		})
	}

	t.Run("distinct paths hash differently", func(t *testing.T) {
		assert.NotEqual(t, ID(`a\b.weapon`), ID(`a\c.weapon`))
	})
}
