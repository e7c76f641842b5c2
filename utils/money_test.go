package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	cases := map[string]struct {
		in   float64
		want string
	}{
		"zero":              {0, "$0"},
		"small whole":       {100, "$100"},
		"thousands":         {12500, "$12,500"},
		"millions":          {1234567, "$1,234,567"},
		"cents":             {25.5, "$25.50"},
		"single digit cent": {3.07, "$3.07"},
		"negative":          {-1500, "-$1,500"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAmount(tc.in))
		})
	}
}
