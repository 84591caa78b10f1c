package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "dot thousands comma decimals", input: "1.299,00", want: "1299"},
		{name: "comma thousands dot decimals", input: "1,299.00", want: "1299"},
		{name: "space thousands comma decimals", input: "1 299,00", want: "1299"},
		{name: "comma decimals only", input: "1299,99", want: "1299.99"},
		{name: "plain decimal", input: "1299.99", want: "1299.99"},
		{name: "plain integer", input: "1299", want: "1299"},
		{name: "manat sign suffix", input: "59.99 ₼", want: "59.99"},
		{name: "azn suffix", input: "59.99 AZN", want: "59.99"},
		{name: "manat sign prefix", input: "₼ 2.449,99", want: "2449.99"},
		{name: "dot thousands no decimals", input: "1.299", want: "1299"},
		{name: "ambiguous dot treated as thousands", input: "10.999", want: "10999"},
		{name: "rounds to two decimals", input: "1299.995", want: "1300"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParsePriceInvalid(t *testing.T) {
	for _, input := range []string{"", "   ", "pulsuz", "₼"} {
		_, err := ParsePrice(input)
		assert.Error(t, err, "input: %q", input)
	}
}
