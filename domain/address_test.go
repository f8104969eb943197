package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommaAddressParser(t *testing.T) {
	parser := CommaAddressParser{}
	cases := map[string]string{
		"Rua Santana, 120, Centro, Lavras-MG":                  "Centro",
		"Av. Dr. Sylvio Menicucci, 1001, Kennedy, Lavras - MG": "Kennedy",
		"Rua das Flores, Jardim Glória, Lavras-MG":             "Jardim Glória",
		"Rua sem número":           UnknownNeighborhood,
		"":                         UnknownNeighborhood,
		"Rua A, , Lavras-MG":       UnknownNeighborhood,
		"Rua A, 45, Lavras-MG":     UnknownNeighborhood,
		"Rua A, Lavras-MG, Brasil": UnknownNeighborhood,
	}
	for address, want := range cases {
		assert.Equal(t, want, parser.Neighborhood(address), address)
	}
}
