package domain

import (
	"regexp"
	"strings"
)

// UnknownNeighborhood labels addresses the parser cannot place.
const UnknownNeighborhood = "Não informado"

// AddressParser extracts the neighborhood from a free-text address.
type AddressParser interface {
	Neighborhood(address string) string
}

var cityStatePattern = regexp.MustCompile(`^[\p{L} .'-]+\s*[-/]\s*[A-Za-z]{2}$`)

// CommaAddressParser expects "street, number, neighborhood, city-state" and
// reads the second-to-last comma segment.
type CommaAddressParser struct{}

// Neighborhood returns the neighborhood segment, or UnknownNeighborhood.
func (CommaAddressParser) Neighborhood(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 3 {
		return UnknownNeighborhood
	}
	candidate := strings.TrimSpace(parts[len(parts)-2])
	if candidate == "" || cityStatePattern.MatchString(candidate) || isNumber(candidate) {
		return UnknownNeighborhood
	}
	return candidate
}

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
