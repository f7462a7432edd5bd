package domain

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// SplitUnitNumber separates a unit number such as "C12" into its alphabetic
// prefix and numeric suffix. A number without digits yields suffix -1.
func SplitUnitNumber(number string) (string, int) {
	i := strings.IndexFunc(number, unicode.IsDigit)
	if i < 0 {
		return number, -1
	}
	n, err := strconv.Atoi(number[i:])
	if err != nil {
		return number, -1
	}
	return number[:i], n
}

// CompareUnitNumbers orders unit numbers by prefix, then by numeric suffix.
func CompareUnitNumbers(a, b string) int {
	pa, na := SplitUnitNumber(a)
	pb, nb := SplitUnitNumber(b)
	if c := strings.Compare(pa, pb); c != 0 {
		return c
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return strings.Compare(a, b)
}

// SortUnits orders units by natural unit number.
func SortUnits(units []Unit) {
	sort.SliceStable(units, func(i, j int) bool {
		return CompareUnitNumbers(units[i].Number, units[j].Number) < 0
	})
}
