package vision

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultDictionary is the marker family printed for the cube.
const DefaultDictionary = "DICT_4X4_50"

// dictionarySizes lists the supported OpenCV predefined dictionaries with
// the number of marker IDs each holds.
var dictionarySizes = map[string]int{
	"DICT_4X4_50":         50,
	"DICT_4X4_100":        100,
	"DICT_4X4_250":        250,
	"DICT_4X4_1000":       1000,
	"DICT_5X5_50":         50,
	"DICT_5X5_100":        100,
	"DICT_5X5_250":        250,
	"DICT_5X5_1000":       1000,
	"DICT_6X6_50":         50,
	"DICT_6X6_100":        100,
	"DICT_6X6_250":        250,
	"DICT_6X6_1000":       1000,
	"DICT_7X7_50":         50,
	"DICT_7X7_100":        100,
	"DICT_7X7_250":        250,
	"DICT_7X7_1000":       1000,
	"DICT_ARUCO_ORIGINAL": 1024,
}

// CanonicalDictionary returns name in the spelling OpenCV uses, e.g.
// " dict_4x4_50" becomes "DICT_4X4_50".
func CanonicalDictionary(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// ValidateDictionary returns ErrUnknownDictionary for unsupported names.
// Names are case-insensitive.
func ValidateDictionary(name string) error {
	if _, ok := dictionarySizes[CanonicalDictionary(name)]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDictionary, name)
	}
	return nil
}

// Dictionaries returns the supported dictionary names, sorted.
func Dictionaries() []string {
	names := make([]string, 0, len(dictionarySizes))
	for n := range dictionarySizes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DictionarySize returns how many marker IDs the named dictionary holds,
// or 0 for an unsupported name.
func DictionarySize(name string) int {
	return dictionarySizes[CanonicalDictionary(name)]
}
