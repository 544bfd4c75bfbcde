package cycles

import "strconv"

// KeyPrecision is the number of fractional digits a period is formatted with
// to derive a cycle's identity.
const KeyPrecision = 6

// Key identifies a cycle across independently loaded datasets (table rows,
// selection membership, wave lookup, color lookup, spectrum highlighting).
// Two periods equal to KeyPrecision decimals share a key.
type Key string

// KeyOf derives the key for a period in days. It is the only place the
// formatting rule is applied.
func KeyOf(periodDays float64) Key {
	return Key(strconv.FormatFloat(periodDays, 'f', KeyPrecision, 64))
}

// ParseKey accepts either a formatted key or any period literal ("30", "30.0")
// and returns the canonical key for it.
func ParseKey(s string) (Key, error) {
	period, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}
	return KeyOf(period), nil
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return string(k)
}
