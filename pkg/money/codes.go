package money

// Code represents an ISO 4217 currency code (e.g., "NGN", "USD").
type Code string

// Common currency codes
const (
	NGN Code = "NGN" // Nigerian Naira
	USD Code = "USD" // US Dollar
	EUR Code = "EUR" // Euro
	GBP Code = "GBP" // British Pound
	GHS Code = "GHS" // Ghanaian Cedi
	KES Code = "KES" // Kenyan Shilling
	ZAR Code = "ZAR" // South African Rand
	JPY Code = "JPY" // Japanese Yen
)

// IsValid reports whether the code has the ISO 4217 shape (3 uppercase letters).
// Membership in the currency registry is checked separately.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'Z' &&
		c[1] >= 'A' && c[1] <= 'Z' &&
		c[2] >= 'A' && c[2] <= 'Z'
}

// String returns the string representation of the currency code.
func (c Code) String() string {
	return string(c)
}
