package scanner

// ValidGTIN reports whether s is an EAN-8, UPC-A or EAN-13 code with a correct check digit.
func ValidGTIN(s string) bool {
	switch len(s) {
	case 8, 12, 13:
	default:
		return false
	}
	sum := 0
	for i := 0; i < len(s)-1; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		// weights alternate 3,1 starting from the digit next to the check digit
		if (len(s)-2-i)%2 == 0 {
			d *= 3
		}
		sum += d
	}
	last := s[len(s)-1]
	if last < '0' || last > '9' {
		return false
	}
	return (10-sum%10)%10 == int(last-'0')
}
