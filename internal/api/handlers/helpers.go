package handlers

// normalizePhone normalizes phone number to international format (no leading '+')
// Returns digits like: 256700123456
func normalizePhone(phone string) string {
	// Remove all non-digit characters
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}

	// Uganda numbers: 9 local digits after the 0 or 256 prefix
	switch {
	case len(digits) == 9 && (digits[0] == '7' || digits[0] == '3'):
		return "256" + string(digits)
	case len(digits) == 10 && digits[0] == '0':
		return "256" + string(digits[1:])
	case len(digits) == 12 && string(digits[:3]) == "256":
		return string(digits)
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// validPIN reports whether pin is exactly four digits.
func validPIN(pin string) bool {
	return len(pin) == 4 && isDigits(pin)
}
