package pipeline

// AreaCode returns the three-digit North American area code of phone, or ""
// when the digits are neither a bare 10-digit number nor "1" plus 10 digits.
func AreaCode(phone string) string {
	digits := make([]byte, 0, 11)
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}

	switch {
	case len(digits) == 10:
		return string(digits[0:3])
	case len(digits) == 11 && digits[0] == '1':
		return string(digits[1:4])
	default:
		return ""
	}
}
