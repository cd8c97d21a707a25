package wallet

// FormatAddress shortens an address to its first 6 and last 4 characters. Short addresses keep
// the same shape, so "0xAB" becomes "0xAB...0xAB". Only the empty address stays empty.
func FormatAddress(address string) string {
	runes := []rune(address)
	n := len(runes)
	if n == 0 {
		return ""
	}

	return string(runes[:min(6, n)]) + "..." + string(runes[max(0, n-4):])
}
