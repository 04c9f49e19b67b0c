package touch

// setBits replaces width bits of reg starting at index (from the right)
// with value and returns the new register content.
func setBits(reg, value byte, index, width uint) byte {
	mask := byte(1<<width - 1)
	reg &^= mask << index
	return reg | (value&mask)<<index
}

// getBits extracts width bits of reg starting at index (from the right).
func getBits(reg byte, index, width uint) byte {
	return (reg >> index) & byte(1<<width-1)
}

func getBit(reg byte, index uint) bool {
	return getBits(reg, index, 1) == 1
}
