package common

// WipeByteArray zeroes b in place. Use it to clear password buffers as soon
// as they are no longer needed.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
