package scanfilter

// binarySniffLen is how many leading bytes are inspected for NUL.
const binarySniffLen = 512

// IsBinaryContent reports whether content looks like binary data rather than
// a text transcript, using the classic NUL-byte sniff on the leading bytes.
// UTF-16 exports read as binary here; they are unreadable to a byte-oriented
// line parser anyway, so skipping them is the right outcome.
func IsBinaryContent(content []byte) bool {
	sniffLen := min(len(content), binarySniffLen)
	for i := 0; i < sniffLen; i++ {
		if content[i] == 0 {
			return true
		}
	}
	return false
}
