package method

// Method is one of the two request verbs the dispatcher recognizes. GET is the
// retrieval (READ) operation and POST the submission (WRITE) one, which is the only
// one carrying a body.
type Method uint8

const (
	Unknown Method = iota
	GET
	POST
)

// PrefixLength is the number of request line bytes the method is decided by.
const PrefixLength = 4

// FromPrefix decides the method by the first PrefixLength bytes of a request line and
// returns the offset the path begins at. The prefixes are compared byte-exact: "GET "
// includes the trailing space, "POST" doesn't, so its path begins one byte later, past
// the separating space. Anything else results in Unknown.
func FromPrefix(line []byte) (m Method, offset int) {
	if len(line) < PrefixLength {
		return Unknown, 0
	}

	switch string(line[:PrefixLength]) {
	case "GET ":
		return GET, 4
	case "POST":
		return POST, 5
	}

	return Unknown, 0
}

// HasBody reports whether requests of the method are followed by a payload.
func (m Method) HasBody() bool {
	return m == POST
}

func (m Method) String() string {
	switch m {
	case GET:
		return "GET"
	case POST:
		return "POST"
	}

	return "UNKNOWN"
}
