package evermem

// RetrieveMethod selects the server-side retrieval strategy. The client only
// gatekeeps the closed set; strategy execution is entirely remote.
type RetrieveMethod string

const (
	MethodHybrid  RetrieveMethod = "hybrid"
	MethodKeyword RetrieveMethod = "keyword"
	MethodVector  RetrieveMethod = "vector"
	MethodRRF     RetrieveMethod = "rrf"
	MethodAgentic RetrieveMethod = "agentic"
)

// DefaultMethod is used when a caller leaves the method unspecified.
const DefaultMethod = MethodHybrid

var supportedMethods = []RetrieveMethod{
	MethodHybrid,
	MethodKeyword,
	MethodVector,
	MethodRRF,
	MethodAgentic,
}

// ParseMethod validates a caller-supplied method name. An empty name resolves
// to DefaultMethod; an unrecognized name fails, never coerces.
func ParseMethod(name string) (RetrieveMethod, error) {
	if name == "" {
		return DefaultMethod, nil
	}
	m := RetrieveMethod(name)
	for _, s := range supportedMethods {
		if m == s {
			return m, nil
		}
	}
	return "", &InvalidMethodError{Method: name}
}

func (m RetrieveMethod) Valid() bool {
	_, err := ParseMethod(string(m))
	return err == nil && m != ""
}

// MethodNames returns the supported method names in declaration order.
func MethodNames() []string {
	names := make([]string, len(supportedMethods))
	for i, m := range supportedMethods {
		names[i] = string(m)
	}
	return names
}
