package evermem

// StoreStatus is the ingestion outcome reported for a stored memory.
type StoreStatus string

const (
	StatusQueued    StoreStatus = "queued"
	StatusCommitted StoreStatus = "committed"
	StatusRejected  StoreStatus = "rejected"
)

// MemoryRecord is the normalized shape every search/list response reduces to,
// regardless of how the server grouped or nested its payload.
type MemoryRecord struct {
	ID         string
	Content    string
	Role       string
	MemoryType string
	UserID     string
	GroupID    string
	// CreatedAt is the server-reported timestamp, passed through verbatim.
	CreatedAt string
	// Score is the server-assigned relevance, present only on search results.
	Score float64
}

// StoreRequest submits one message for asynchronous memory extraction.
// Duplicate submissions are acceptable; deduplication, if any, is server-side.
type StoreRequest struct {
	Content    string
	Role       string
	MemoryType string
	UserID     string
	GroupID    string
	// Flush hints that the caller wants extraction acknowledged sooner. It is
	// a hint to the service, not a local durability guarantee.
	Flush bool
}

type StoreResult struct {
	Status    StoreStatus
	Message   string
	RequestID string
}

type SearchRequest struct {
	Query       string
	Method      RetrieveMethod
	UserID      string
	GroupID     string
	Limit       int
	MemoryTypes []string
}

type SearchResult struct {
	Total   int
	Records []MemoryRecord
}

type ListRequest struct {
	UserID     string
	GroupID    string
	MemoryType string
	Limit      int
}
