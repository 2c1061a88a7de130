package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// State is the indexing state of a document.
type State int

const (
	Unindexed State = iota
	Indexed
	Ready
)

func (s State) String() string {
	switch s {
	case Unindexed:
		return "unindexed"
	case Indexed:
		return "indexed"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Index is the derived state of one document: its text, both chunk sequences
// and the corpus vectors. It is never mutated after reaching Ready, apart from
// the memoized summary.
type Index struct {
	Hash          string
	RawText       string
	Chunks        []Chunk
	SummaryChunks []string
	Vectors       [][]float32
	State         State

	mu      sync.Mutex
	summary *Summary
}

// HashText returns the document identity used to key derived state.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (idx *Index) cachedSummary() (Summary, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.summary == nil {
		return Summary{}, false
	}
	return *idx.summary, true
}

func (idx *Index) storeSummary(s Summary) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.summary == nil {
		idx.summary = &s
	}
}
