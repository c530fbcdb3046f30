package importer

import (
	"sync"
)

// HistorySize bounds the in-memory import run history.
const HistorySize = 10

// History is a ring of the most recent import results, newest first.
type History struct {
	mu      sync.Mutex
	results []Result
}

func NewHistory() *History {
	return &History{}
}

func (h *History) Add(result Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.results = append([]Result{result}, h.results...)
	if len(h.results) > HistorySize {
		h.results = h.results[:HistorySize]
	}
}

func (h *History) List() []Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Result, len(h.results))
	copy(out, h.results)
	return out
}
