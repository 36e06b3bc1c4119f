package host

import (
	"sync"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

// Ledger remembers the verification kind of the most recent results the host
// produced, so verify(result) can dispatch on what the producing tool
// declared instead of on the shape of the text.
type Ledger struct {
	mu    sync.Mutex
	size  int
	order []string
	kinds map[string]schema.VerifyKind
}

// NewLedger returns a ledger holding at most size results.
func NewLedger(size int) *Ledger {
	if size <= 0 {
		size = 64
	}
	return &Ledger{size: size, kinds: make(map[string]schema.VerifyKind, size)}
}

// Record stores text with its kind. Re-recording a text refreshes it.
func (l *Ledger) Record(text string, kind schema.VerifyKind) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.kinds[text]; ok {
		l.remove(text)
	}
	l.order = append(l.order, text)
	l.kinds[text] = kind

	for len(l.order) > l.size {
		delete(l.kinds, l.order[0])
		l.order = l.order[1:]
	}
}

// Lookup returns the kind recorded for text.
func (l *Ledger) Lookup(text string) (schema.VerifyKind, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k, ok := l.kinds[text]
	return k, ok
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

func (l *Ledger) remove(text string) {
	for i, t := range l.order {
		if t == text {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}
