package clepsydra

import (
	"math/rand/v2"
	"strconv"
	"sync"
)

// TokenPool hands out prefixed tokens rendered in batches.
// Safe for concurrent use by multiple goroutines.
//
// A refill draws every token of the batch from a pool-local generator and
// renders prefix+token for all of them into one string, so Get allocates
// once per batch instead of twice per token. Tokens are substrings of their
// batch: a retained token keeps its whole batch alive.
//
//nolint:govet // Field order optimized for readability over memory
type TokenPool struct {
	rng    *rand.Rand
	prefix string
	batch  string
	buf    []byte
	width  int
	size   int
	next   int
	mu     sync.Mutex
}

// NewTokenPool creates a pool that renders size tokens per refill, each of
// the form prefix followed by a TokenLength-wide token.
func NewTokenPool(prefix string, size int) *TokenPool {
	if size < 1 {
		size = 1
	}
	width := len(prefix) + TokenLength
	return &TokenPool{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		prefix: prefix,
		width:  width,
		size:   size,
		buf:    make([]byte, 0, width*size),
		next:   size,
	}
}

// Get returns the next token, rendering a new batch when the current one is spent.
func (p *TokenPool) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.next == p.size {
		p.refill()
	}
	start := p.next * p.width
	p.next++
	return p.batch[start : start+p.width]
}

// Size returns the number of tokens rendered per refill.
func (p *TokenPool) Size() int {
	return p.size
}

func (p *TokenPool) refill() {
	p.buf = p.buf[:0]
	for i := 0; i < p.size; i++ {
		p.buf = append(p.buf, p.prefix...)
		p.buf = strconv.AppendInt(p.buf, tokenRangeStart+p.rng.Int64N(tokenRangeEnd-tokenRangeStart), 36)
	}
	p.batch = string(p.buf)
	p.next = 0
}
