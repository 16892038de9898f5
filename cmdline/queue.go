package cmdline

import "github.com/ef-ds/deque"

// tokenQueue is the FIFO drained by a parse. The same queue is handed to a
// command's child parser, which consumes whatever is left.
type tokenQueue struct {
	d *deque.Deque
}

func newTokenQueue(tokens []string) *tokenQueue {
	d := deque.New()
	for _, tok := range tokens {
		d.PushBack(tok)
	}
	return &tokenQueue{d: d}
}

func (q *tokenQueue) pop() (string, bool) {
	v, ok := q.d.PopFront()
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (q *tokenQueue) peek() (string, bool) {
	v, ok := q.d.Front()
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (q *tokenQueue) len() int { return q.d.Len() }
