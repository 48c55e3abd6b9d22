package particles

import "fmt"

// Pool recycles heavyweight payload objects. It is bounded by the number
// of particles that can be alive at once; obtaining past that bound means
// activation and kill calls are unbalanced and panics.
//
// Pools are not safe for concurrent use. Confine one to the goroutine that
// updates its controller.
type Pool[T any] struct {
	newFn func() T
	max   int
	free  []T
	live  int

	obtains int
	frees   int
}

// NewPool creates a pool holding at most limit live objects.
func NewPool[T any](limit int, newFn func() T) *Pool[T] {
	return &Pool[T]{newFn: newFn, max: limit, free: make([]T, 0, limit)}
}

// Fill creates objects until Available()+Live() reaches the pool bound.
func (p *Pool[T]) Fill() {
	for len(p.free)+p.live < p.max {
		p.free = append(p.free, p.newFn())
	}
}

// Obtain returns a free object, creating one when none is pooled.
func (p *Pool[T]) Obtain() T {
	if p.live >= p.max {
		panic(fmt.Sprintf("particles: pool exhausted, %d objects live of %d", p.live, p.max))
	}
	p.live++
	p.obtains++
	if n := len(p.free); n > 0 {
		v := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		return v
	}
	return p.newFn()
}

// ObtainFunc is Obtain preferring a pooled object for which match is true.
// ok reports whether the returned object matches.
func (p *Pool[T]) ObtainFunc(match func(T) bool) (v T, ok bool) {
	for i := len(p.free) - 1; i >= 0; i-- {
		if match(p.free[i]) {
			last := len(p.free) - 1
			p.free[i], p.free[last] = p.free[last], p.free[i]
			return p.Obtain(), true
		}
	}
	v = p.Obtain()
	return v, match(v)
}

// Free returns v to the pool.
func (p *Pool[T]) Free(v T) {
	if p.live == 0 {
		panic("particles: pool free without matching obtain")
	}
	p.live--
	p.frees++
	p.free = append(p.free, v)
}

// Available returns the number of pooled objects ready for Obtain.
func (p *Pool[T]) Available() int { return len(p.free) }

// Live returns the number of obtained objects not yet freed.
func (p *Pool[T]) Live() int { return p.live }

// Max returns the pool bound.
func (p *Pool[T]) Max() int { return p.max }

// Counts returns the cumulative Obtain and Free calls.
func (p *Pool[T]) Counts() (obtains, frees int) { return p.obtains, p.frees }

// Each calls fn for every pooled object that is not live.
func (p *Pool[T]) Each(fn func(T)) {
	for _, v := range p.free {
		fn(v)
	}
}

// Clear drops every pooled object. Live objects are unaffected.
func (p *Pool[T]) Clear() {
	clear(p.free)
	p.free = p.free[:0]
}
