package domain

// Chain is the ordered, dynamically extensible sequence of stage descriptors
// for one unit of work. Iteration uses an explicit integer cursor rather
// than a snapshot iterator, so descriptors inserted while the current stage
// is executing are visible to the very next call to Next. Elements already
// passed by the cursor are immutable and never removed.
//
// A Chain is owned by a single unit of work. The goroutine driving it may
// change across suspensions, but only one drives it at a time; concurrent
// mutation is not supported.
type Chain struct {
	descs  []Descriptor
	cursor int
}

// NewChain creates a chain from the given descriptors.
func NewChain(descs ...Descriptor) *Chain {
	return &Chain{descs: descs}
}

// Next returns the descriptor at the cursor and advances it. The second
// return is false when the chain is exhausted.
func (c *Chain) Next() (Descriptor, bool) {
	if c.cursor >= len(c.descs) {
		return Descriptor{}, false
	}
	d := c.descs[c.cursor]
	c.cursor++
	return d, true
}

// Insert places descriptors immediately after the cursor position: they will
// be returned by the next calls to Next, ahead of everything that was
// already pending. This is the mechanism by which a stage decides what runs
// after it.
func (c *Chain) Insert(descs ...Descriptor) {
	if len(descs) == 0 {
		return
	}
	rest := c.descs[c.cursor:]
	merged := make([]Descriptor, 0, len(c.descs)+len(descs))
	merged = append(merged, c.descs[:c.cursor]...)
	merged = append(merged, descs...)
	merged = append(merged, rest...)
	c.descs = merged
}

// Append adds descriptors at the tail of the chain.
func (c *Chain) Append(descs ...Descriptor) {
	c.descs = append(c.descs, descs...)
}

// Len returns the current number of descriptors, visited or not.
func (c *Chain) Len() int { return len(c.descs) }

// Visited returns how many descriptors the cursor has passed.
func (c *Chain) Visited() int { return c.cursor }

// Remaining returns how many descriptors are still ahead of the cursor.
func (c *Chain) Remaining() int { return len(c.descs) - c.cursor }
