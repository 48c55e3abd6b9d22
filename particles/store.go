package particles

import "fmt"

// Store is a fixed-capacity struct-of-arrays container. Every float
// channel holds capacity*stride values; slot i of a channel starts at
// i*stride. Live particles occupy slots [0, Size()).
type Store struct {
	capacity int
	size     int

	floats  map[ChannelID]*Channel
	objects map[ChannelID]*ObjectChannel

	// allocation order, used for deterministic compaction
	floatOrder  []*Channel
	objectOrder []*ObjectChannel
}

// NewStore creates an empty store for capacity particles.
func NewStore(capacity int) *Store {
	if capacity < 0 {
		panic(fmt.Sprintf("particles: negative store capacity %d", capacity))
	}
	return &Store{
		capacity: capacity,
		floats:   make(map[ChannelID]*Channel),
		objects:  make(map[ChannelID]*ObjectChannel),
	}
}

// Capacity returns the maximum particle count.
func (s *Store) Capacity() int { return s.capacity }

// Size returns the live particle count.
func (s *Store) Size() int { return s.size }

// AddChannel returns the channel for d, allocating zero-filled storage on
// the first call. Later calls return the same channel and backing array.
func (s *Store) AddChannel(d ChannelDescriptor) *Channel {
	if d.Object {
		panic(fmt.Sprintf("particles: %q is an object channel", d.Name))
	}
	if ch, ok := s.floats[d.ID]; ok {
		return ch
	}
	ch := &Channel{ChannelDescriptor: d, Data: make([]float32, s.capacity*d.Stride)}
	s.floats[d.ID] = ch
	s.floatOrder = append(s.floatOrder, ch)
	return ch
}

// Channel returns the channel for d or nil. It never allocates.
func (s *Store) Channel(d ChannelDescriptor) *Channel {
	return s.floats[d.ID]
}

// AddObjectChannel is AddChannel for payload channels.
func (s *Store) AddObjectChannel(d ChannelDescriptor) *ObjectChannel {
	if !d.Object {
		panic(fmt.Sprintf("particles: %q is a float channel", d.Name))
	}
	if ch, ok := s.objects[d.ID]; ok {
		return ch
	}
	ch := &ObjectChannel{ChannelDescriptor: d, Data: make([]Payload, s.capacity)}
	s.objects[d.ID] = ch
	s.objectOrder = append(s.objectOrder, ch)
	return ch
}

// ObjectChannel returns the payload channel for d or nil.
func (s *Store) ObjectChannel(d ChannelDescriptor) *ObjectChannel {
	return s.objects[d.ID]
}

// Has reports whether d has been allocated.
func (s *Store) Has(d ChannelDescriptor) bool {
	if d.Object {
		return s.objects[d.ID] != nil
	}
	return s.floats[d.ID] != nil
}

// Channels returns the float channels in allocation order.
func (s *Store) Channels() []*Channel {
	return s.floatOrder
}

// Grow raises the capacity, reallocating and copying every channel. The
// *Channel values stay valid; their Data slices are replaced.
func (s *Store) Grow(capacity int) {
	if capacity <= s.capacity {
		return
	}
	for _, ch := range s.floatOrder {
		data := make([]float32, capacity*ch.Stride)
		copy(data, ch.Data)
		ch.Data = data
	}
	for _, ch := range s.objectOrder {
		data := make([]Payload, capacity)
		copy(data, ch.Data)
		ch.Data = data
	}
	s.capacity = capacity
}

// Append extends the live range by count slots and returns the first new
// slot. Exceeding capacity is a programming error.
func (s *Store) Append(count int) int {
	if count < 0 || s.size+count > s.capacity {
		panic(fmt.Sprintf("particles: append %d to store of size %d exceeds capacity %d", count, s.size, s.capacity))
	}
	start := s.size
	s.size += count
	return start
}

// Remove kills slot i by moving the last live slot into it.
func (s *Store) Remove(i int) {
	if i < 0 || i >= s.size {
		panic(fmt.Sprintf("particles: remove slot %d outside [0, %d)", i, s.size))
	}
	last := s.size - 1
	if i != last {
		for _, ch := range s.floatOrder {
			copy(ch.Slot(i), ch.Slot(last))
		}
		for _, ch := range s.objectOrder {
			ch.Data[i] = ch.Data[last]
		}
	}
	for _, ch := range s.objectOrder {
		ch.Data[last] = nil
	}
	s.size--
}

// RemoveRange kills slots [start, start+count).
func (s *Store) RemoveRange(start, count int) {
	for i := start + count - 1; i >= start; i-- {
		s.Remove(i)
	}
}

// Clear drops every live particle without touching channel data.
func (s *Store) Clear() {
	for _, ch := range s.objectOrder {
		clear(ch.Data[:s.size])
	}
	s.size = 0
}
