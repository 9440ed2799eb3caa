package indicator

// ringBuffer keeps the most recent size values.
type ringBuffer struct {
	values []float64
	size   int
	index  int
	filled bool
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		values: make([]float64, size),
		size:   size,
		index:  0,
		filled: false,
	}
}

func (r *ringBuffer) Add(value float64) {
	r.values[r.index] = value

	r.index = (r.index + 1) % r.size
	if r.index == 0 {
		r.filled = true
	}
}

func (r *ringBuffer) Len() int {
	if r.filled {
		return r.size
	}

	return r.index
}

// Values returns the buffered values oldest first.
func (r *ringBuffer) Values() []float64 {
	length := r.Len()

	result := make([]float64, 0, length)
	if length == 0 {
		return result
	}

	if r.filled {
		result = append(result, r.values[r.index:]...)
	}

	return append(result, r.values[:r.index]...)
}

func (r *ringBuffer) Reset() {
	r.index = 0
	r.filled = false
}
