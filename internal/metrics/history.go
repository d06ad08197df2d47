package metrics

import "sync"

// DefaultHistorySize is the default number of samples kept per metric.
const DefaultHistorySize = 60

// History keeps recent values per metric name for sparkline rendering.
// Safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	size    int
	metrics map[string]*ringBuffer
}

// ringBuffer is a fixed-size circular buffer for float64 values.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

// NewHistory creates a history keeping size samples per metric.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{
		size:    size,
		metrics: make(map[string]*ringBuffer),
	}
}

// Push records one sample for every row that carries a real value.
// Flagged rows are skipped so a bad line doesn't flatten the sparkline.
func (h *History) Push(rows []Row) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, row := range rows {
		if row.Err != nil {
			continue
		}
		buf, ok := h.metrics[row.Name]
		if !ok {
			buf = newRingBuffer(h.size)
			h.metrics[row.Name] = buf
		}
		buf.push(row.Raw)
	}
}

// Last returns up to n most recent values for name, oldest first.
func (h *History) Last(name string, n int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.metrics[name]
	if !ok {
		return nil
	}
	return buf.getLast(n)
}

// Count returns the number of samples stored for name.
func (h *History) Count(name string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	buf, ok := h.metrics[name]
	if !ok {
		return 0
	}
	return buf.count
}

// Clear drops all history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics = make(map[string]*ringBuffer)
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{
		data: make([]float64, size),
		size: size,
	}
}

func (r *ringBuffer) push(value float64) {
	r.data[r.head] = value
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// getLast returns the last count values in chronological order.
// head is the next write position, so the newest value sits at head-1.
func (r *ringBuffer) getLast(count int) []float64 {
	if count <= 0 || r.count == 0 {
		return nil
	}
	if count > r.count {
		count = r.count
	}

	result := make([]float64, count)
	start := (r.head - count + r.size) % r.size
	for i := 0; i < count; i++ {
		result[i] = r.data[(start+i)%r.size]
	}
	return result
}
