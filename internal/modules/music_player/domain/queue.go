package domain

// Queue is a FIFO of pending track requests. The playing request is not part of it.
type Queue struct {
	requests []*TrackRequest
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{
		requests: make([]*TrackRequest, 0),
	}
}

// IsEmpty returns true if the queue has no requests.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *Queue) isValidIndex(index int) bool {
	return 0 <= index && index < q.Len()
}

// Len returns the number of pending requests.
func (q *Queue) Len() int {
	return len(q.requests)
}

// Push appends a request to the tail.
func (q *Queue) Push(req *TrackRequest) {
	q.requests = append(q.requests, req)
}

// Pop removes and returns the head, or nil if the queue is empty.
func (q *Queue) Pop() *TrackRequest {
	if q.IsEmpty() {
		return nil
	}
	head := q.requests[0]
	q.requests[0] = nil
	q.requests = q.requests[1:]
	return head
}

// Peek returns the head without removing it.
func (q *Queue) Peek() *TrackRequest {
	if q.IsEmpty() {
		return nil
	}
	return q.requests[0]
}

// GetAt returns the request at index without removing it.
// Returns nil if the index is out of bounds.
func (q *Queue) GetAt(index int) *TrackRequest {
	if !q.isValidIndex(index) {
		return nil
	}
	return q.requests[index]
}

// RemoveAt removes and returns the request at index.
// Returns nil if the index is out of bounds.
func (q *Queue) RemoveAt(index int) *TrackRequest {
	if !q.isValidIndex(index) {
		return nil
	}

	req := q.requests[index]
	q.requests = append(q.requests[:index], q.requests[index+1:]...)
	return req
}

// List returns a copy of the pending requests in order.
func (q *Queue) List() []*TrackRequest {
	result := make([]*TrackRequest, q.Len())
	copy(result, q.requests)
	return result
}

// Clear removes all pending requests.
func (q *Queue) Clear() {
	q.requests = make([]*TrackRequest, 0)
}
