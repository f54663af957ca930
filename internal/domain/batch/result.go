// Package batch holds per-item outcomes of best-effort multi-record writes.
package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	index  int
	id     string
	name   string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(index int, id, name string) Result {
	return Result{index: index, id: id, name: name, status: StatusOK}
}

// NewError creates a failed batch result.
func NewError(index int, id, name string, err error) Result {
	return Result{index: index, id: id, name: name, status: StatusError, err: err}
}

// Index returns the item position in the input.
func (r Result) Index() int { return r.index }

// ID returns the item identifier (store-assigned for successful writes without an id).
func (r Result) ID() string { return r.id }

// Name returns the record name.
func (r Result) Name() string { return r.name }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// OK reports whether the item succeeded.
func (r Result) OK() bool { return r.status == StatusOK }

// Summary counts outcomes of a batch.
type Summary struct {
	OK     int
	Failed int
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.OK() {
			s.OK++
		} else {
			s.Failed++
		}
	}
	return s
}

// SucceededIDs returns ids of successful items in input order.
func SucceededIDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		if r.OK() {
			ids = append(ids, r.id)
		}
	}
	return ids
}

// FirstError returns the error of the first failed item, or nil.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.err != nil {
			return r.err
		}
	}
	return nil
}
