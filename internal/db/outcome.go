package db

// DeleteStatus enumerates the results of a namespace delete.
type DeleteStatus int

const (
	// DeleteDeleted means the namespace existed and was removed.
	DeleteDeleted DeleteStatus = iota
	// DeleteAbsent means there was nothing to delete.
	DeleteAbsent
	// DeleteFailed means the delete was attempted and failed.
	DeleteFailed
)

// String returns the lowercase status name.
func (s DeleteStatus) String() string {
	switch s {
	case DeleteDeleted:
		return "deleted"
	case DeleteAbsent:
		return "absent"
	case DeleteFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DeleteOutcome is the explicit result of DeleteNamespace.
type DeleteOutcome struct {
	Status DeleteStatus
	Err    error
}

// Deleted reports a successful delete.
func Deleted() DeleteOutcome { return DeleteOutcome{Status: DeleteDeleted} }

// Absent reports that the namespace did not exist.
func Absent() DeleteOutcome { return DeleteOutcome{Status: DeleteAbsent} }

// Failed reports a delete failure with its cause.
func Failed(err error) DeleteOutcome { return DeleteOutcome{Status: DeleteFailed, Err: err} }
