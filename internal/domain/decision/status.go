package decision

// Status is the review lifecycle state of a decision.
type Status string

// Status constants.
const (
	StatusDraft       Status = "draft"
	StatusReview      Status = "review"
	StatusApproved    Status = "approved"
	StatusImplemented Status = "implemented"
	StatusRejected    Status = "rejected"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusReview, StatusApproved, StatusImplemented, StatusRejected:
		return true
	}
	return false
}
