package tenant

// Resource is a countable, plan-limited resource class.
type Resource string

const (
	ResourceUsers   Resource = "users"
	ResourceRecords Resource = "records"
	ResourceStorage Resource = "storage"
)

// Unlimited is the limit value that never rejects.
const Unlimited int64 = -1

func (r Resource) IsValid() bool {
	switch r {
	case ResourceUsers, ResourceRecords, ResourceStorage:
		return true
	}
	return false
}

func (r Resource) String() string {
	return string(r)
}
