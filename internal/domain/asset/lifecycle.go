package asset

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusReturned Status = "returned"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusReturned:
		return true
	default:
		return false
	}
}

type Action string

const (
	ActionEdit    Action = "edit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReturn  Action = "return"
)

// returned is terminal, nothing but delete leaves it.
var allowedFrom = map[Action][]Status{
	ActionEdit:    {StatusPending, StatusApproved, StatusRejected},
	ActionApprove: {StatusPending, StatusApproved, StatusRejected},
	ActionReject:  {StatusPending, StatusApproved, StatusRejected},
	ActionReturn:  {StatusApproved},
}

var target = map[Action]Status{
	ActionEdit:    StatusPending,
	ActionApprove: StatusApproved,
	ActionReject:  StatusRejected,
	ActionReturn:  StatusReturned,
}

// AllowedFrom lists the statuses an action may be applied to.
func AllowedFrom(a Action) []Status {
	return allowedFrom[a]
}

// Target is the status an action leaves the request in.
func Target(a Action) Status {
	return target[a]
}

// OwnerAction reports whether the action is taken by the requesting employee
// rather than an admin.
func OwnerAction(a Action) bool {
	return a == ActionEdit || a == ActionReturn
}

func CanApply(a Action, from Status) bool {
	for _, s := range allowedFrom[a] {
		if s == from {
			return true
		}
	}
	return false
}

// ExplainMiss turns a conditional update that matched nothing into the
// reason. current is the document as it is now, nil when it does not exist.
// owner is empty for admin actions.
func ExplainMiss(a Action, current *Request, owner string) error {
	if current == nil {
		return ErrNotFound
	}
	if owner != "" && current.Email != owner {
		return ErrNotOwner
	}
	// either the status forbids the action or a concurrent write moved it
	return ErrInvalidTransition
}
