package order

import "errors"

var (
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrForbidden         = errors.New("not allowed to change this order")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderExists       = errors.New("order already exists")
)

type actorRole string

const (
	roleOwner actorRole = "owner"
	roleAdmin actorRole = "admin"
)

type transitionKey struct {
	from Status
	role actorRole
}

// transitions is the complete state machine. PROCESSING and SHIPPING have
// no producer here; they only appear through external edits.
var transitions = map[transitionKey]map[Status]struct{}{
	{StatusPending, roleOwner}:  {StatusCanceled: {}},
	{StatusPending, roleAdmin}:  {StatusApproved: {}, StatusRejected: {}},
	{StatusApproved, roleAdmin}: {StatusDelivered: {}},
}

func allowed(from, to Status, role actorRole) bool {
	_, ok := transitions[transitionKey{from, role}][to]
	return ok
}

// checkTransition picks the role under which one of roles may move from to
// to. A move some other role could make is ErrForbidden; a move nobody can
// make is ErrInvalidTransition.
func checkTransition(from, to Status, roles ...actorRole) (actorRole, error) {
	for _, r := range roles {
		if allowed(from, to, r) {
			return r, nil
		}
	}
	for _, r := range []actorRole{roleOwner, roleAdmin} {
		if allowed(from, to, r) {
			return "", ErrForbidden
		}
	}
	return "", ErrInvalidTransition
}
