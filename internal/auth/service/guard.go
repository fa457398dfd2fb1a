package service

import (
	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/observability"
)

// Action is what an actor wants to do with a target identity.
type Action int

const (
	ActionRead Action = iota
	ActionMutate
	ActionFollow
	ActionUnfollow
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionMutate:
		return "mutate"
	case ActionFollow:
		return "follow"
	case ActionUnfollow:
		return "unfollow"
	default:
		return "unknown"
	}
}

// Guard makes allow/deny decisions for actions on identity-owned resources.
type Guard struct {
	Metrics *observability.Metrics
}

// Authorize returns nil when actor may perform action on target.
//
// A nil actor is always ErrUnauthenticated. Reads need nothing more. Mutations
// require actor and target to be the same identity, otherwise ErrForbidden.
// Follow and unfollow pass the authentication gate first and are then refused
// with ErrSelfActionDenied when aimed at the actor itself.
func (g *Guard) Authorize(actor *domain.Identity, action Action, target *domain.Identity) error {
	if actor == nil || actor.ID == "" {
		g.deny(observability.DenyUnauthenticated)
		return ErrUnauthenticated
	}

	switch action {
	case ActionRead:
		return nil
	case ActionMutate:
		if target == nil || target.ID != actor.ID {
			g.deny(observability.DenyForbidden)
			return ErrForbidden
		}
		return nil
	case ActionFollow, ActionUnfollow:
		if target != nil && target.ID == actor.ID {
			g.deny(observability.DenySelfAction)
			return ErrSelfActionDenied
		}
		return nil
	default:
		g.deny(observability.DenyForbidden)
		return ErrForbidden
	}
}

func (g *Guard) deny(reason string) {
	if g == nil {
		return
	}
	g.Metrics.Denial(reason)
}
