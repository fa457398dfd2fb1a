package service

import (
	"testing"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestGuardAuthorize(t *testing.T) {
	t.Parallel()

	alice := &domain.Identity{ID: "alice"}
	bob := &domain.Identity{ID: "bob"}
	g := &Guard{}

	tests := []struct {
		name   string
		actor  *domain.Identity
		action Action
		target *domain.Identity
		want   error
	}{
		{"anonymous read", nil, ActionRead, nil, ErrUnauthenticated},
		{"anonymous mutate", nil, ActionMutate, alice, ErrUnauthenticated},
		{"anonymous self follow is unauthenticated first", nil, ActionFollow, nil, ErrUnauthenticated},
		{"empty identity is anonymous", &domain.Identity{}, ActionRead, nil, ErrUnauthenticated},
		{"read collection", alice, ActionRead, nil, nil},
		{"read other", alice, ActionRead, bob, nil},
		{"mutate self", alice, ActionMutate, alice, nil},
		{"mutate other", alice, ActionMutate, bob, ErrForbidden},
		{"mutate nothing", alice, ActionMutate, nil, ErrForbidden},
		{"follow other", alice, ActionFollow, bob, nil},
		{"follow self", alice, ActionFollow, alice, ErrSelfActionDenied},
		{"unfollow self", alice, ActionUnfollow, &domain.Identity{ID: "alice"}, ErrSelfActionDenied},
		{"unknown action", alice, Action(99), alice, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Authorize(tt.actor, tt.action, tt.target)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGuardRecordsDenials(t *testing.T) {
	t.Parallel()

	m := observability.NewMetrics()
	g := &Guard{Metrics: m}
	_ = g.Authorize(nil, ActionRead, nil)
	_ = g.Authorize(&domain.Identity{ID: "a"}, ActionMutate, &domain.Identity{ID: "b"})
	_ = g.Authorize(&domain.Identity{ID: "a"}, ActionMutate, &domain.Identity{ID: "a"})

	n, err := testutil.GatherAndCount(m.Registry(), "murmur_auth_authorization_denials_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestActionString(t *testing.T) {
	t.Parallel()
	require.Equal(t, "follow", ActionFollow.String())
	require.Equal(t, "unknown", Action(42).String())
}
