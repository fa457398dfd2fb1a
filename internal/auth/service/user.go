package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/murmur/internal/auth/domain"
	"github.com/aussiebroadwan/murmur/internal/auth/store"
	"github.com/aussiebroadwan/murmur/pkg/idx"
	"github.com/aussiebroadwan/murmur/pkg/slogx"
)

// UserService handles registration, profile edits and identity lookups.
type UserService struct {
	Store       store.Store
	Credentials *CredentialService
	Guard       *Guard
	Now         func() time.Time
}

// Register validates in, checks both unique fields and creates the identity.
// On any failure the store is left untouched. Uniqueness clashes come back as
// field errors wrapped in ErrConflict.
func (s *UserService) Register(ctx context.Context, in RegistrationInput) (*domain.Identity, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := ValidateRegistration(in).Err(); err != nil {
		return nil, err
	}

	var clashes ValidationErrors
	if taken, err := s.usernameTaken(ctx, in.Username); err != nil {
		return nil, err
	} else if taken {
		clashes.add("username", MsgUsernameTaken)
	}
	if taken, err := s.emailTaken(ctx, in.Email); err != nil {
		return nil, err
	} else if taken {
		clashes.add("email", MsgEmailTaken)
	}
	if len(clashes) > 0 {
		return nil, conflictErr(clashes)
	}

	hash, err := s.Credentials.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := clock(s.Now)
	identity := domain.Identity{
		ID:           idx.NewAt(now).String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		LastSeen:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().Create(ctx, identity); err != nil {
		return nil, translateConflict(err)
	}

	slogx.FromContext(ctx).Info("identity registered",
		slog.String("user_id", identity.ID),
		slog.String("username", identity.Username))
	return &identity, nil
}

// UpdateProfile applies in to the identity targetID on behalf of actor. Only
// the identity itself may edit its profile. Keeping the current username or
// email is not a clash.
func (s *UserService) UpdateProfile(
	ctx context.Context,
	actor *domain.Identity,
	targetID string,
	in ProfileInput,
) (*domain.Identity, error) {
	if err := s.Guard.Authorize(actor, ActionMutate, &domain.Identity{ID: targetID}); err != nil {
		return nil, err
	}

	if in.Username != nil {
		v := strings.TrimSpace(*in.Username)
		in.Username = &v
	}
	if in.Email != nil {
		v := strings.TrimSpace(*in.Email)
		in.Email = &v
	}
	if err := ValidateProfile(in).Err(); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	var clashes ValidationErrors
	if in.Username != nil && *in.Username != current.Username {
		if taken, err := s.usernameTaken(ctx, *in.Username); err != nil {
			return nil, err
		} else if taken {
			clashes.add("username", MsgUsernameTaken)
		}
		current.Username = *in.Username
	}
	if in.Email != nil && *in.Email != current.Email {
		if taken, err := s.emailTaken(ctx, *in.Email); err != nil {
			return nil, err
		} else if taken {
			clashes.add("email", MsgEmailTaken)
		}
		current.Email = *in.Email
	}
	if len(clashes) > 0 {
		return nil, conflictErr(clashes)
	}
	if in.AboutMe != nil {
		current.AboutMe = *in.AboutMe
	}

	if err := s.Store.Users().Update(ctx, *current); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, translateConflict(err)
	}
	return current, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	identity, err := s.Store.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &identity, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	identity, err := s.Store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// List returns one page of identities ordered by username.
func (s *UserService) List(ctx context.Context, page, perPage int) (Page, error) {
	page, perPage, offset := normalizePage(page, perPage)
	total, err := s.Store.Users().Count(ctx)
	if err != nil {
		return Page{}, err
	}
	items, err := s.Store.Users().List(ctx, offset, perPage)
	if err != nil {
		return Page{}, err
	}
	return newPage(items, page, perPage, total), nil
}

func (s *UserService) usernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.Store.Users().GetByUsername(ctx, username)
	return exists(err)
}

func (s *UserService) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.Store.Users().GetByEmail(ctx, email)
	return exists(err)
}

func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// translateConflict turns a store uniqueness violation that raced past the
// pre-checks into the same field feedback the pre-checks produce.
func translateConflict(err error) error {
	var ce *store.ConflictError
	if !errors.As(err, &ce) {
		return err
	}
	switch ce.Field {
	case "username":
		return conflictErr(ValidationErrors{{Field: "username", Message: MsgUsernameTaken}})
	case "email":
		return conflictErr(ValidationErrors{{Field: "email", Message: MsgEmailTaken}})
	default:
		return ErrConflict
	}
}
