package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmhub/accounts-api/internal/core/domain"
	"github.com/crmhub/accounts-api/internal/core/ports"
	"github.com/crmhub/accounts-api/internal/pkg/password"
	"github.com/crmhub/accounts-api/internal/pkg/token"
)

// AccountService implements registration, login and profile management for
// users and admins.
type AccountService struct {
	repos    map[domain.Kind]ports.AccountRepository
	tokens   ports.TokenIssuer
	limiter  ports.LoginLimiter
	activity ports.ActivityRecorder
	logger   zerolog.Logger
	now      func() time.Time
}

// AccountServiceOption customises optional collaborators.
type AccountServiceOption func(*AccountService)

// WithLoginLimiter enables failed-login throttling.
func WithLoginLimiter(l ports.LoginLimiter) AccountServiceOption {
	return func(s *AccountService) { s.limiter = l }
}

// WithActivityRecorder enables the account audit trail.
func WithActivityRecorder(r ports.ActivityRecorder) AccountServiceOption {
	return func(s *AccountService) { s.activity = r }
}

func NewAccountService(
	users ports.AccountRepository,
	admins ports.AccountRepository,
	tokens ports.TokenIssuer,
	logger zerolog.Logger,
	opts ...AccountServiceOption,
) *AccountService {
	s := &AccountService{
		repos: map[domain.Kind]ports.AccountRepository{
			domain.KindUser:  users,
			domain.KindAdmin: admins,
		},
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccountService) repo(kind domain.Kind) (ports.AccountRepository, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	r, ok := s.repos[kind]
	if !ok || r == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	return r, nil
}

// Register validates the input, stores a new account and returns it with a
// fresh token. Email uniqueness is enforced by the store's unique index.
func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	repo, err := s.repo(in.Kind)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	pwd := strings.TrimSpace(in.Password)
	confirm := strings.TrimSpace(in.ConfirmPassword)

	if name == "" || email == "" || pwd == "" {
		return nil, domain.ErrMissingFields
	}
	if in.Kind == domain.KindAdmin && confirm == "" {
		return nil, domain.ErrMissingFields
	}
	if !domain.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if !password.ValidateStrength(pwd) {
		return nil, domain.ErrWeakPassword
	}
	if confirm != "" && confirm != pwd {
		return nil, domain.ErrPasswordMismatch
	}

	hash, err := hashPassword(pwd)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created, err := repo.Create(ctx, &domain.Account{
		Kind:         in.Kind,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Kind.DefaultRole(),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			return nil, domain.ForKind(in.Kind, err)
		}
		s.logger.Error().Err(err).Str("kind", string(in.Kind)).Msg("failed to create account")
		return nil, err
	}

	tkn, err := s.issue(created, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", created.ID).Str("kind", string(in.Kind)).Msg("account registered")
	s.record(created, domain.ActionRegistered, created.ID, nil)

	return &ports.AuthResult{Account: created, Token: tkn}, nil
}

// Login checks credentials and issues a token. Unknown emails, soft-deleted
// users and wrong passwords all yield the same ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	repo, err := s.repo(in.Kind)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(in.Email)
	pwd := strings.TrimSpace(in.Password)

	if email == "" || pwd == "" {
		return nil, domain.ErrMissingCredentials
	}
	if !domain.ValidEmail(email) {
		return nil, domain.ErrInvalidEmail
	}

	if s.limiter != nil {
		locked, err := s.limiter.Locked(ctx, in.Kind, email)
		if err != nil {
			s.logger.Warn().Err(err).Str("kind", string(in.Kind)).Msg("login limiter check failed, continuing")
		} else if locked {
			return nil, domain.ForKind(in.Kind, domain.ErrTooManyAttempts)
		}
	}

	account, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}
	if account == nil || !account.Active() {
		s.loginFailed(ctx, in.Kind, email, nil)
		return nil, domain.ForKind(in.Kind, domain.ErrInvalidCredentials)
	}

	ok, err := password.Verify(pwd, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.loginFailed(ctx, in.Kind, email, account)
		return nil, domain.ForKind(in.Kind, domain.ErrInvalidCredentials)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, in.Kind, email); err != nil {
			s.logger.Warn().Err(err).Str("account_id", account.ID).Msg("failed to reset login limiter")
		}
	}

	tkn, err := s.issue(account, in.Kind == domain.KindAdmin)
	if err != nil {
		return nil, err
	}

	s.record(account, domain.ActionLoggedIn, account.ID, nil)
	return &ports.AuthResult{Account: account, Token: tkn}, nil
}

func (s *AccountService) loginFailed(ctx context.Context, kind domain.Kind, email string, account *domain.Account) {
	if s.limiter != nil {
		if err := s.limiter.Fail(ctx, kind, email); err != nil {
			s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to count login failure")
		}
	}
	if account != nil {
		s.record(account, domain.ActionLoginFailed, "", nil)
	}
}

// UpdateProfile changes name, email and/or password of an existing account.
func (s *AccountService) UpdateProfile(ctx context.Context, kind domain.Kind, id string, in ports.UpdateProfileInput) (*domain.Account, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}

	current, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ForKind(kind, err)
	}

	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	pwd := strings.TrimSpace(in.Password)
	confirm := strings.TrimSpace(in.ConfirmPassword)

	var patch ports.AccountPatch
	if name != "" {
		patch.Name = name
	}

	if email != "" && email != current.Email {
		if !domain.ValidEmail(email) {
			return nil, domain.ErrInvalidEmail
		}
		other, err := repo.FindByEmail(ctx, email)
		switch {
		case err == nil && other.ID != current.ID:
			return nil, domain.ErrEmailInUse
		case err != nil && !errors.Is(err, domain.ErrAccountNotFound):
			return nil, err
		}
		patch.Email = email
	}

	if pwd != "" {
		if !password.ValidateStrength(pwd) {
			return nil, domain.ErrWeakPassword
		}
		if confirm != "" && confirm != pwd {
			return nil, domain.ErrPasswordMismatch
		}
		if patch.PasswordHash, err = hashPassword(pwd); err != nil {
			return nil, err
		}
	}

	if patch.Empty() {
		return current, nil
	}

	updated, err := repo.Update(ctx, id, patch)
	if err != nil {
		return nil, domain.ForKind(kind, err)
	}

	s.logger.Info().Str("account_id", id).Str("kind", string(kind)).Strs("fields", patch.Fields()).Msg("profile updated")
	s.record(updated, domain.ActionProfileUpdated, in.ActorID, patch.Fields())
	return updated, nil
}

// AdminUpdate applies a partial update to an admin record. Only email shape
// and password strength are checked; uniqueness is left to the store.
func (s *AccountService) AdminUpdate(ctx context.Context, id string, in ports.AdminUpdateInput) (*domain.Account, error) {
	repo, err := s.repo(domain.KindAdmin)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.ForKind(domain.KindAdmin, domain.ErrAccountNotFound)
	}

	patch := ports.AccountPatch{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	if patch.Email != "" && !domain.ValidEmail(patch.Email) {
		return nil, domain.ErrInvalidEmail
	}
	if pwd := strings.TrimSpace(in.Password); pwd != "" {
		if !password.ValidateStrength(pwd) {
			return nil, domain.ErrWeakPassword
		}
		if patch.PasswordHash, err = hashPassword(pwd); err != nil {
			return nil, err
		}
	}

	if patch.Empty() {
		current, err := repo.FindByID(ctx, id)
		return current, domain.ForKind(domain.KindAdmin, err)
	}

	updated, err := repo.Update(ctx, id, patch)
	if err != nil {
		return nil, domain.ForKind(domain.KindAdmin, err)
	}

	s.logger.Info().Str("account_id", id).Str("actor_id", in.ActorID).Strs("fields", patch.Fields()).Msg("admin updated")
	s.record(updated, domain.ActionProfileUpdated, in.ActorID, patch.Fields())
	return updated, nil
}

// ListAccounts returns every account of kind, soft-deleted ones included.
// An empty result is not an error.
func (s *AccountService) ListAccounts(ctx context.Context, kind domain.Kind) ([]*domain.Account, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	accounts, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	return accounts, nil
}

func (s *AccountService) GetAccount(ctx context.Context, kind domain.Kind, id string) (*domain.Account, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	account, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, domain.ForKind(kind, err)
	}
	return account, nil
}

// SoftDeleteUser flags a user as deleted. Calling it again returns the same state.
func (s *AccountService) SoftDeleteUser(ctx context.Context, id, actorID string) (*domain.Account, error) {
	repo, err := s.repo(domain.KindUser)
	if err != nil {
		return nil, err
	}
	account, err := repo.SoftDelete(ctx, id)
	if err != nil {
		return nil, domain.ForKind(domain.KindUser, err)
	}

	s.logger.Info().Str("account_id", id).Str("actor_id", actorID).Msg("user soft-deleted")
	s.record(account, domain.ActionSoftDeleted, actorID, nil)
	return account, nil
}

func (s *AccountService) issue(a *domain.Account, withEmail bool) (string, error) {
	sub := token.Subject{ID: a.ID, Role: a.Role, Kind: string(a.Kind)}
	if withEmail {
		sub.Email = a.Email
	}
	tkn, err := s.tokens.Issue(sub)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return tkn, nil
}

func (s *AccountService) record(a *domain.Account, action domain.ActivityAction, actorID string, fields []string) {
	if s.activity == nil || a == nil {
		return
	}
	s.activity.Enqueue(ports.ActivityInput{
		AccountID: a.ID,
		Kind:      a.Kind,
		Action:    action,
		ActorID:   actorID,
		Fields:    fields,
		At:        s.now().UTC(),
	})
}

func hashPassword(p string) (string, error) {
	hash, err := password.Hash(p)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return "", domain.ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
