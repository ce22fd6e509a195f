package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ollamafleet/router/ent"
	"github.com/ollamafleet/router/ent/user"
	"github.com/ollamafleet/router/pkg/models"
)

// PasswordHasher hashes and verifies passwords. Implemented by pkg/auth
// (bcrypt) and injected here so this package has no crypto dependency of
// its own — the same dependency-inversion shape as the Scheduler
// interface in endpoint_service.go.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// UserService manages User CRUD and admin bootstrap.
type UserService struct {
	client *ent.Client
	hasher PasswordHasher
	plans  *PlanService
}

// NewUserService creates a new UserService.
func NewUserService(client *ent.Client, hasher PasswordHasher, plans *PlanService) *UserService {
	return &UserService{client: client, hasher: hasher, plans: plans}
}

// HasAnyUser reports whether at least one user exists, used to gate the
// one-time /user/init bootstrap route.
func (s *UserService) HasAnyUser(ctx context.Context) (bool, error) {
	count, err := s.client.User.Query().Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

// InitFirstAdmin creates the first user and forces it to admin. Fails if
// any user already exists.
func (s *UserService) InitFirstAdmin(ctx context.Context, req models.InitUserRequest) (*ent.User, error) {
	exists, err := s.HasAnyUser(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	plan, err := s.plans.GetDefaultPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default plan: %w", err)
	}

	return s.createUser(ctx, req.Username, req.Password, plan.ID, true)
}

// CreateUser creates a user with the given plan, defaulting to the
// system's default plan when none is specified.
func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (*ent.User, error) {
	planID := req.PlanID
	if planID == "" {
		plan, err := s.plans.GetDefaultPlan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default plan: %w", err)
		}
		planID = plan.ID
	}
	return s.createUser(ctx, req.Username, req.Password, planID, req.IsAdmin)
}

func (s *UserService) createUser(ctx context.Context, username, password, planID string, isAdmin bool) (*ent.User, error) {
	if username == "" {
		return nil, NewValidationError("username", "required")
	}
	if len(password) < 8 {
		return nil, NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u, err := s.client.User.Create().
		SetID(uuid.New().String()).
		SetUsername(username).
		SetPasswordHash(hash).
		SetIsAdmin(isAdmin).
		SetPlanID(planID).
		Save(ctx)
	if err != nil {
		if ent.IsConstraintError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// Authenticate verifies a username/password pair and returns the user on
// success.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*ent.User, error) {
	u, err := s.client.User.Query().Where(user.UsernameEQ(username)).Only(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// GetUser fetches one user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*ent.User, error) {
	u, err := s.client.User.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// UpdateUser applies a partial admin update to a user.
func (s *UserService) UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest) (*ent.User, error) {
	update := s.client.User.UpdateOneID(id)
	if req.PlanID != nil {
		update = update.SetPlanID(*req.PlanID)
	}
	if req.IsAdmin != nil {
		update = update.SetIsAdmin(*req.IsAdmin)
	}
	u, err := update.Save(ctx)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

// ListUsers returns a paginated page of users.
func (s *UserService) ListUsers(ctx context.Context, page, size int) (*models.UserListResponse, error) {
	page, size = normalizePage(page, size)

	totalCount, err := s.client.User.Query().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	users, err := s.client.User.Query().
		Order(ent.Asc(user.FieldCreatedAt)).
		Offset((page - 1) * size).
		Limit(size).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserResponse{
			ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin,
			PlanID: u.PlanID, CreatedAt: u.CreatedAt,
		})
	}

	return &models.UserListResponse{Users: out, TotalCount: totalCount, Page: page, Size: size}, nil
}
