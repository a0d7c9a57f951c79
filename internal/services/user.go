package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/intellexhq/intellex-backend/internal/logger"
	"github.com/intellexhq/intellex-backend/internal/repos"
	"github.com/intellexhq/intellex-backend/internal/types"
	"github.com/intellexhq/intellex-backend/internal/utils"
)

type APIKeyPayload struct {
	OpenAI    string `json:"openai,omitempty"`
	Anthropic string `json:"anthropic,omitempty"`
}

type APIKeySummary struct {
	Provider string `json:"provider"`
	Last4    string `json:"last4"`
	StoredAt int64  `json:"storedAt"`
}

type APIKeysResponse struct {
	Keys []APIKeySummary `json:"keys"`
}

type UserService interface {
	GetOrCreate(ctx context.Context, email, name string) (*types.User, error)
	GetByID(ctx context.Context, id string) (*types.User, error)
	Find(ctx context.Context, identifier string) (*types.User, error)
	First(ctx context.Context) (*types.User, error)
	DeleteAccount(ctx context.Context, userID, email string) (bool, error)
	SaveAPIKeys(ctx context.Context, userID string, payload APIKeyPayload) (*APIKeysResponse, error)
	GetAPIKeys(ctx context.Context, userID string) (*APIKeysResponse, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	projectRepo   repos.ProjectRepo
	planRepo      repos.ResearchPlanRepo
	messageRepo   repos.MessageRepo
	shareRepo     repos.ProjectShareRepo
	encryptionKey *[32]byte
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	projectRepo repos.ProjectRepo,
	planRepo repos.ResearchPlanRepo,
	messageRepo repos.MessageRepo,
	shareRepo repos.ProjectShareRepo,
	encryptionKey *[32]byte,
) UserService {
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		projectRepo:   projectRepo,
		planRepo:      planRepo,
		messageRepo:   messageRepo,
		shareRepo:     shareRepo,
		encryptionKey: encryptionKey,
	}
}

func (us *userService) GetOrCreate(ctx context.Context, email, name string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrInvalidInput)
	}

	existing, err := us.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if existing != nil {
		// Pick up a changed display name; everything else stays as stored.
		trimmed := strings.TrimSpace(name)
		if trimmed != "" && trimmed != existing.Name {
			if err := us.userRepo.UpdateFields(ctx, nil, existing.ID, map[string]interface{}{"name": trimmed}); err != nil {
				return nil, fmt.Errorf("update user name: %w", err)
			}
			existing.Name = trimmed
		}
		return existing, nil
	}

	displayName := strings.TrimSpace(name)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	prefs, err := types.EncodePreferences(types.DefaultPreferences())
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	user := &types.User{
		ID:          utils.NewID("user"),
		Email:       email,
		Name:        displayName,
		Preferences: prefs,
	}
	if _, err := us.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	us.log.Info("User created", "user_id", user.ID)
	return user, nil
}

func (us *userService) GetByID(ctx context.Context, id string) (*types.User, error) {
	user, err := us.userRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, nil
}

// Find resolves an identifier as an email first, then as an id.
func (us *userService) Find(ctx context.Context, identifier string) (*types.User, error) {
	byEmail, err := us.userRepo.GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(identifier)))
	if err != nil {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if byEmail != nil {
		return byEmail, nil
	}
	byID, err := us.userRepo.GetByID(ctx, nil, identifier)
	if err != nil {
		return nil, fmt.Errorf("lookup by id: %w", err)
	}
	if byID == nil {
		return nil, fmt.Errorf("user %s: %w", identifier, ErrNotFound)
	}
	return byID, nil
}

func (us *userService) First(ctx context.Context) (*types.User, error) {
	user, err := us.userRepo.GetFirst(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get first user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("no users: %w", ErrNotFound)
	}
	return user, nil
}

// DeleteAccount removes the user and everything hanging off their projects.
func (us *userService) DeleteAccount(ctx context.Context, userID, email string) (bool, error) {
	if userID == "" && email == "" {
		return false, fmt.Errorf("userId or email is required: %w", ErrInvalidInput)
	}

	var user *types.User
	var err error
	if userID != "" {
		user, err = us.userRepo.GetByID(ctx, nil, userID)
	} else {
		user, err = us.userRepo.GetByEmail(ctx, nil, strings.ToLower(strings.TrimSpace(email)))
	}
	if err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return false, nil
	}

	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectIDs, err := us.projectRepo.ListIDsByUser(ctx, tx, user.ID)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		if err := us.messageRepo.DeleteByProjects(ctx, tx, projectIDs); err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := us.planRepo.DeleteByProjects(ctx, tx, projectIDs); err != nil {
			return fmt.Errorf("delete plans: %w", err)
		}
		if err := us.shareRepo.DeleteByProjects(ctx, tx, projectIDs); err != nil {
			return fmt.Errorf("delete shares: %w", err)
		}
		if err := us.projectRepo.Delete(ctx, tx, projectIDs); err != nil {
			return fmt.Errorf("delete projects: %w", err)
		}
		if err := us.userRepo.Delete(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	us.log.Info("Account deleted", "user_id", user.ID)
	return true, nil
}

func (us *userService) SaveAPIKeys(ctx context.Context, userID string, payload APIKeyPayload) (*APIKeysResponse, error) {
	if payload.OpenAI == "" && payload.Anthropic == "" {
		return nil, fmt.Errorf("at least one API key is required: %w", ErrInvalidInput)
	}
	if us.encryptionKey == nil {
		return nil, fmt.Errorf("API_KEY_ENCRYPTION_KEY is missing: %w", ErrNotConfigured)
	}

	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	prefs := types.DecodePreferences(user.Preferences)
	if prefs.APIKeys == nil {
		prefs.APIKeys = map[string]types.APIKeyRecord{}
	}

	now := utils.NowMS()
	store := func(provider, secret string) error {
		ciphertext, err := utils.EncryptSecret(us.encryptionKey, secret)
		if err != nil {
			return fmt.Errorf("encrypt %s key: %w", provider, err)
		}
		last4 := secret
		if len(last4) > 4 {
			last4 = last4[len(last4)-4:]
		}
		prefs.APIKeys[provider] = types.APIKeyRecord{Ciphertext: ciphertext, Last4: last4, StoredAt: now}
		return nil
	}
	if payload.OpenAI != "" {
		if err := store("openai", payload.OpenAI); err != nil {
			return nil, err
		}
	}
	if payload.Anthropic != "" {
		if err := store("anthropic", payload.Anthropic); err != nil {
			return nil, err
		}
	}

	encoded, err := types.EncodePreferences(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	if err := us.userRepo.UpdateFields(ctx, nil, user.ID, map[string]interface{}{"preferences": encoded}); err != nil {
		return nil, fmt.Errorf("store preferences: %w", err)
	}

	return summarizeKeys(prefs.APIKeys), nil
}

func (us *userService) GetAPIKeys(ctx context.Context, userID string) (*APIKeysResponse, error) {
	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs := types.DecodePreferences(user.Preferences)
	return summarizeKeys(prefs.APIKeys), nil
}

func summarizeKeys(keys map[string]types.APIKeyRecord) *APIKeysResponse {
	out := &APIKeysResponse{Keys: []APIKeySummary{}}
	providers := make([]string, 0, len(keys))
	for provider := range keys {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	for _, provider := range providers {
		rec := keys[provider]
		if rec.Last4 == "" || rec.StoredAt == 0 {
			continue
		}
		out.Keys = append(out.Keys, APIKeySummary{Provider: provider, Last4: rec.Last4, StoredAt: rec.StoredAt})
	}
	return out
}
