package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// AccountsNamespace is the storage namespace shared by every browser for
// account records.
const AccountsNamespace = "_accounts"

const minPasswordLength = 6

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password too short")
)

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

type account struct {
	User         domain.User `json:"user"`
	PasswordHash string      `json:"password_hash"`
}

func accountKey(email string) string {
	return "account_" + email
}

// AuthService registers and authenticates accounts. It knows nothing about
// browsers; the Storefront puts the returned identity into its session.
type AuthService struct {
	storage port.BrowserStorage
	logger  zerolog.Logger
	mu      sync.Mutex
	cost    int
	now     func() time.Time
	newID   func() string
}

func NewAuthService(provider port.StorageProvider, logger zerolog.Logger) *AuthService {
	return &AuthService{
		storage: provider.Storage(AccountsNamespace),
		logger:  logger.With().Str("component", "auth").Logger(),
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithCost sets the bcrypt cost used for new accounts.
func (a *AuthService) WithCost(cost int) *AuthService {
	a.cost = cost
	return a
}

func (a *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if len(in.Password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), a.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var existing account
	found, err := loadRecord(ctx, a.storage, accountKey(email), &existing)
	if err != nil && !errors.Is(err, ErrCorruptRecord) {
		return domain.User{}, err
	}
	if found {
		return domain.User{}, ErrEmailTaken
	}

	user := domain.User{
		ID:        a.newID(),
		Email:     email,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: a.now().UTC(),
	}
	if err := saveRecord(ctx, a.storage, accountKey(email), account{User: user, PasswordHash: string(hash)}); err != nil {
		return domain.User{}, err
	}
	a.logger.Info().Str("user_id", user.ID).Msg("account registered")
	return user, nil
}

func (a *AuthService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	var acc account
	found, err := loadRecord(ctx, a.storage, accountKey(email), &acc)
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return acc.User, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return email, nil
}
