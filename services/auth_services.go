package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"codewhisperer/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DefaultAccounts is the built-in account list used when no accounts file is configured
func DefaultAccounts() []models.Account {
	accounts := []models.Account{
		{ID: "admin", TeamName: "Organizers", Password: "admin", Role: models.RoleAdmin},
	}
	for i := 1; i <= 10; i++ {
		accounts = append(accounts, models.Account{
			ID:          fmt.Sprintf("team%d", i),
			TeamName:    fmt.Sprintf("Team %d", i),
			Password:    fmt.Sprintf("team%d", i),
			Role:        models.RoleTeam,
			Permissions: []string{},
		})
	}
	return accounts
}

// LoadAccounts reads the YAML account list at path, or the defaults when path is empty.
// Plain passwords are hashed at load so only hashes stay in memory.
func LoadAccounts(path string) ([]models.Account, error) {
	accounts := DefaultAccounts()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read accounts file: %w", err)
		}
		var file struct {
			Accounts []models.Account `yaml:"accounts"`
		}
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return nil, fmt.Errorf("failed to parse accounts file: %w", err)
		}
		accounts = file.Accounts
	}
	return prepareAccounts(accounts)
}

func prepareAccounts(accounts []models.Account) ([]models.Account, error) {
	seen := make(map[string]bool, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		if a.ID == "" || a.TeamName == "" {
			return nil, fmt.Errorf("account %d: id and team_name are required", i)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicate account id %q", a.ID)
		}
		seen[a.ID] = true
		if a.Role == "" {
			a.Role = models.RoleTeam
		}
		if a.PasswordHash == "" {
			if a.Password == "" {
				return nil, fmt.Errorf("account %q has no password", a.ID)
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, err
			}
			a.PasswordHash = string(hash)
		}
		a.Password = ""
	}
	return accounts, nil
}

// Claims is the session carried by the auth token
type Claims struct {
	TeamID      string   `json:"team_id"`
	TeamName    string   `json:"team_name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Account rebuilds the account view of the session for permission checks
func (c *Claims) Account() models.Account {
	return models.Account{ID: c.Subject, TeamName: c.TeamName, Role: c.Role, Permissions: c.Permissions}
}

// Session is returned by a successful login
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	AccountID string    `json:"account_id"`
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	Role      string    `json:"role"`
}

// unknownAccountHash is checked on a team name miss, matching the cost of a known name
var unknownAccountHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("unknown account"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("failed to hash placeholder password: %v", err))
	}
	return hash
})

type AuthService struct {
	db       *gorm.DB
	accounts map[string]models.Account
	secret   []byte
	ttl      time.Duration
}

func NewAuthService(db *gorm.DB, accounts []models.Account, secret string, ttl time.Duration) *AuthService {
	byName := make(map[string]models.Account, len(accounts))
	for _, a := range accounts {
		byName[a.TeamName] = a
	}
	return &AuthService{db: db, accounts: byName, secret: []byte(secret), ttl: ttl}
}

// Login checks the credentials of a team and issues a signed session
func (s *AuthService) Login(ctx context.Context, teamName, password string) (*Session, error) {
	account, ok := s.accounts[teamName]
	if !ok {
		bcrypt.CompareHashAndPassword(unknownAccountHash(), []byte(password))
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}

	var team models.Team
	if err := s.db.WithContext(ctx).First(&team, "name = ?", account.TeamName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("team %q is not seeded: %w", account.TeamName, ErrUnauthorized)
		}
		return nil, err
	}

	expiresAt := time.Now().Add(s.ttl)
	claims := Claims{
		TeamID:      team.ID,
		TeamName:    team.Name,
		Role:        account.Role,
		Permissions: account.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return &Session{
		Token:     token,
		ExpiresAt: expiresAt,
		AccountID: account.ID,
		TeamID:    team.ID,
		TeamName:  team.Name,
		Role:      account.Role,
	}, nil
}

// ParseToken validates a session token and returns its claims
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// TTL is the lifetime of issued sessions
func (s *AuthService) TTL() time.Duration {
	return s.ttl
}
