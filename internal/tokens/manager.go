package tokens

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Manager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

type Issued struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

func NewManager(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *Manager {
	if len(refreshSecret) == 0 {
		refreshSecret = accessSecret
	}
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Manager{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Now:           time.Now,
	}
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// IssueAccess embeds the user id and the profile fields the UI renders.
func (m *Manager) IssueAccess(u *models.User) (Issued, error) {
	now := m.now()
	exp := now.Add(m.AccessTTL)
	claims := AccessClaims{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Lastname:   u.Lastname,
		Phone:      u.Phone,
		Postalcode: u.Postalcode,
		Direction:  u.Direction,
		IsAdmin:    u.IsAdmin,
		Type:       TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.AccessSecret)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: token, ExpiresAt: exp}, nil
}

func (m *Manager) IssueRefresh(userID uint) (Issued, error) {
	now := m.now()
	exp := now.Add(m.RefreshTTL)
	jti := uuid.NewString()
	claims := RefreshClaims{
		UserID: userID,
		Type:   TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.RefreshSecret)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Token: token, JTI: jti, ExpiresAt: exp}, nil
}

func (m *Manager) ParseAccess(token string) (*AccessClaims, error) {
	return AccessClaimsFromToken(token, m.AccessSecret, jwt.WithTimeFunc(m.now))
}

func (m *Manager) ParseRefresh(token string) (*RefreshClaims, error) {
	return RefreshClaimsFromToken(token, m.RefreshSecret, jwt.WithTimeFunc(m.now))
}

// Clock returns the manager's notion of now.
func (m *Manager) Clock() time.Time {
	return m.now()
}
