// Package session keeps the signed-in user between runs: the decoded token
// claims, the raw access token and the user's phone number.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/apiclient"
	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/storage"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrLoginRequired = errors.New("login required")
	ErrNotFound      = errors.New("not found")
)

const minPasswordLen = 4

var phonePattern = regexp.MustCompile(`^0\d{9}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// API is the part of the backend the session needs.
type API interface {
	SignIn(ctx context.Context, phone, password string) (string, error)
	CreateAccount(ctx context.Context, phone, password string) error
	GetUserByPhone(ctx context.Context, phone string) (*models.UserProfile, error)
	UpdateUser(ctx context.Context, phone string, form models.ProfileUpdate) (*models.UserProfile, error)
}

type User struct {
	Subject   string
	Name      string
	Phone     string
	Roles     []string
	ExpiresAt time.Time
	Token     string
}

// Expired reports whether the token carried an exp claim that has passed.
func (u *User) Expired(now time.Time) bool {
	return !u.ExpiresAt.IsZero() && now.After(u.ExpiresAt)
}

type Service struct {
	kv  storage.KV
	api API
	now func() time.Time
}

func NewService(kv storage.KV, api API) *Service {
	return &Service{kv: kv, api: api, now: time.Now}
}

func (s *Service) Login(ctx context.Context, phone, password string) (*User, error) {
	l := logging.FromContext(ctx).With("component", "session")

	phone = strings.TrimSpace(phone)
	if !ValidPhone(phone) {
		return nil, messages.New(ErrValidation, messages.InvalidPhone)
	}
	if password == "" {
		return nil, messages.New(ErrValidation, messages.EmptyPassword)
	}

	token, err := s.api.SignIn(ctx, phone, password)
	if err != nil {
		l.Warn("login_failed", "status", "unauthorized", "error", err)
		return nil, err
	}

	claims, err := decodeClaims(token)
	if err != nil {
		l.Error("login_failed", "reason", "bad token", "error", err)
		return nil, messages.New(fmt.Errorf("decode token: %w", err), messages.LoginFailed)
	}
	blob, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("encode claims: %w", err)
	}

	u := userFromClaims(claims)
	u.Token = token
	if u.Phone == "" {
		u.Phone = phone
	}

	if err := s.kv.Set(ctx, storage.KeyUser, string(blob)); err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, storage.KeyAccessToken, token); err != nil {
		return nil, err
	}
	if err := s.kv.Set(ctx, storage.KeyUserPhone, u.Phone); err != nil {
		return nil, err
	}

	l.Info("login", "status", "ok", "sub", u.Subject)
	return u, nil
}

func (s *Service) Register(ctx context.Context, phone, password, confirm string) error {
	phone = strings.TrimSpace(phone)
	password = strings.TrimSpace(password)
	confirm = strings.TrimSpace(confirm)

	switch {
	case phone == "" || password == "" || confirm == "":
		return messages.New(ErrValidation, messages.MissingFields)
	case password != confirm:
		return messages.New(ErrValidation, messages.PasswordMismatch)
	case len([]rune(password)) < minPasswordLen:
		return messages.New(ErrValidation, messages.PasswordTooShort)
	}

	if err := s.api.CreateAccount(ctx, phone, password); err != nil {
		logging.FromContext(ctx).Warn("register_failed", "error", err)
		return err
	}
	return nil
}

// Current returns the stored user, or nil when nobody is signed in.
func (s *Service) Current(ctx context.Context) (*User, error) {
	raw, ok, err := s.kv.Get(ctx, storage.KeyUser)
	if err != nil || !ok {
		return nil, err
	}
	var claims map[string]any
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		logging.FromContext(ctx).Warn("session_corrupt", "key", storage.KeyUser, "error", err)
		return nil, nil
	}
	u := userFromClaims(claims)

	if u.Phone == "" {
		if phone, ok, err := s.kv.Get(ctx, storage.KeyUserPhone); err == nil && ok && ValidPhone(phone) {
			u.Phone = phone
		}
	}
	if tok, ok, err := s.kv.Get(ctx, storage.KeyAccessToken); err == nil && ok {
		u.Token = tok
	}
	return u, nil
}

// LoggedIn mirrors the cart gate: a stored phone is enough.
func (s *Service) LoggedIn(ctx context.Context) (bool, error) {
	_, ok, err := s.kv.Get(ctx, storage.KeyUserPhone)
	return ok, err
}

// RequireLogin returns the signed-in user with a usable token.
func (s *Service) RequireLogin(ctx context.Context) (*User, error) {
	u, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Token == "" {
		return nil, messages.New(ErrLoginRequired, messages.LoginRequired)
	}
	if u.Expired(s.now()) {
		logging.FromContext(ctx).Info("session_expired", "sub", u.Subject, "exp", u.ExpiresAt)
		return nil, messages.New(ErrLoginRequired, messages.LoginRequired)
	}
	return u, nil
}

func (s *Service) AccessToken(ctx context.Context) (string, error) {
	u, err := s.RequireLogin(ctx)
	if err != nil {
		return "", err
	}
	return u.Token, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.kv.Remove(ctx, storage.KeyUser, storage.KeyAccessToken, storage.KeyUserPhone)
}

func (s *Service) Profile(ctx context.Context) (*models.UserProfile, error) {
	u, err := s.RequireLogin(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.api.GetUserByPhone(ctx, u.Phone)
	if errors.Is(err, apiclient.ErrNotFound) {
		return nil, messages.New(ErrNotFound, messages.UserNotFound)
	}
	if err != nil {
		logging.FromContext(ctx).Warn("profile_load_failed", "error", err)
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, form models.ProfileUpdate) (*models.UserProfile, error) {
	u, err := s.RequireLogin(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.api.UpdateUser(ctx, u.Phone, form)
	if err != nil {
		logging.FromContext(ctx).Warn("profile_update_failed", "error", err)
		return nil, err
	}
	return p, nil
}

// decodeClaims reads the token payload. The client has no signing key, so
// the signature is not checked.
func decodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func userFromClaims(claims map[string]any) *User {
	u := &User{
		Subject: stringClaim(claims, "sub"),
		Name:    stringClaim(claims, "nameuser"),
		Phone:   firstNonEmpty(claims, "numberPhone", "sodienthoai", "phoneNumber"),
	}
	if roles, ok := claims["roles"].([]any); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				u.Roles = append(u.Roles, s)
			}
		}
	}
	if exp, ok := claims["exp"].(float64); ok && exp > 0 {
		u.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return u
}

func stringClaim(claims map[string]any, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

func firstNonEmpty(claims map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := stringClaim(claims, k); v != "" {
			return v
		}
	}
	return ""
}
