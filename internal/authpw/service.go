// Package authpw provides email/password accounts with an admin approval
// lifecycle: pending -> approved/blocked, plus admin-created pre-approved
// accounts that adopt their password at signup.
package authpw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"sitewatch/api/internal/clientstore"
)

const usersKey = "dpwh_users"

// Account statuses.
const (
	StatusPending     = "pending"
	StatusApproved    = "approved"
	StatusBlocked     = "blocked"
	StatusPreapproved = "preapproved"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPendingApproval    = errors.New("account is pending approval")
	ErrBlocked            = errors.New("account is blocked")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotFound           = errors.New("account not found")
)

// Account is one registered dashboard user. The password hash never leaves
// the package through JSON.
type Account struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Section      string `json:"section"`
	PasswordHash string `json:"-"`
	Status       string `json:"status"`
	IsAdmin      bool   `json:"isAdmin"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// storedAccount is the persisted shape, hash included.
type storedAccount struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Section      string `json:"section"`
	PasswordHash string `json:"passwordHash,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt,omitempty"`
}

// Service manages the account list. Accounts live as one JSON array under
// the dpwh_users key of the client-storage namespace, so they share the
// deployment's Redis (or memory) backing with everything else.
type Service struct {
	ns         clientstore.Namespace
	adminEmail string
	mu         sync.Mutex
}

func NewService(ns clientstore.Namespace, adminEmail string) *Service {
	return &Service{ns: ns, adminEmail: NormalizeEmail(adminEmail)}
}

// NormalizeEmail lowercases and trims an email for comparison and storage.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// IsAdmin reports whether an email is the configured admin account.
func (s *Service) IsAdmin(email string) bool {
	return s.adminEmail != "" && NormalizeEmail(email) == s.adminEmail
}

// SignUpRequest contains sign-up parameters.
type SignUpRequest struct {
	Name     string
	Email    string
	Section  string
	Password string
}

// SignUp registers a new account. The configured admin email is approved
// immediately; everyone else starts pending. Signing up against a
// pre-approved account adopts the password and approves it in one step.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (Account, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	section := strings.TrimSpace(req.Section)
	if name == "" || email == "" || section == "" || req.Password == "" {
		return Account{}, errors.New("name, email, section, and password are required")
	}
	if len(req.Password) < 6 {
		return Account{}, errors.New("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return Account{}, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if i := findByEmail(accounts, email); i >= 0 {
		existing := &accounts[i]
		if existing.Status != StatusPreapproved || existing.PasswordHash != "" {
			return Account{}, ErrEmailTaken
		}
		existing.Name = name
		existing.Section = section
		existing.PasswordHash = string(hash)
		existing.Status = StatusApproved
		existing.UpdatedAt = now
		if err := s.save(ctx, accounts); err != nil {
			return Account{}, err
		}
		return s.public(*existing), nil
	}

	status := StatusPending
	if s.IsAdmin(email) {
		status = StatusApproved
	}
	acct := storedAccount{
		Name:         name,
		Email:        email,
		Section:      section,
		PasswordHash: string(hash),
		Status:       status,
		CreatedAt:    now,
	}
	accounts = append(accounts, acct)
	if err := s.save(ctx, accounts); err != nil {
		return Account{}, err
	}
	return s.public(acct), nil
}

// SignIn authenticates an account. The admin email is approved on first
// sign-in if it somehow is not already.
func (s *Service) SignIn(ctx context.Context, email, password string) (Account, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Account{}, ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return Account{}, err
	}
	i := findByEmail(accounts, email)
	if i < 0 {
		return Account{}, ErrInvalidCredentials
	}
	acct := &accounts[i]
	if acct.PasswordHash == "" {
		// Pre-approved accounts have no password until signup.
		return Account{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}

	if s.IsAdmin(email) {
		if acct.Status != StatusApproved {
			acct.Status = StatusApproved
			acct.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			if err := s.save(ctx, accounts); err != nil {
				return Account{}, err
			}
		}
	} else {
		switch acct.Status {
		case StatusApproved:
		case StatusBlocked:
			return Account{}, ErrBlocked
		default:
			return Account{}, ErrPendingApproval
		}
	}
	return s.public(*acct), nil
}

// List returns all accounts sorted by creation time, hashes stripped.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, s.public(a))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// SetStatus moves an account to approved or blocked.
func (s *Service) SetStatus(ctx context.Context, email, status string) (Account, error) {
	if status != StatusApproved && status != StatusBlocked {
		return Account{}, fmt.Errorf("invalid status %q", status)
	}
	return s.update(ctx, email, func(a *storedAccount) error {
		a.Status = status
		return nil
	})
}

// PreApprove creates an admin-provisioned account with no password. The
// account becomes usable when its owner signs up and the password is
// adopted. Pre-approving an email that already exists is a no-op.
func (s *Service) PreApprove(ctx context.Context, name, email, section string) (Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Account{}, errors.New("email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return Account{}, err
	}
	if i := findByEmail(accounts, email); i >= 0 {
		return s.public(accounts[i]), nil
	}

	acct := storedAccount{
		Name:      strings.TrimSpace(name),
		Email:     email,
		Section:   strings.TrimSpace(section),
		Status:    StatusPreapproved,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	accounts = append(accounts, acct)
	if err := s.save(ctx, accounts); err != nil {
		return Account{}, err
	}
	return s.public(acct), nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := findByEmail(accounts, email)
	if i < 0 {
		return ErrNotFound
	}
	accounts = append(accounts[:i], accounts[i+1:]...)
	return s.save(ctx, accounts)
}

// ResetPassword replaces an account's password. Resets are admin-initiated,
// so no token round-trip happens here.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = s.update(ctx, email, func(a *storedAccount) error {
		a.PasswordHash = string(hash)
		return nil
	})
	return err
}

func (s *Service) update(ctx context.Context, email string, apply func(*storedAccount) error) (Account, error) {
	email = NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.load(ctx)
	if err != nil {
		return Account{}, err
	}
	i := findByEmail(accounts, email)
	if i < 0 {
		return Account{}, ErrNotFound
	}
	if err := apply(&accounts[i]); err != nil {
		return Account{}, err
	}
	accounts[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := s.save(ctx, accounts); err != nil {
		return Account{}, err
	}
	return s.public(accounts[i]), nil
}

func (s *Service) public(a storedAccount) Account {
	return Account{
		Name:         a.Name,
		Email:        a.Email,
		Section:      a.Section,
		PasswordHash: a.PasswordHash,
		Status:       a.Status,
		IsAdmin:      s.IsAdmin(a.Email),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// load reads the account list. A missing or corrupt blob reads as empty.
func (s *Service) load(ctx context.Context) ([]storedAccount, error) {
	data, err := s.ns.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	raw, ok := data[usersKey]
	if !ok || raw == "" {
		return nil, nil
	}
	var accounts []storedAccount
	if err := json.Unmarshal([]byte(raw), &accounts); err != nil {
		return nil, nil
	}
	return accounts, nil
}

func (s *Service) save(ctx context.Context, accounts []storedAccount) error {
	blob, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("marshal accounts: %w", err)
	}
	if err := s.ns.SetItem(ctx, usersKey, string(blob)); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}

func findByEmail(accounts []storedAccount, email string) int {
	for i, a := range accounts {
		if NormalizeEmail(a.Email) == email {
			return i
		}
	}
	return -1
}
