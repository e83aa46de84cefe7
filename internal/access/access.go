// Package access manages the persistent store of authorized dashboard
// users and their roles.
//
// Storage is a JSON file keyed by lowercased email. Revocation is a
// soft delete so the audit trail of who granted and revoked access
// survives.
package access

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang-ar-analytics-service/pkg/errors"
	"golang-ar-analytics-service/pkg/logger"

	"github.com/google/uuid"
)

// Roles recognized by the dashboard.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is one authorized-user record.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	GrantedBy   string `json:"granted_by"`
	GrantedAt   string `json:"granted_at"`
	Active      bool   `json:"active"`

	RevokedBy     string `json:"revoked_by,omitempty"`
	RevokedAt     string `json:"revoked_at,omitempty"`
	ReactivatedBy string `json:"reactivated_by,omitempty"`
	ReactivatedAt string `json:"reactivated_at,omitempty"`
	RoleUpdatedBy string `json:"role_updated_by,omitempty"`
	RoleUpdatedAt string `json:"role_updated_at,omitempty"`
}

type database struct {
	Users map[string]*User `json:"users"`
}

// Store is the CRUD interface over the authorized-users file. Safe for
// concurrent use.
type Store struct {
	path   string
	logger logger.Logger
	now    func() time.Time

	mu   sync.Mutex
	data database
}

// NewStore opens (or initializes) the store at the given path. A
// corrupt or missing file starts empty rather than failing: access can
// always be re-granted, while a hard failure would lock everyone out.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger.GetGlobalLogger().WithComponent("access"),
		now:    time.Now,
		data:   database{Users: map[string]*User{}},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.FileError(errors.CodeFilePermission, filepath.Dir(path), err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return s, nil
	}

	var db database
	if err := json.Unmarshal(raw, &db); err != nil {
		s.logger.WithError(err).Warn("Access store unreadable, starting empty")
		return s, nil
	}
	if db.Users != nil {
		s.data = db
	}
	return s, nil
}

func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return errors.InternalError(errors.CodeUnexpectedError, "encoding access store", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return errors.FileError(errors.CodeFilePermission, s.path, err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BootstrapAdmins ensures the given emails always have active admin
// access. Runs unconditionally so a revoked or demoted bootstrap admin
// is restored on startup instead of locked out.
func (s *Store) BootstrapAdmins(emails []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, email := range emails {
		email = normalizeEmail(email)
		if email == "" {
			continue
		}
		existing := s.data.Users[email]
		switch {
		case existing == nil:
			s.data.Users[email] = &User{
				ID:          uuid.NewString(),
				Email:       email,
				DisplayName: strings.SplitN(email, "@", 2)[0],
				Role:        RoleAdmin,
				GrantedBy:   "system",
				GrantedAt:   s.timestamp(),
				Active:      true,
			}
			changed = true
			s.logger.WithField("email", email).Info("Bootstrap admin seeded")
		case !existing.Active || existing.Role != RoleAdmin:
			existing.Active = true
			existing.Role = RoleAdmin
			existing.ReactivatedBy = "system"
			existing.ReactivatedAt = s.timestamp()
			changed = true
			s.logger.WithField("email", email).Info("Bootstrap admin restored")
		}
	}

	if changed {
		return s.save()
	}
	return nil
}

// GetUser returns the record for an email, or nil when unknown.
func (s *Store) GetUser(email string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.data.Users[normalizeEmail(email)]
	if user == nil {
		return nil
	}
	copied := *user
	return &copied
}

// IsAuthorized reports whether the email has active access.
func (s *Store) IsAuthorized(email string) bool {
	user := s.GetUser(email)
	return user != nil && user.Active
}

// IsAdmin reports whether the email has active admin access.
func (s *Store) IsAdmin(email string) bool {
	user := s.GetUser(email)
	return user != nil && user.Active && user.Role == RoleAdmin
}

// ListUsers returns all records, active or not, sorted by email.
func (s *Store) ListUsers() []User {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]User, 0, len(s.data.Users))
	for _, u := range s.data.Users {
		users = append(users, *u)
	}
	sortUsers(users)
	return users
}

// ListActiveUsers returns only the active records, sorted by email.
func (s *Store) ListActiveUsers() []User {
	all := s.ListUsers()
	active := all[:0]
	for _, u := range all {
		if u.Active {
			active = append(active, u)
		}
	}
	return active
}

func sortUsers(users []User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
}

// Grant adds or replaces a user record with active access.
func (s *Store) Grant(email, displayName, role, grantedBy string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	if email == "" {
		return nil, errors.ValidationError(errors.CodeInvalidValue, "email", email, nil)
	}
	if role != RoleAdmin && role != RoleViewer {
		return nil, errors.ValidationError(errors.CodeInvalidValue, "role", role, nil)
	}

	id := uuid.NewString()
	if existing := s.data.Users[email]; existing != nil {
		id = existing.ID
	}
	user := &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		Role:        role,
		GrantedBy:   grantedBy,
		GrantedAt:   s.timestamp(),
		Active:      true,
	}
	s.data.Users[email] = user

	if err := s.save(); err != nil {
		return nil, err
	}
	s.logger.WithFields(logger.Fields{
		"email": email, "role": role, "granted_by": grantedBy,
	}).Info("Access granted")
	copied := *user
	return &copied, nil
}

// Revoke soft-deletes a user. Returns false when the email is unknown.
func (s *Store) Revoke(email, revokedBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.data.Users[normalizeEmail(email)]
	if user == nil {
		return false, nil
	}
	user.Active = false
	user.RevokedBy = revokedBy
	user.RevokedAt = s.timestamp()

	if err := s.save(); err != nil {
		return false, err
	}
	s.logger.WithFields(logger.Fields{
		"email": user.Email, "revoked_by": revokedBy,
	}).Info("Access revoked")
	return true, nil
}

// UpdateRole changes an existing user's role. Returns false when the
// email is unknown.
func (s *Store) UpdateRole(email, newRole, updatedBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if newRole != RoleAdmin && newRole != RoleViewer {
		return false, errors.ValidationError(errors.CodeInvalidValue, "role", newRole, nil)
	}
	user := s.data.Users[normalizeEmail(email)]
	if user == nil {
		return false, nil
	}
	user.Role = newRole
	user.RoleUpdatedBy = updatedBy
	user.RoleUpdatedAt = s.timestamp()

	if err := s.save(); err != nil {
		return false, err
	}
	return true, nil
}

// Reactivate re-enables a previously revoked user. Returns false when
// the email is unknown.
func (s *Store) Reactivate(email, grantedBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := s.data.Users[normalizeEmail(email)]
	if user == nil {
		return false, nil
	}
	user.Active = true
	user.RevokedBy = ""
	user.RevokedAt = ""
	user.ReactivatedBy = grantedBy
	user.ReactivatedAt = s.timestamp()

	if err := s.save(); err != nil {
		return false, err
	}
	return true, nil
}
