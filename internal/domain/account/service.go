package account

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
)

// TokenIssuer signs a session token for an authenticated principal.
type TokenIssuer interface {
	Issue(p auth.Principal) (string, time.Time, error)
}

type Service struct {
	logins LoginRepository
	issuer TokenIssuer
}

func NewService(logins LoginRepository, issuer TokenIssuer) *Service {
	return &Service{logins: logins, issuer: issuer}
}

var errBadCredentials = apperr.Unauthorized("invalid username or password")

// Login checks the credentials and returns a signed session. Unknown users
// and wrong passwords get the same answer.
func (s *Service) Login(ctx context.Context, cred Credentials) (*Session, error) {
	username := strings.TrimSpace(cred.Username)
	if username == "" || cred.Password == "" {
		return nil, apperr.Validation("username and password are required")
	}
	l, err := s.logins.GetByUsername(ctx, username)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(l.PasswordHash, cred.Password) {
		return nil, errBadCredentials
	}

	principal := auth.Principal{
		UserID:    l.ID.String(),
		Username:  l.Username,
		StaffID:   l.StaffID,
		PatientID: l.PatientID,
	}
	session := &Session{}
	switch {
	case l.StaffID != nil:
		profile, err := s.logins.StaffProfile(ctx, *l.StaffID)
		if err != nil {
			return nil, err
		}
		principal.Role = profile.Role
		session.Staff = profile
	case l.PatientID != nil:
		profile, err := s.logins.PatientProfile(ctx, *l.PatientID)
		if err != nil {
			return nil, err
		}
		principal.Role = auth.RolePatient
		session.Patient = profile
	default:
		return nil, errBadCredentials
	}

	token, exp, err := s.issuer.Issue(principal)
	if err != nil {
		return nil, apperr.Internal(err, "issue token")
	}
	session.Token = token
	session.ExpiresAt = exp
	session.Role = principal.Role
	return session, nil
}

func (s *Service) newLogin(username, password string) (*Login, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Validation("username and password are required")
	}
	if len(password) < auth.MinPasswordLength {
		return nil, apperr.Validation("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	return &Login{Username: username, PasswordHash: hash}, nil
}

func (s *Service) CreateStaffLogin(ctx context.Context, req NewStaffLogin) (*Login, error) {
	if req.StaffID == uuid.Nil {
		return nil, apperr.Validation("staff_id is required")
	}
	l, err := s.newLogin(req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	l.StaffID = &req.StaffID
	if err := s.logins.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) CreatePatientLogin(ctx context.Context, username, password string, patientID uuid.UUID) error {
	l, err := s.newLogin(username, password)
	if err != nil {
		return err
	}
	l.PatientID = &patientID
	return s.logins.Create(ctx, l)
}

func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.logins.UsernameExists(ctx, strings.TrimSpace(username))
}
