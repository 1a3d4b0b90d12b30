// Package auth logs employees in with phone number and PIN and keeps the device session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"axiapac.com/punchclock/core"
	"axiapac.com/punchclock/model"
	"axiapac.com/punchclock/security"
	"axiapac.com/punchclock/store"
)

type Session struct {
	Token    string         `json:"token"`
	Employee model.Employee `json:"employee"`
}

type Service struct {
	store  *store.RecordStore
	tokens *security.TokenIssuer
	logger *slog.Logger
}

func NewService(rs *store.RecordStore, tokens *security.TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: rs, tokens: tokens, logger: logger}
}

// Login checks the PIN of the employee with phoneNumber and persists a new session.
// An unknown phone number is core.ErrNotFound, a wrong PIN core.ErrInvalidCredential.
func (s *Service) Login(ctx context.Context, phoneNumber, pin string) (*Session, error) {
	emp, err := s.store.EmployeeByPhone(ctx, phoneNumber)
	if err != nil {
		return nil, err
	}
	if emp.Pin != pin {
		return nil, fmt.Errorf("login %s: %w", phoneNumber, core.ErrInvalidCredential)
	}

	token, err := s.tokens.Issue(emp.ID, emp.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	if err := s.store.SaveSession(ctx, token, emp.ID); err != nil {
		return nil, err
	}

	s.logger.Info("employee logged in", "employeeId", emp.ID)
	return &Session{Token: token, Employee: emp.Public()}, nil
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.ClearSession(ctx); err != nil {
		return err
	}
	s.logger.Info("session cleared")
	return nil
}

// Restore returns the persisted session, or nil when there is none. A session whose
// employee no longer exists, or whose token no longer verifies, is discarded.
func (s *Service) Restore(ctx context.Context) (*Session, error) {
	saved, err := s.store.Session(ctx)
	if err != nil || saved == nil {
		return nil, err
	}

	if _, err := s.tokens.Verify(saved.Token); err != nil {
		s.logger.Warn("discarding session with invalid token", "employeeId", saved.EmployeeID, "error", err)
		return nil, s.store.ClearSession(ctx)
	}

	emp, err := s.store.EmployeeByID(ctx, saved.EmployeeID)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.Warn("discarding session of removed employee", "employeeId", saved.EmployeeID)
		return nil, s.store.ClearSession(ctx)
	}
	if err != nil {
		return nil, err
	}

	return &Session{Token: saved.Token, Employee: emp.Public()}, nil
}

// Authenticate resolves the employee of the current session token.
// Anything other than the persisted, valid token is core.ErrInvalidCredential.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Employee, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidCredential, err)
	}

	saved, err := s.store.Session(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil || saved.Token != token || saved.EmployeeID != claims.Subject {
		return nil, fmt.Errorf("%w: session has ended", core.ErrInvalidCredential)
	}

	emp, err := s.store.EmployeeByID(ctx, claims.Subject)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("%w: employee %s no longer exists", core.ErrInvalidCredential, claims.Subject)
	}
	return emp, err
}
