package api

import (
	"net/http"

	"github.com/huongkhe/schoolsite/internal/audit"
	"github.com/huongkhe/schoolsite/internal/auth"
	"github.com/huongkhe/schoolsite/internal/validation"
)

// loginRequest is the request body for POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required"`
}

// changePasswordRequest is the request body for POST /api/auth/change-password.
type changePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type userSummary struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        auth.Role `json:"role"`
}

type loginResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	User      userSummary `json:"user"`
	ExpiresIn int64       `json:"expiresIn"`
}

// sessionClaims mirrors the token claims returned by verify.
type sessionClaims struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Role     auth.Role `json:"role"`
	IssuedAt int64     `json:"iat"`
	Expires  int64     `json:"exp"`
}

type verifyResponse struct {
	Success bool          `json:"success"`
	User    sessionClaims `json:"user"`
}

type refreshResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleLogin authenticates a user and returns a session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := validation.DecodeJSON(r.Body, &req); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.authn.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	token, _, err := s.gate.IssueSession(user.ID, user.Username, user.Role)
	if err != nil {
		return err
	}

	requestInfoFrom(r.Context()).username = user.Username
	s.logger.Info("login successful", "username", user.Username, "role", user.Role)
	s.record(r, &audit.AuditLog{
		Action:     audit.ActionLogin,
		EntityType: "session",
		EntityID:   user.ID,
		UserID:     user.ID,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Message: "Login successful",
		Token:   token,
		User: userSummary{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			Role:        user.Role,
		},
		ExpiresIn: int64(s.gate.TTL().Seconds()),
	})
	return nil
}

// handleVerify returns the claims of a valid session.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) error {
	session := sessionFrom(r.Context())
	if _, err := s.authn.Lookup(r.Context(), session); err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, verifyResponse{
		Success: true,
		User: sessionClaims{
			UserID:   session.SubjectID,
			Username: session.Username,
			Role:     session.Role,
			IssuedAt: session.IssuedAt.Unix(),
			Expires:  session.ExpiresAt.Unix(),
		},
	})
	return nil
}

// handleLogout acknowledges a logout. Tokens are stateless; the client
// discards its copy.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) error {
	session := sessionFrom(r.Context())
	s.logger.Info("logout", "username", session.Username)
	s.record(r, &audit.AuditLog{
		Action:     audit.ActionLogout,
		EntityType: "session",
		EntityID:   session.SubjectID,
	})

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Logout successful"})
	return nil
}

// handleRefresh issues a fresh token for the current session's user.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) error {
	user, err := s.authn.Lookup(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		return err
	}

	token, _, err := s.gate.IssueSession(user.ID, user.Username, user.Role)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: int64(s.gate.TTL().Seconds()),
	})
	return nil
}

// handleChangePassword replaces the caller's password.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) error {
	var req changePasswordRequest
	if err := validation.DecodeJSON(r.Body, &req); err != nil {
		return err
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	user, err := s.authn.Lookup(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		return err
	}
	if err := s.authn.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	s.logger.Info("password changed", "username", user.Username)
	s.record(r, &audit.AuditLog{
		Action:     audit.ActionPasswordChange,
		EntityType: "user",
		EntityID:   user.ID,
	})

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Password changed successfully"})
	return nil
}
