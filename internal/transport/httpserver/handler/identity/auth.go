package identity

import (
	"errors"
	"net/http"
	"time"

	userdomain "foodshare-go/internal/domain/user"
	commonhandler "foodshare-go/internal/transport/httpserver/handler/common"
	"foodshare-go/internal/transport/httpserver/middleware"
)

type signUpRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Name       string  `json:"name"`
	BuildingID *string `json:"building_id"`
	Apartment  *string `json:"apartment"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendRequest struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	BuildingID   *string `json:"building_id"`
	BuildingName *string `json:"building_name"`
}

type signUpResponse struct {
	ID                   string `json:"id"`
	Email                string `json:"email"`
	Name                 string `json:"name"`
	VerificationRequired bool   `json:"verification_required"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      sessionResponse `json:"user"`
}

func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, err := h.Users.SignUp(r.Context(), userdomain.SignUpInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		BuildingID: req.BuildingID,
		Apartment:  req.Apartment,
	})
	if err != nil {
		h.writeUserError(w, "identity.signup", err)
		return
	}

	writeJSON(w, http.StatusCreated, signUpResponse{
		ID:                   user.ID,
		Email:                user.Email,
		Name:                 user.Name,
		VerificationRequired: !user.EmailVerified,
	})
}

func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	if err := h.Users.VerifyEmail(r.Context(), req.Email, req.Code); err != nil {
		h.writeUserError(w, "identity.verify", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *Handlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req resendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	err := h.Users.ResendVerification(r.Context(), req.Email)
	if err != nil && !errors.Is(err, userdomain.ErrUserNotFound) {
		h.writeUserError(w, "identity.resend_verification", err)
		return
	}
	// Unknown addresses get the same answer as known ones.
	writeJSON(w, http.StatusAccepted, map[string]bool{"sent": true})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	result, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeUserError(w, "identity.login", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      toSessionResponse(result.Session),
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		BuildingID:   user.BuildingID,
		BuildingName: user.BuildingName,
	})
}

func (h *Handlers) writeUserError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, userdomain.ErrInvalidInput):
		h.log.BusinessError(op+": invalid input", err)
		writeError(w, http.StatusBadRequest, "invalid_request", commonhandler.ValidationMessage(err, userdomain.ErrInvalidInput))
	case errors.Is(err, userdomain.ErrEmailTaken):
		h.log.BusinessError(op+": email taken", err)
		writeError(w, http.StatusBadRequest, "email_taken", "email is already registered")
	case errors.Is(err, userdomain.ErrApartmentTaken):
		h.log.BusinessError(op+": apartment taken", err)
		writeError(w, http.StatusBadRequest, "apartment_taken", "apartment is already registered in this building")
	case errors.Is(err, userdomain.ErrBuildingNotFound):
		h.log.BusinessError(op+": building not found", err)
		writeError(w, http.StatusBadRequest, "building_not_found", "building not found")
	case errors.Is(err, userdomain.ErrInvalidCredentials):
		h.log.BusinessError(op+": invalid credentials", err)
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, userdomain.ErrUserBlocked):
		h.log.BusinessError(op+": user blocked", err)
		writeError(w, http.StatusForbidden, "user_blocked", "account is blocked")
	case errors.Is(err, userdomain.ErrEmailNotVerified):
		h.log.BusinessError(op+": email not verified", err)
		writeError(w, http.StatusForbidden, "email_not_verified", "email is not verified")
	case errors.Is(err, userdomain.ErrVerificationCodeInvalid):
		h.log.BusinessError(op+": invalid code", err)
		writeError(w, http.StatusBadRequest, "invalid_code", "verification code is invalid")
	case errors.Is(err, userdomain.ErrVerificationCodeExpired):
		h.log.BusinessError(op+": code expired", err)
		writeError(w, http.StatusBadRequest, "code_expired", "verification code has expired")
	case errors.Is(err, userdomain.ErrAlreadyVerified):
		h.log.BusinessError(op+": already verified", err)
		writeError(w, http.StatusBadRequest, "already_verified", "email is already verified")
	case errors.Is(err, userdomain.ErrUserNotFound):
		h.log.BusinessError(op+": user not found", err)
		writeError(w, http.StatusNotFound, "user_not_found", "user not found")
	default:
		h.log.InternalError(op+": failed", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func toSessionResponse(session userdomain.Session) sessionResponse {
	return sessionResponse{
		ID:           session.ID,
		Email:        session.Email,
		Name:         session.Name,
		Role:         session.Role,
		BuildingID:   session.BuildingID,
		BuildingName: session.BuildingName,
	}
}
