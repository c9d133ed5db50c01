package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/h2ledger/h2ledger/internal/identity"
	"github.com/h2ledger/h2ledger/internal/mailer"
	"github.com/h2ledger/h2ledger/internal/otp"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "h2_session"

// Handler exposes the two-phase OTP login flow.
type Handler struct {
	identities *identity.Service
	challenges *otp.Service
	sessions   *Service
}

// NewHandler builds an auth HTTP handler.
func NewHandler(identities *identity.Service, challenges *otp.Service, sessions *Service) *Handler {
	return &Handler{identities: identities, challenges: challenges, sessions: sessions}
}

type loginRequest struct {
	PAN string `json:"pan"`
	GST string `json:"gst"`
	OTP string `json:"otp"`
}

// Login drives the OTP state machine. Without an otp field the request
// issues a challenge and answers 202 otp_sent — deliberately distinct from a
// completed login. With an otp field the challenge is verified and, on
// success, a signed session is issued.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	req.PAN = strings.ToUpper(strings.TrimSpace(req.PAN))
	req.GST = strings.ToUpper(strings.TrimSpace(req.GST))
	if req.PAN == "" || req.GST == "" {
		return fiber.NewError(http.StatusBadRequest, "pan and gst are required")
	}

	if req.OTP == "" {
		if err := h.challenges.RequestChallenge(c.UserContext(), req.PAN, req.GST); err != nil {
			switch {
			case errors.Is(err, identity.ErrUnknownIdentity):
				return fiber.NewError(http.StatusUnauthorized, "invalid PAN or GST")
			case errors.Is(err, mailer.ErrDeliveryFailed):
				return fiber.NewError(http.StatusBadGateway, "failed to send OTP, please try again")
			default:
				return fiber.NewError(http.StatusInternalServerError, "login failed")
			}
		}
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "otp_sent"})
	}

	company, err := h.challenges.VerifyChallenge(c.UserContext(), req.PAN, req.GST, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUnknownIdentity):
			return fiber.NewError(http.StatusUnauthorized, "invalid PAN or GST")
		case errors.Is(err, otp.ErrNoActiveChallenge):
			return fiber.NewError(http.StatusUnauthorized, "no active OTP, request a new one")
		case errors.Is(err, otp.ErrChallengeExpired):
			return fiber.NewError(http.StatusUnauthorized, "OTP expired, request a new one")
		case errors.Is(err, otp.ErrChallengeMismatch):
			return fiber.NewError(http.StatusUnauthorized, "incorrect OTP")
		default:
			return fiber.NewError(http.StatusInternalServerError, "login failed")
		}
	}

	// First successful login provisions the default company profile.
	company, err = h.identities.EnsureProfile(c.UserContext(), company)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "login failed")
	}

	session, err := h.sessions.IssueSession(company)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "login failed")
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    session.Token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(session.ExpiresIn) * time.Second),
	})

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":      session.Token,
		"expires_in": session.ExpiresIn,
		"pan":        company.PAN,
		"gst":        company.GST,
		"email":      company.Email,
	})
}

// Logout clears the session cookie.
func (h *Handler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		HTTPOnly: true,
		Expires:  time.Now().Add(-time.Hour),
	})
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
