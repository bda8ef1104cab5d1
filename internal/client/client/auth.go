package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/logging"
	"github.com/dmitrijs2005/profilesync/internal/netx"
)

var now = time.Now

// GoTrueClient talks to the GoTrue auth API mounted under /auth/v1.
type GoTrueClient struct {
	baseURL string
	anonKey string
	http    *http.Client
	log     logging.Logger
}

func NewGoTrueClient(projectURL, anonKey string, hc *http.Client, log logging.Logger) *GoTrueClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &GoTrueClient{
		baseURL: strings.TrimRight(projectURL, "/") + "/auth/v1",
		anonKey: anonKey,
		http:    hc,
		log:     log.With("module", "auth"),
	}
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

type verifyRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (c *GoTrueClient) header(bearer string) http.Header {
	if bearer == "" {
		bearer = c.anonKey
	}
	h := http.Header{}
	h.Set("apikey", c.anonKey)
	h.Set("Authorization", "Bearer "+bearer)
	return h
}

// SendOneTimeCode asks the backend to deliver a one-time code to email,
// creating the user on first sign-in.
func (c *GoTrueClient) SendOneTimeCode(ctx context.Context, email string) error {
	err := netx.DoJSON(ctx, c.http, netx.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/otp",
		Header: c.header(""),
		Body:   otpRequest{Email: email, CreateUser: true},
	}, nil)
	if err != nil {
		c.log.Warn(ctx, "send one-time code failed", "error", err)
		return mapError(err)
	}
	return nil
}

// VerifyOneTimeCode exchanges an emailed code for a session.
func (c *GoTrueClient) VerifyOneTimeCode(ctx context.Context, email, code string) (*models.Session, error) {
	var resp tokenResponse
	err := netx.DoJSON(ctx, c.http, netx.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/verify",
		Header: c.header(""),
		Body:   verifyRequest{Type: "email", Email: email, Token: code},
	}, &resp)
	if err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			switch se.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
				return nil, ErrInvalidCode
			}
		}
		return nil, mapError(err)
	}

	return c.session(resp)
}

// Refresh rotates the token pair.
func (c *GoTrueClient) Refresh(ctx context.Context, refreshToken string) (*models.Session, error) {
	var resp tokenResponse
	err := netx.DoJSON(ctx, c.http, netx.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/token?grant_type=refresh_token",
		Header: c.header(""),
		Body:   refreshRequest{RefreshToken: refreshToken},
	}, &resp)
	if err != nil {
		if rejectedGrant(err) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return nil, mapError(err)
	}

	return c.session(resp)
}

// revokedGrantCodes are the error_code values GoTrue uses when a refresh
// token can no longer be exchanged.
var revokedGrantCodes = map[string]bool{
	"refresh_token_not_found":    true,
	"refresh_token_already_used": true,
	"session_not_found":          true,
	"session_expired":            true,
	"user_not_found":             true,
	"user_banned":                true,
}

type grantError struct {
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
}

// rejectedGrant reports whether err is a 400 answer saying the refresh
// token is dead. Older servers send error=invalid_grant, newer ones an
// error_code.
func rejectedGrant(err error) bool {
	var se *netx.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusBadRequest {
		return false
	}
	var ge grantError
	if json.Unmarshal(se.Body, &ge) != nil {
		return false
	}
	return ge.Error == "invalid_grant" || revokedGrantCodes[ge.ErrorCode]
}

// SignOut revokes the session identified by accessToken.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	err := netx.DoJSON(ctx, c.http, netx.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/logout",
		Header: c.header(accessToken),
	}, nil)
	return mapError(err)
}

func (c *GoTrueClient) session(resp tokenResponse) (*models.Session, error) {
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTransport)
	}
	s, err := sessionFromTokens(resp.AccessToken, resp.RefreshToken, resp.ExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return s, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var se *netx.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		case se.StatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		default:
			return fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return fmt.Errorf("%w: %w", ErrTransport, err)
}
