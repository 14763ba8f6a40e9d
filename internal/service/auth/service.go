package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/validator"
)

const invalidCredentials = "Invalid credentials. Please try again."

// ErrLoginAfterSignup means the account was created but the follow-up login failed.
var ErrLoginAfterSignup = errors.New("registered but automatic login failed")

type Service struct {
	repo      repository.AuthRepository
	validator *validator.Validator
}

func NewService(repo repository.AuthRepository, v *validator.Validator) *Service {
	return &Service{repo: repo, validator: v}
}

// Login returns the token for valid credentials. Empty fields fail validation
// before any backend call.
func (s *Service) Login(ctx context.Context, req model.LoginRequest) (string, error) {
	if fields := s.validator.Struct(req.Trimmed()); fields != nil {
		return "", apperrors.Validation(fields)
	}

	token, _, err := s.repo.Login(ctx, req)
	if err != nil {
		log.Info().Err(err).Str("username", req.Username).Msg("login failed")
		return "", apperrors.Unauthorized(apperrors.MessageOf(rejectedOnly(err), invalidCredentials), err)
	}
	if token == "" {
		return "", apperrors.Unauthorized(invalidCredentials, nil)
	}
	return token, nil
}

// Register creates the account and logs in with the same credentials.
func (s *Service) Register(ctx context.Context, req model.SignupRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if fields := s.validator.Struct(req); fields != nil {
		return "", apperrors.Validation(fields)
	}

	if _, err := s.repo.Signup(ctx, req); err != nil {
		log.Info().Err(err).Str("username", req.Username).Msg("signup failed")
		return "", apperrors.BadRequest(apperrors.MessageOf(rejectedOnly(err), "Registration failed. Please try again."), err)
	}

	token, err := s.Login(ctx, model.LoginRequest{Username: req.Username, Password: req.Password})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginAfterSignup, err)
	}
	return token, nil
}

// Verify asks the backend whether token is valid. A missing token, any call
// failure and a valid answer without a username all count as invalid.
func (s *Service) Verify(ctx context.Context, token string) model.VerifyResult {
	if token == "" {
		return model.InvalidToken()
	}

	res, err := s.repo.VerifyUser(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("token verification failed")
		return model.InvalidToken()
	}
	if res == nil || !res.Valid || res.Decoded.Username == "" {
		return model.InvalidToken()
	}
	return *res
}

// rejectedOnly hides messages of errors that did not come from the backend's
// own refusal, so the user sees the fallback instead of a transport message.
func rejectedOnly(err error) error {
	if apperrors.HasCode(err, apperrors.ErrRejected) {
		return err
	}
	return nil
}
