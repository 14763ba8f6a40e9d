package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
)

type authRepository struct {
	client *Client
}

func NewAuthRepository(client *Client) repository.AuthRepository {
	return &authRepository{client: client}
}

func (r *authRepository) Login(ctx context.Context, req model.LoginRequest) (string, string, error) {
	data, err := r.client.doEnvelope(ctx, call{
		op:     "auth.login",
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   req,
	})
	if err != nil {
		return "", "", err
	}

	var out struct {
		Token   string `json:"token"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", "", apperrors.Unavailable(fmt.Errorf("failed to decode login data: %w", err))
	}
	if out.Token == "" {
		return "", "", apperrors.Rejected(out.Message)
	}
	return out.Token, out.Message, nil
}

func (r *authRepository) Signup(ctx context.Context, req model.SignupRequest) (string, error) {
	data, err := r.client.doEnvelope(ctx, call{
		op:     "auth.signup",
		method: http.MethodPost,
		path:   "/api/auth/signup",
		body:   req,
	})
	if err != nil {
		return "", err
	}
	return messageOf(data), nil
}

// VerifyUser answers with the bare verification object rather than an envelope.
func (r *authRepository) VerifyUser(ctx context.Context, token string) (*model.VerifyResult, error) {
	raw, err := r.client.do(ctx, call{
		op:     "auth.verify",
		method: http.MethodPost,
		path:   "/api/auth/verifyuser",
		body:   map[string]string{"token": token},
	})
	if err != nil {
		return nil, err
	}

	var result model.VerifyResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("failed to decode verify response: %w", err))
	}
	return &result, nil
}
