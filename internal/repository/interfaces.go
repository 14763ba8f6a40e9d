package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/medbook-web/internal/model"
)

// All repository interfaces in one file
type (
	// AuthRepository talks to the backend's auth endpoints
	AuthRepository interface {
		Login(ctx context.Context, req model.LoginRequest) (token string, message string, err error)
		Signup(ctx context.Context, req model.SignupRequest) (message string, err error)
		VerifyUser(ctx context.Context, token string) (*model.VerifyResult, error)
	}

	DoctorRepository interface {
		ListAvailable(ctx context.Context, date string) ([]model.Doctor, error)
		GetWithSlots(ctx context.Context, id, date string) (*model.Doctor, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, token string, req model.CreateAppointmentRequest) error
		ListByUser(ctx context.Context, token, username string) ([]model.Appointment, error)
		Delete(ctx context.Context, token, id string) (message string, err error)
		Update(ctx context.Context, token, id string, req model.UpdateAppointmentRequest) (message string, err error)
	}

	// Store keeps JSON encodable values per key with a TTL.
	Store[T any] interface {
		Get(ctx context.Context, key string) (T, bool, error)
		Set(ctx context.Context, key string, value T, ttl time.Duration) error
		Delete(ctx context.Context, key string) error
		Ping(ctx context.Context) error
	}
)
