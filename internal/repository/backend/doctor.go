package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
)

type doctorRepository struct {
	client *Client
}

func NewDoctorRepository(client *Client) repository.DoctorRepository {
	return &doctorRepository{client: client}
}

func (r *doctorRepository) ListAvailable(ctx context.Context, date string) ([]model.Doctor, error) {
	data, err := r.client.doEnvelope(ctx, call{
		op:     "doctor.available",
		method: http.MethodGet,
		path:   "/api/doctor/available?" + url.Values{"date": {date}}.Encode(),
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Doctors []model.Doctor `json:"doctors"`
	}
	if hasData(data) {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, apperrors.Unavailable(fmt.Errorf("failed to decode doctors: %w", err))
		}
	}
	if out.Doctors == nil {
		out.Doctors = []model.Doctor{}
	}
	return out.Doctors, nil
}

func (r *doctorRepository) GetWithSlots(ctx context.Context, id, date string) (*model.Doctor, error) {
	data, err := r.client.doEnvelope(ctx, call{
		op:     "doctor.slots",
		method: http.MethodGet,
		path:   "/api/doctor/available-slots?" + url.Values{"id": {id}, "date": {date}}.Encode(),
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Doctor *model.Doctor `json:"doctor"`
	}
	if hasData(data) {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, apperrors.Unavailable(fmt.Errorf("failed to decode doctor: %w", err))
		}
	}
	if out.Doctor == nil {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return out.Doctor, nil
}
