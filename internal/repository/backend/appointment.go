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

type appointmentRepository struct {
	client *Client
}

func NewAppointmentRepository(client *Client) repository.AppointmentRepository {
	return &appointmentRepository{client: client}
}

func (r *appointmentRepository) Create(ctx context.Context, token string, req model.CreateAppointmentRequest) error {
	_, err := r.client.doEnvelope(ctx, call{
		op:     "appointment.insert",
		method: http.MethodPost,
		path:   "/api/appointment/insert",
		token:  token,
		body:   req,
	})
	return err
}

func (r *appointmentRepository) ListByUser(ctx context.Context, token, username string) ([]model.Appointment, error) {
	data, err := r.client.doEnvelope(ctx, call{
		op:     "appointment.list",
		method: http.MethodGet,
		path:   "/api/appointment?" + url.Values{"username": {username}}.Encode(),
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	appointments := []model.Appointment{}
	if hasData(data) {
		if err := json.Unmarshal(data, &appointments); err != nil {
			return nil, apperrors.Unavailable(fmt.Errorf("failed to decode appointments: %w", err))
		}
	}
	return appointments, nil
}

// Delete succeeds only when the backend confirms with a non-empty data payload.
func (r *appointmentRepository) Delete(ctx context.Context, token, id string) (string, error) {
	data, err := r.client.doEnvelope(ctx, call{
		op:     "appointment.delete",
		method: http.MethodDelete,
		path:   "/api/appointment/delete/" + url.PathEscape(id),
		token:  token,
	})
	if err != nil {
		return "", err
	}
	if !hasData(data) {
		return "", apperrors.Rejected("")
	}
	return messageOf(data), nil
}

func (r *appointmentRepository) Update(ctx context.Context, token, id string, req model.UpdateAppointmentRequest) (string, error) {
	data, err := r.client.doEnvelope(ctx, call{
		op:     "appointment.update",
		method: http.MethodPatch,
		path:   "/api/appointment/update/" + url.PathEscape(id),
		token:  token,
		body:   req,
	})
	if err != nil {
		return "", err
	}
	if !hasData(data) {
		return "", apperrors.Rejected("")
	}
	return messageOf(data), nil
}
