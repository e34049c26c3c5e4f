package http

import (
	"errors"
	"net/http"

	"sigmon/internal/dataset"
	apierrors "sigmon/internal/errors"
	"sigmon/internal/render"
	"sigmon/internal/services"
	"sigmon/internal/session"
	"sigmon/internal/sheets"
)

// translateError maps service and domain errors to API errors. Errors it does
// not recognise pass through to the central error handler unchanged.
func translateError(err error) error {
	var (
		apiErr    *apierrors.APIError
		remoteErr *sheets.RemoteError
		columnErr *dataset.MissingColumnError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, services.ErrNoDataset):
		return apierrors.ErrNoDataset
	case errors.Is(err, services.ErrUploadTooLarge):
		return apierrors.NewWithDetails(http.StatusRequestEntityTooLarge, apierrors.CodePayloadTooLarge,
			apierrors.ErrPayloadTooLarge.Message, err.Error())
	case errors.Is(err, dataset.ErrUnsupportedFormat):
		return apierrors.NewWithDetails(http.StatusUnsupportedMediaType, apierrors.CodeUnsupportedFormat,
			apierrors.ErrUnsupportedFormat.Message, err.Error())
	case errors.Is(err, dataset.ErrEmptyFile):
		return apierrors.InvalidRequestWithError(err)
	case errors.As(err, &columnErr):
		return apierrors.MissingColumnError(columnErr.Column)
	case errors.Is(err, sheets.ErrCredentialUnavailable), errors.Is(err, services.ErrRemoteDisabled):
		return apierrors.ErrCredentialUnavailable
	case errors.Is(err, sheets.ErrInvalidCredential):
		return apierrors.CredentialInvalidError(err)
	case errors.Is(err, sheets.ErrInvalidWorksheet):
		return apierrors.InvalidRequestWithError(err)
	case errors.As(err, &remoteErr):
		return apierrors.RemoteServiceError(remoteErr.Kind, remoteErr)
	case errors.Is(err, session.ErrConfigurationNotFound):
		return apierrors.NewWithDetails(http.StatusNotFound, apierrors.CodeConfigurationNotFound, err.Error(), nil)
	case errors.Is(err, session.ErrInvalidName):
		return apierrors.NewValidationErrors([]apierrors.ValidationError{{Field: "name", Message: err.Error()}})
	case errors.Is(err, services.ErrUnknownMode):
		return apierrors.NotFoundError("chart mode")
	case errors.Is(err, services.ErrNoChart), errors.Is(err, render.ErrEmptyChart):
		return apierrors.NewWithDetails(http.StatusNotFound, apierrors.CodeNotFound, "No chart data for the current selection", err.Error())
	}
	return err
}
