package http

import (
	"context"
	"net/http"

	"sigmon/pkg/contracts/domain"
)

func withMode(r *http.Request, mode domain.Mode) context.Context {
	return context.WithValue(r.Context(), modeKey{}, mode)
}

func modeFromContext(r *http.Request) domain.Mode {
	mode, _ := r.Context().Value(modeKey{}).(domain.Mode)
	return mode
}
