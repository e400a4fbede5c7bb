package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/refenti-content/pkg/sitecontent"
)

// Envelope is the body of every JSON response. Exactly one of Data and
// Error is set.
type Envelope struct {
	Data  interface{} `json:"data"`
	Error *ErrorBody  `json:"error"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// DeleteResponse is the rendered form of a lifecycle delete
type DeleteResponse struct {
	*sitecontent.DeleteReport
	Warnings []string `json:"warnings"`
}

func newDeleteResponse(report *sitecontent.DeleteReport) DeleteResponse {
	return DeleteResponse{DeleteReport: report, Warnings: report.WarningMessages()}
}

func renderData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Data: data})
}

func renderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	body := &ErrorBody{Message: err.Error()}

	var verr *sitecontent.ValidationError
	if errors.As(err, &verr) {
		body.Message = verr.Message
		if verr.Field != "" {
			body.Details = map[string]string{"field": verr.Field}
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		body = &ErrorBody{Message: "internal server error"}
	}

	render.Status(r, status)
	render.JSON(w, r, Envelope{Error: body})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sitecontent.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, sitecontent.ErrNotFound), errors.Is(err, sitecontent.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, sitecontent.ErrAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(field, message string) error {
	return &sitecontent.ValidationError{Field: field, Message: message}
}
