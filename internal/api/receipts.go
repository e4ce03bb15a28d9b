package api

import (
	"errors"
	"net/http"

	"github.com/nyashahama/receipt-dispatch-backend/internal/dispatch"
	"github.com/nyashahama/receipt-dispatch-backend/internal/metrics"
)

// ─── POST /send-receipt ───────────────────────────────────────────────────────

// handleSendReceipt delivers a receipt by email or SMS.
//
// Multipart fields: recipient, method ("email" | "sms"), content (JSON
// object with items and total) and the file pdf.
//
// Response 200:
//
//	{ "status": "success" }
//
// Validation failures are 400 with a fixed message. Storage and transport
// failures are 500 with the underlying error text.
func (s *Server) handleSendReceipt(w http.ResponseWriter, r *http.Request) {
	if !s.parseMultipart(w, r) {
		return
	}

	req := dispatch.Request{
		Recipient: r.PostFormValue("recipient"),
		Method:    r.PostFormValue("method"),
		Content:   r.PostFormValue("content"),
	}
	if file, _, err := r.FormFile("pdf"); err == nil {
		defer file.Close()
		req.Document = file
	}

	err := s.dispatcher.Dispatch(r.Context(), req)
	if err == nil {
		metrics.ReceiptsDispatched.WithLabelValues(methodLabel(req.Method), "success").Inc()
		s.logger.Info("receipt sent", "method", req.Method, logField(r))
		respond(w, http.StatusOK, map[string]string{"status": "success"})
		return
	}

	var derr *dispatch.Error
	if !errors.As(err, &derr) {
		derr = &dispatch.Error{Message: err.Error(), Err: err}
	}
	metrics.ReceiptsDispatched.WithLabelValues(methodLabel(req.Method), derr.Kind.String()).Inc()

	if derr.Kind == dispatch.KindValidation {
		s.logger.Debug("receipt rejected", "method", req.Method, "reason", derr.Message, logField(r))
		respondErr(w, http.StatusBadRequest, derr.Message)
		return
	}

	s.logger.Error("receipt dispatch failed",
		"method", req.Method,
		"kind", derr.Kind.String(),
		"error", err,
		"cause", derr.Err,
		logField(r),
	)
	respondErr(w, http.StatusInternalServerError, derr.Message)
}

func methodLabel(method string) string {
	switch method {
	case dispatch.MethodEmail, dispatch.MethodSMS:
		return method
	default:
		return "invalid"
	}
}
