package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clearwater-ims/homestead/internal/cx"
	stderrors "github.com/clearwater-ims/homestead/internal/errors"
	"github.com/clearwater-ims/homestead/internal/orchestrator"
	"github.com/clearwater-ims/homestead/pkg/responders"
)

// writeOutcome renders an orchestrator Outcome as the HTTP response.
func writeOutcome(w http.ResponseWriter, out orchestrator.Outcome) {
	if out.ErrCode != "" {
		stderrors.WriteSimpleError(w, out.ErrCode, out.ErrMsg)
		return
	}
	responders.JSON(w, out.Status, out.Body)
}

// getImpiAV handles GET /impi/<impi>/av (C4). The `autn` query parameter, if
// present, signals an AKA challenge is in flight, so the MAR is built for
// the AKA scheme rather than the SIP Digest default.
func (s *Server) getImpiAV(w http.ResponseWriter, r *http.Request) {
	impi := chi.URLParam(r, "impi")
	impu := r.URL.Query().Get("impu")

	scheme := ""
	if r.URL.Query().Get("autn") != "" {
		scheme = "Digest-AKAv1-MD5"
	}

	writeOutcome(w, s.impiAV.Handle(r.Context(), impi, impu, scheme))
}

// getRegistrationStatus handles GET /impi/<impi>/registration-status (C5).
func (s *Server) getRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	impi := chi.URLParam(r, "impi")
	q := r.URL.Query()

	writeOutcome(w, s.regStatus.Handle(r.Context(), impi, q.Get("impu"), q.Get("visited-network"), parseAuthType(q.Get("auth-type"))))
}

// getLocationInfo handles GET /impu/<impu>/location (C6).
func (s *Server) getLocationInfo(w http.ResponseWriter, r *http.Request) {
	impu := chi.URLParam(r, "impu")
	q := r.URL.Query()

	originating, _ := strconv.ParseBool(q.Get("originating"))
	writeOutcome(w, s.locationInfo.Handle(r.Context(), impu, originating, parseAuthType(q.Get("auth-type"))))
}

// parseAuthType defaults to AuthTypeRegistration when the query param is
// absent or unparseable.
func parseAuthType(raw string) cx.UserAuthorizationType {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return cx.AuthTypeRegistration
	}
	return cx.UserAuthorizationType(n)
}

// getRegData handles GET /impu/<impu>/reg-data (C7).
func (s *Server) getRegData(w http.ResponseWriter, r *http.Request) {
	impu := chi.URLParam(r, "impu")
	impi := r.URL.Query().Get("private_id")

	writeOutcome(w, s.regData.Handle(r.Context(), http.MethodGet, "", impi, impu, nil))
}

// regDataRequestBody is the PUT/DELETE body of spec.md §6.
type regDataRequestBody struct {
	ReqType string `json:"reqtype"`
}

// putRegData handles PUT /impu/<impu>/reg-data (C7).
func (s *Server) putRegData(w http.ResponseWriter, r *http.Request) {
	impu := chi.URLParam(r, "impu")
	impi := r.URL.Query().Get("private_id")

	var body regDataRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		stderrors.WriteSimpleError(w, stderrors.ErrCodeInvalid, "malformed request body")
		return
	}

	writeOutcome(w, s.regData.Handle(r.Context(), http.MethodPut, body.ReqType, impi, impu, nil))
}

// deleteRegData handles DELETE /impu/<impu>/reg-data (C7).
func (s *Server) deleteRegData(w http.ResponseWriter, r *http.Request) {
	impu := chi.URLParam(r, "impu")
	impi := r.URL.Query().Get("private_id")

	var body regDataRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		stderrors.WriteSimpleError(w, stderrors.ErrCodeInvalid, "malformed request body")
		return
	}

	writeOutcome(w, s.regData.Handle(r.Context(), http.MethodDelete, body.ReqType, impi, impu, nil))
}
