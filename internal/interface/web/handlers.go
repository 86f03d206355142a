package web

import (
	"encoding/json"
	"net/http"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/application"
	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/domain"
	"github.com/TheTrueTranslate/kototsute-sub000/pkg/errors"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const actorHeader = "X-Actor-Id"

type errorBody struct {
	Code     uint16            `json:"code"`
	Name     string            `json:"name"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) startAssetLock(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	var method domain.LockMethod
	switch body.Method {
	case "A":
		method = domain.LockMethodManual
	case "B":
		method = domain.LockMethodDelegated
	default:
		writeBadRequest(w, "method must be A or B")
		return
	}

	info, err := s.svc.StartAssetLock(r.Context(), actor, mux.Vars(r)["caseId"], method)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) getAssetLock(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	info, err := s.svc.GetAssetLock(r.Context(), actor, mux.Vars(r)["caseId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) verifyLockItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		TxHash string `json:"txHash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if body.TxHash == "" {
		writeBadRequest(w, "missing txHash")
		return
	}

	vars := mux.Vars(r)
	info, err := s.svc.VerifyLockItem(
		r.Context(), actor, vars["caseId"], vars["itemId"], body.TxHash,
	)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) verifyRegularKeys(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	info, err := s.svc.VerifyRegularKeys(r.Context(), actor, mux.Vars(r)["caseId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) executeAutoTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	info, err := s.svc.ExecuteAutoTransfer(r.Context(), actor, mux.Vars(r)["caseId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) completeAssetLock(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	info, err := s.svc.CompleteAssetLock(r.Context(), actor, mux.Vars(r)["caseId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) prepareApproval(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TxJSON string `json:"txJson"`
		Memo   string `json:"memo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if body.TxJSON == "" {
		writeBadRequest(w, "missing txJson")
		return
	}

	info, err := s.svc.PrepareApproval(r.Context(), mux.Vars(r)["caseId"], body.TxJSON, body.Memo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) submitSignature(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var body struct {
		SignedBlob string `json:"signedBlob"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if body.SignedBlob == "" {
		writeBadRequest(w, "missing signedBlob")
		return
	}

	info, err := s.svc.SubmitSignature(r.Context(), actor, mux.Vars(r)["caseId"], body.SignedBlob)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) getSignerList(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	info, err := s.svc.GetSignerList(r.Context(), actor, mux.Vars(r)["caseId"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func actorFrom(w http.ResponseWriter, r *http.Request) (application.Identity, bool) {
	actorID := r.Header.Get(actorHeader)
	if actorID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: errorBody{
			Name:    "UNAUTHORIZED",
			Message: "missing " + actorHeader + " header",
		}})
		return application.Identity{}, false
	}
	return application.Identity{ID: actorID}, true
}

func writeError(w http.ResponseWriter, err error) {
	if typed, ok := err.(errors.Error); ok {
		typed.Log().Warn("request failed")
		writeJSON(w, typed.HTTPStatus(), errorResponse{Error: errorBody{
			Code:     typed.Code(),
			Name:     typed.CodeName(),
			Message:  typed.Error(),
			Metadata: typed.Metadata(),
		}})
		return
	}
	log.WithError(err).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorBody{
		Name:    "INTERNAL_ERROR",
		Message: "internal error",
	}})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorBody{
		Name:    "VALIDATION_ERROR",
		Message: msg,
	}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
