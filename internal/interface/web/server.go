package web

import (
	"context"
	"net/http"
	"time"

	"github.com/TheTrueTranslate/kototsute-sub000/internal/core/application"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Server exposes the custody service over REST.
type Server struct {
	svc  application.Service
	srv  *http.Server
	addr string
}

func NewServer(addr string, svc application.Service) *Server {
	s := &Server{svc: svc, addr: addr}

	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/cases/{caseId}/asset-lock/start", s.startAssetLock).
		Methods(http.MethodPost)
	api.HandleFunc("/cases/{caseId}/asset-lock", s.getAssetLock).
		Methods(http.MethodGet)
	api.HandleFunc("/cases/{caseId}/asset-lock/items/{itemId}/verify", s.verifyLockItem).
		Methods(http.MethodPost)
	api.HandleFunc("/cases/{caseId}/asset-lock/regular-key/verify", s.verifyRegularKeys).
		Methods(http.MethodPost)
	api.HandleFunc("/cases/{caseId}/asset-lock/execute", s.executeAutoTransfer).
		Methods(http.MethodPost)
	api.HandleFunc("/cases/{caseId}/asset-lock/complete", s.completeAssetLock).
		Methods(http.MethodPost)
	api.HandleFunc("/cases/{caseId}/approval/prepare", s.prepareApproval).
		Methods(http.MethodPost)
	api.HandleFunc("/cases/{caseId}/approval/signatures", s.submitSignature).
		Methods(http.MethodPost)
	api.HandleFunc("/cases/{caseId}/signer-list", s.getSignerList).
		Methods(http.MethodGet)

	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           handlers.RecoveryHandler()(handlers.CompressHandler(router)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	log.Infof("rest server listening on %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
