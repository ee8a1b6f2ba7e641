package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/cezi/internal/account"
	"github.com/louisbranch/cezi/internal/auth"
	apperrors "github.com/louisbranch/cezi/internal/platform/errors"
	"github.com/louisbranch/cezi/internal/reading"
	"github.com/louisbranch/cezi/internal/storage"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", s.traced("register", s.handleRegister))
	mux.HandleFunc("/api/signin", s.traced("signin", s.handleSignIn))
	mux.HandleFunc("/api/signout", s.traced("signout", s.handleSignOut))
	mux.HandleFunc("/api/session", s.traced("session", s.handleSession))
	mux.HandleFunc("/api/session/restore", s.traced("session.restore", s.handleRestore))
	mux.HandleFunc("/api/readings", s.traced("readings", s.handleReadings))
	mux.HandleFunc("/api/profile", s.traced("profile", s.handleProfile))
	mux.HandleFunc("/api/profile/avatar", s.traced("profile.avatar", s.handleAvatar))
	mux.HandleFunc(blobsURLPrefix+"/", s.handleBlobs)
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// traced wraps a handler in a server span.
func (s *Server) traced(name string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.Start(r.Context(), name)
		defer span.End()
		handler(w, r.WithContext(ctx))
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type restoreRequest struct {
	Token string `json:"token"`
}

type submitRequest struct {
	Character string `json:"character"`
}

type displayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

type readingResponse struct {
	ID             string    `json:"id"`
	Character      string    `json:"character"`
	Interpretation string    `json:"interpretation"`
	CreatedAt      time.Time `json:"created_at"`
}

type readingListResponse struct {
	Readings []readingResponse `json:"readings"`
}

type profileResponse struct {
	OwnerID     string `json:"owner_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := s.tracker.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, identityResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Token: s.tracker.Token(),
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := s.tracker.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Token: s.tracker.Token(),
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.tracker.SignOut(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	identity, ok := s.tracker.Current()
	if !ok {
		writeDomainError(w, auth.ErrNotSignedIn)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{ID: identity.ID, Email: identity.Email})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req restoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := s.tracker.RestoreSession(r.Context(), req.Token)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Token: s.tracker.Token(),
	})
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listReadings(w, r)
	case http.MethodPost:
		s.submitReading(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) submitReading(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := s.history.Submit(r.Context(), req.Character)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if record.ID == "" {
		// Blank input records nothing.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusCreated, toReadingResponse(record))
}

func (s *Server) listReadings(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")

	var records []reading.Reading
	if strings.TrimSpace(filter) == "" {
		if _, ok := s.tracker.Current(); !ok {
			writeDomainError(w, auth.ErrNotSignedIn)
			return
		}
		records = s.history.History()
	} else {
		var err error
		records, err = s.history.Search(r.Context(), filter)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	response := readingListResponse{Readings: make([]readingResponse, 0, len(records))}
	for _, record := range records {
		response.Readings = append(response.Readings, toReadingResponse(record))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := s.tracker.Current(); !ok {
			writeDomainError(w, auth.ErrNotSignedIn)
			return
		}
		stored, ok := s.profiles.Profile()
		if !ok {
			writeDomainError(w, storage.ErrNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(stored))
	case http.MethodPut:
		var req displayNameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		updated, err := s.profiles.UpsertDisplayName(r.Context(), req.DisplayName)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toProfileResponse(updated))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	extension := r.URL.Query().Get("ext")
	body := http.MaxBytesReader(w, r.Body, account.MaxAvatarBytes+1)
	content, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDomainError(w, account.ErrAvatarTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read avatar content")
		return
	}

	updated, err := s.profiles.UpsertAvatar(r.Context(), content, extension)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(updated))
}

func (s *Server) handleBlobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	relative := strings.TrimPrefix(r.URL.Path, blobsURLPrefix+"/")
	bucket, key, ok := strings.Cut(relative, "/")
	if !ok || bucket == "" || key == "" {
		writeError(w, http.StatusNotFound, "blob not found")
		return
	}

	content, err := s.blobs.Open(bucket, key)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "blob not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "blob read failed")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(content))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

func toReadingResponse(record reading.Reading) readingResponse {
	return readingResponse{
		ID:             record.ID,
		Character:      record.Character,
		Interpretation: record.Interpretation,
		CreatedAt:      record.CreatedAt,
	}
}

func toProfileResponse(stored account.Profile) profileResponse {
	return profileResponse{
		OwnerID:     stored.OwnerID,
		DisplayName: stored.DisplayName,
		AvatarURL:   stored.AvatarURL,
	}
}

// writeDomainError maps application error codes onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	message := "internal error"
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeJSON(w, code.HTTPStatus(), errorResponse{
		Error:            string(code),
		ErrorDescription: message,
	})
}

func writeError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, errorResponse{
		Error:            http.StatusText(status),
		ErrorDescription: description,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}
