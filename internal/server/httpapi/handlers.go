package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/jobhub/internal/common"
	"github.com/dmitrijs2005/jobhub/internal/server/storage"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

const bytesPerMB = 1024 * 1024

type uploadResult struct {
	Name  string         `json:"name"`
	Asset *storage.Asset `json:"asset,omitempty"`
	Error string         `json:"error,omitempty"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	res, err := s.credentials.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request")
		return
	}

	res, err := s.credentials.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		UserID:    claims.UserID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedTime(),
		ExpiresAt: claims.ExpiryTime(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())

	raw := mux.Vars(r)["category"]
	category, err := storage.ParseCategory(raw)
	if err != nil {
		// unknown categories are reported per file by the gateway
		category = storage.Category(raw)
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files")
		return
	}

	out := make([]uploadResult, len(headers))
	reqs := make([]storage.UploadRequest, 0, len(headers))
	slots := make([]int, 0, len(headers))
	for i, fh := range headers {
		out[i].Name = fh.Filename
		if policy, ok := storage.PolicyFor(category); ok && fh.Size > int64(policy.MaxSizeMB)*bytesPerMB {
			out[i].Error = uploadErrorMessage(&storage.ValidationError{
				Category: category, File: fh.Filename,
				Reason: fmt.Sprintf("size %d bytes exceeds the limit", fh.Size),
			})
			continue
		}

		file, err := readPart(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file")
			return
		}
		reqs = append(reqs, storage.UploadRequest{Category: category, OwnerID: claims.UserID, File: file})
		slots = append(slots, i)
	}

	for j, res := range s.assets.UploadFiles(r.Context(), reqs) {
		i := slots[j]
		out[i].Asset = res.Asset
		if res.Err != nil {
			out[i].Error = uploadErrorMessage(res.Err)
		}
	}

	status := http.StatusCreated
	for _, o := range out {
		if o.Error != "" {
			status = http.StatusMultiStatus
			break
		}
	}
	writeJSON(w, status, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r.Context())
	key := r.URL.Query().Get("key")

	if !storage.KeyOwnedBy(key, claims.UserID) {
		writeError(w, http.StatusForbidden, "key not owned by caller")
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Deleted: s.assets.Delete(r.Context(), key)})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrUserExists):
		writeError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, "email and password are required, password at most 72 bytes")
	default:
		s.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func uploadErrorMessage(err error) string {
	var ve *storage.ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return "storage unavailable"
}

func readPart(fh *multipart.FileHeader) (storage.File, error) {
	f, err := fh.Open()
	if err != nil {
		return storage.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return storage.File{}, err
	}
	return storage.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
