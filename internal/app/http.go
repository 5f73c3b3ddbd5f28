package app

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sitewatch/api/internal/authpw"
	"sitewatch/api/internal/contract"
	"sitewatch/api/internal/export"
	"sitewatch/api/internal/pow"
	"sitewatch/api/internal/search"
	"sitewatch/api/internal/session"
	"sitewatch/api/internal/store"
)

const (
	maxUploadBytes  = 32 << 20
	maxGalleryFiles = 30
)

// Server is the HTTP surface. One handler routes everything under /api; the
// response envelope is {"success": ...} throughout, matching what the
// dashboard clients parse.
type Server struct {
	svc        *Service
	corsOrigin string
}

func NewServer(svc *Service) *Server {
	return &Server{svc: svc, corsOrigin: svc.cfg.CORSOrigin}
}

func (s *Server) Handler() http.Handler {
	return withMiddleware(http.HandlerFunc(s.handle))
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) == 0 || parts[0] != "api" {
		writeError(w, http.StatusNotFound, "not_found", "unknown route", nil)
		return
	}
	rest := parts[1:]

	switch {
	case len(rest) == 1 && rest[0] == "health" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
	case len(rest) == 1 && rest[0] == "storage-status" && r.Method == http.MethodGet:
		s.handleStorageStatus(w, r)

	case len(rest) == 2 && rest[0] == "auth":
		s.handleAuth(w, r, rest[1])
	case len(rest) == 3 && rest[0] == "auth" && rest[1] == "accounts" && r.Method == http.MethodDelete:
		s.handleDeleteAccount(w, r, rest[2])

	case len(rest) == 1 && rest[0] == "get-projects" && r.Method == http.MethodGet:
		s.handleGetProjects(w, r)
	case len(rest) == 1 && rest[0] == "save-project" && r.Method == http.MethodPost:
		s.handleSaveProject(w, r)
	case len(rest) == 2 && rest[0] == "update-project" && r.Method == http.MethodPut:
		s.handleUpdateProject(w, r, rest[1])
	case len(rest) == 2 && rest[0] == "delete-project" && r.Method == http.MethodDelete:
		s.handleDeleteProject(w, r, rest[1])

	case len(rest) == 2 && rest[0] == "pow":
		s.handlePow(w, r, rest[1])

	case len(rest) == 1 && rest[0] == "engineers":
		s.handleEngineers(w, r)

	case len(rest) == 1 && rest[0] == "client-storage":
		s.handleClientStorage(w, r)
	case len(rest) == 2 && rest[0] == "client-storage" && rest[1] == "item" && r.Method == http.MethodPut:
		s.handleClientStorageSet(w, r)
	case len(rest) >= 3 && rest[0] == "client-storage" && rest[1] == "item" && r.Method == http.MethodDelete:
		s.handleClientStorageDelete(w, r, strings.Join(rest[2:], "/"))

	case len(rest) == 1 && rest[0] == "upload-document" && r.Method == http.MethodPost:
		s.handleUploadDocument(w, r)
	case len(rest) == 2 && rest[0] == "documents" && rest[1] == "compiled" && r.Method == http.MethodPut:
		s.handleSetCompiled(w, r)
	case len(rest) == 2 && rest[0] == "documents" && r.Method == http.MethodGet:
		s.handleDocuments(w, r, rest[1])
	case len(rest) == 1 && rest[0] == "documents" && r.Method == http.MethodDelete:
		s.handleDeleteDocument(w, r)
	case len(rest) == 1 && rest[0] == "documents-summary" && r.Method == http.MethodGet:
		s.handleDocumentsSummary(w, r)

	case len(rest) == 1 && rest[0] == "upload-gallery" && r.Method == http.MethodPost:
		s.handleUploadGallery(w, r)
	case len(rest) == 2 && rest[0] == "gallery":
		s.handleGallery(w, r, rest[1])

	case len(rest) == 1 && rest[0] == "search" && r.Method == http.MethodGet:
		s.handleSearch(w, r)
	case len(rest) == 2 && rest[0] == "history" && r.Method == http.MethodGet:
		s.handleHistory(w, r, rest[1])
	case len(rest) == 2 && rest[0] == "export" && r.Method == http.MethodGet:
		s.handleExport(w, r, rest[1])

	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown route", nil)
	}
}

// ---- auth ----

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request, action string) {
	switch {
	case action == "signup" && r.Method == http.MethodPost:
		s.handleSignUp(w, r)
	case action == "signin" && r.Method == http.MethodPost:
		s.handleSignIn(w, r)
	case action == "logout" && r.Method == http.MethodPost:
		s.handleLogout(w, r)
	case action == "me" && r.Method == http.MethodGet:
		s.handleMe(w, r)
	case action == "accounts" && r.Method == http.MethodGet:
		s.handleAccounts(w, r)
	case action == "approve" && r.Method == http.MethodPost:
		s.handleSetAccountStatus(w, r, authpw.StatusApproved)
	case action == "block" && r.Method == http.MethodPost:
		s.handleSetAccountStatus(w, r, authpw.StatusBlocked)
	case action == "pre-approve" && r.Method == http.MethodPost:
		s.handlePreApprove(w, r)
	case action == "reset-password" && r.Method == http.MethodPost:
		s.handleResetPassword(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown route", nil)
	}
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Section  string `json:"section"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	result, err := s.svc.SignUp(r.Context(), authpw.SignUpRequest{
		Name:     body.Name,
		Email:    body.Email,
		Section:  body.Section,
		Password: body.Password,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	payload := map[string]any{
		"success":          true,
		"account":          result.Account,
		"requiresApproval": result.Token == "",
	}
	if result.Token != "" {
		payload["token"] = result.Token
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	result, err := s.svc.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"account": result.Account,
		"token":   result.Token,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.SignOut(r.Context(), bearerToken(r)); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireAdmin(r); err != nil {
		s.fail(w, err)
		return
	}
	accounts, err := s.svc.Accounts(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "accounts": accounts, "total": len(accounts)})
}

func (s *Server) handleSetAccountStatus(w http.ResponseWriter, r *http.Request, status string) {
	if _, err := s.requireAdmin(r); err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	acct, err := s.svc.SetAccountStatus(r.Context(), body.Email, status)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "account": acct})
}

func (s *Server) handlePreApprove(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireAdmin(r); err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Section string `json:"section"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	acct, err := s.svc.PreApprove(r.Context(), body.Name, body.Email, body.Section)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "account": acct})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if _, err := s.requireAdmin(r); err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.svc.ResetPassword(r.Context(), body.Email, body.Password); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, email string) {
	if _, err := s.requireAdmin(r); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.svc.DeleteAccount(r.Context(), email); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ---- projects ----

func (s *Server) handleGetProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.svc.ProjectRows()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "projects": projects})
}

func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var patch ProjectPatch
	if err := decodeBody(r, &patch); err != nil {
		s.fail(w, err)
		return
	}
	project, err := s.svc.SaveProject(r.Context(), user, patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "project": project})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request, id string) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var patch ProjectPatch
	if err := decodeBody(r, &patch); err != nil {
		s.fail(w, err)
		return
	}
	project, err := s.svc.UpdateProject(r.Context(), user, id, patch)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": project})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request, id string) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := s.svc.DeleteProject(r.Context(), user, id); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "contractId": contract.NormalizeID(id)})
}

// ---- program of works ----

func (s *Server) handlePow(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		record := s.svc.Pow(id)
		writePowEnvelope(w, id, record)
	case http.MethodPut:
		user, err := s.requireSession(r)
		if err != nil {
			s.fail(w, err)
			return
		}
		var body struct {
			ProgramWorks    json.RawMessage `json:"programWorks"`
			VariationOrders json.RawMessage `json:"variationOrders"`
		}
		if err := decodeBody(r, &body); err != nil {
			s.fail(w, err)
			return
		}
		record := pow.Record{
			ProgramWorks:    pow.DecodeItems(body.ProgramWorks),
			VariationOrders: pow.DecodeVariations(body.VariationOrders),
		}
		saved, err := s.svc.SetPow(r.Context(), user, id, record)
		if err != nil {
			s.fail(w, err)
			return
		}
		writePowEnvelope(w, id, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	}
}

func writePowEnvelope(w http.ResponseWriter, id string, record pow.Record) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"contractId":      contract.NormalizeID(id),
		"programWorks":    record.ProgramWorks,
		"variationOrders": record.VariationOrders,
		"updatedAt":       record.UpdatedAt,
	})
}

// ---- engineers directory ----

func (s *Server) handleEngineers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list := s.svc.Engineers()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "engineers": list, "total": len(list)})
	case http.MethodPost:
		user, err := s.requireSession(r)
		if err != nil {
			s.fail(w, err)
			return
		}
		var entry store.Engineer
		if err := decodeBody(r, &entry); err != nil {
			s.fail(w, err)
			return
		}
		list, err := s.svc.UpsertEngineer(user, entry)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "engineers": list, "total": len(list)})
	case http.MethodDelete:
		user, err := s.requireSession(r)
		if err != nil {
			s.fail(w, err)
			return
		}
		list, err := s.svc.DeleteEngineer(user, r.URL.Query().Get("name"), r.URL.Query().Get("role"))
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "engineers": list, "total": len(list)})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	}
}

// ---- client-storage namespace ----

func (s *Server) handleClientStorage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		data, err := s.svc.ClientStorageAll(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	case http.MethodDelete:
		if err := s.svc.ClientStorageClear(r.Context()); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	}
}

func (s *Server) handleClientStorageSet(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.svc.ClientStorageSet(r.Context(), body.Key, body.Value); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleClientStorageDelete(w http.ResponseWriter, r *http.Request, key string) {
	if err := s.svc.ClientStorageDelete(r.Context(), key); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ---- documents ----

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.fail(w, domainError(http.StatusBadRequest, "bad_request", "invalid multipart form", nil))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, domainError(http.StatusBadRequest, "missing_file", "file is required", nil))
		return
	}
	defer file.Close()
	doc, err := s.svc.UploadDocument(
		r.Context(), user,
		r.FormValue("contractId"), r.FormValue("section"), r.FormValue("docName"),
		header.Filename, header.Header.Get("Content-Type"), file, header.Size,
	)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "document": doc})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, id string) {
	docs, err := s.svc.Documents(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"contractId": contract.NormalizeID(id),
		"documents":  docs,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	q := r.URL.Query()
	if err := s.svc.DeleteDocument(r.Context(), user, q.Get("contractId"), q.Get("section"), q.Get("docName")); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSetCompiled(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	var body struct {
		ContractID string `json:"contractId"`
		Section    string `json:"section"`
		DocName    string `json:"docName"`
		Compiled   bool   `json:"compiled"`
	}
	if err := decodeBody(r, &body); err != nil {
		s.fail(w, err)
		return
	}
	mark, err := s.svc.SetCompiled(r.Context(), user, body.ContractID, body.Section, body.DocName, body.Compiled)
	if err != nil {
		s.fail(w, err)
		return
	}
	payload := map[string]any{"success": true, "compiled": body.Compiled}
	if mark != nil {
		payload["mark"] = mark
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleDocumentsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Summary(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"totals":      summary.Totals,
		"uploaded":    summary.Uploaded,
		"totalAll":    summary.TotalAll,
		"uploadedAll": summary.UploadedAll,
	})
}

// ---- gallery ----

func (s *Server) handleUploadGallery(w http.ResponseWriter, r *http.Request) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.fail(w, domainError(http.StatusBadRequest, "bad_request", "invalid multipart form", nil))
		return
	}
	contractID := r.FormValue("contractId")
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.fail(w, domainError(http.StatusBadRequest, "missing_files", "at least one photo is required", nil))
		return
	}
	if len(files) > maxGalleryFiles {
		s.fail(w, domainError(http.StatusBadRequest, "too_many_files", fmt.Sprintf("at most %d photos per upload", maxGalleryFiles), nil))
		return
	}
	photos := make([]any, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			s.fail(w, domainError(http.StatusBadRequest, "bad_request", "unreadable photo in form", nil))
			return
		}
		photo, err := s.svc.UploadPhoto(r.Context(), user, contractID, header.Filename, header.Header.Get("Content-Type"), file, header.Size)
		file.Close()
		if err != nil {
			s.fail(w, err)
			return
		}
		photos = append(photos, photo)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "photos": photos})
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		photos, err := s.svc.Photos(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"contractId": contract.NormalizeID(id),
			"photos":     photos,
		})
	case http.MethodDelete:
		user, err := s.requireSession(r)
		if err != nil {
			s.fail(w, err)
			return
		}
		if err := s.svc.DeleteGallery(r.Context(), user, id); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	}
}

// ---- search, history, export, status ----

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	resp := s.svc.Search(search.Query{
		Text:           q.Get("q"),
		FilterCategory: q.Get("category"),
		FilterStatus:   q.Get("status"),
		Limit:          limit,
		Offset:         offset,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"results": resp.Results,
		"total":   resp.Total,
		"query":   resp.Query,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, id string) {
	if hash := r.URL.Query().Get("hash"); hash != "" {
		snapshot, err := s.svc.HistorySnapshot(id, hash)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"contractId": contract.NormalizeID(id),
			"snapshot":   snapshot,
		})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	commits, err := s.svc.History(id, limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"contractId": contract.NormalizeID(id),
		"commits":    commits,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	user, err := s.requireSession(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	result, err := s.svc.Export(r.Context(), user, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *Server) handleStorageStatus(w http.ResponseWriter, r *http.Request) {
	status := s.svc.StorageStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"wasabiConfigured": status.WasabiConfigured,
		"bucket":           status.Bucket,
		"region":           status.Region,
		"publicUrl":        status.PublicURL,
	})
}

// ---- session helpers ----

func (s *Server) requireSession(r *http.Request) (session.Data, error) {
	token := bearerToken(r)
	if token == "" {
		return session.Data{}, domainError(http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
	}
	data, err := s.svc.sessions.Lookup(r.Context(), token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return session.Data{}, domainError(http.StatusUnauthorized, "unauthorized", "invalid or expired session", nil)
		}
		return session.Data{}, err
	}
	return data, nil
}

func (s *Server) requireAdmin(r *http.Request) (session.Data, error) {
	data, err := s.requireSession(r)
	if err != nil {
		return session.Data{}, err
	}
	if !data.IsAdmin && !data.IsSuperAdmin {
		return session.Data{}, domainError(http.StatusForbidden, "forbidden", "admin access required", nil)
	}
	return data, nil
}

// ---- plumbing ----

func (s *Server) setCORSHeaders(w http.ResponseWriter) {
	origin := s.corsOrigin
	if origin == "" {
		origin = "*"
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
}

// DomainError is an error the handlers can answer directly: Status becomes
// the HTTP status, and Code/Message/Details land in the {"success":false}
// envelope.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string { return e.Code + ": " + e.Message }

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var de *DomainError
	if errors.As(err, &de) {
		writeError(w, de.Status, de.Code, de.Message, de.Details)
		return
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "project not found", nil)
	case errors.Is(err, authpw.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "account not found", nil)
	case errors.Is(err, authpw.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error(), nil)
	case errors.Is(err, authpw.ErrPendingApproval):
		writeError(w, http.StatusForbidden, "pending_approval", err.Error(), nil)
	case errors.Is(err, authpw.ErrBlocked):
		writeError(w, http.StatusForbidden, "blocked", err.Error(), nil)
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired session", nil)
	case errors.Is(err, export.ErrPDFDependencyMissing):
		writeError(w, http.StatusServiceUnavailable, "export_unavailable", "PDF export is unavailable on this deployment", nil)
	default:
		log.Printf("app: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("app: write response: %v", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	payload := map[string]any{"success": false, "code": code, "error": message}
	if details != nil {
		payload["details"] = details
	}
	writeJSON(w, status, payload)
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		return domainError(http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
	}
	return nil
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = newRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		log.Printf(`{"requestId":%q,"method":%q,"path":%q,"status":%d,"durationMs":%d}`,
			requestID, r.Method, r.URL.Path, rec.status, time.Since(start).Milliseconds())
	})
}

func newRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "req_" + hex.EncodeToString(buf)
}
