// Package handlers implements the HTTP endpoints of the ledger
// service.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/chatledger/chatledger/internal/api/middleware"
	"github.com/chatledger/chatledger/internal/archive"
	"github.com/chatledger/chatledger/internal/extract"
	"github.com/chatledger/chatledger/internal/ledger"
	"github.com/chatledger/chatledger/internal/normalize"
	"github.com/chatledger/chatledger/internal/report"
)

// maxImageBytes caps uploaded screenshots. Payment screenshots are
// small; anything bigger is not one.
const maxImageBytes = 10 << 20

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// LedgerHandler serves every record endpoint.
type LedgerHandler struct {
	store     ledger.Store
	pipeline  *extract.Pipeline
	archiver  *archive.Archiver
	clock     *normalize.Clock
	listLimit int
	log       zerolog.Logger
}

// NewLedgerHandler wires a LedgerHandler. archiver may be nil.
func NewLedgerHandler(store ledger.Store, pipeline *extract.Pipeline, archiver *archive.Archiver, clock *normalize.Clock, listLimit int, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{
		store:     store,
		pipeline:  pipeline,
		archiver:  archiver,
		clock:     clock,
		listLimit: listLimit,
		log:       log,
	}
}

// recordResponse pairs a record with its editable echo line.
type recordResponse struct {
	Record *ledger.Record `json:"record"`
	Line   string         `json:"line"`
}

// IngestText handles POST /api/records/text.
func (h *LedgerHandler) IngestText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope string `json:"scope"`
		Text  string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" || req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "scope and text are required")
		return
	}

	cand, err := h.pipeline.FromText(r.Context(), req.Text)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.insert(w, r, req.Scope, cand)
}

// IngestImage handles POST /api/records/image. The screenshot arrives
// as a multipart "image" part with the owning scope in a "scope" form
// field.
func (h *LedgerHandler) IngestImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	scope := r.FormValue("scope")
	if scope == "" {
		middleware.WriteError(w, http.StatusBadRequest, "scope is required")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "image part is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	h.archiver.StoreAsync(image, mimeType)

	cand, err := h.pipeline.FromImage(r.Context(), image, mimeType)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.insert(w, r, scope, cand)
}

func (h *LedgerHandler) insert(w http.ResponseWriter, r *http.Request, scope string, cand *extract.Candidate) {
	rec, err := h.store.Insert(r.Context(), &ledger.Record{
		OwnerScope: &scope,
		Amount:     cand.Amount,
		Category:   cand.Category,
		Payee:      cand.Payee,
		TimeLocal:  cand.TimeLocal,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, recordResponse{Record: rec, Line: ledger.Line(rec)})
}

// List handles GET /api/records.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		middleware.WriteError(w, http.StatusBadRequest, "scope is required")
		return
	}
	month, ok := h.month(w, r)
	if !ok {
		return
	}

	limit := h.listLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := h.store.ListMonth(r.Context(), scope, month, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		lines = append(lines, ledger.DisplayLine(rec))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"month":   month,
		"count":   len(recs),
		"records": recs,
		"lines":   lines,
	})
}

// Update handles PATCH /api/records/{id}.
func (h *LedgerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Scope   string            `json:"scope"`
		Updates map[string]string `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" {
		middleware.WriteError(w, http.StatusBadRequest, "scope is required")
		return
	}

	upd, err := ledger.ParseUpdate(req.Updates)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	old, err := h.store.Get(r.Context(), id, req.Scope)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	rec, err := h.store.Update(r.Context(), id, req.Scope, upd)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"record":   rec,
		"line":     ledger.Line(rec),
		"old_line": ledger.Line(old),
	})
}

// Delete handles DELETE /api/records. Several ids can go in one call;
// each is resolved independently.
func (h *LedgerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scope string   `json:"scope"`
		IDs   []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scope == "" {
		middleware.WriteError(w, http.StatusBadRequest, "scope is required")
		return
	}
	if len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "ids are required")
		return
	}

	res, err := h.store.Delete(r.Context(), req.IDs, req.Scope)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

// Report handles GET /api/report.
func (h *LedgerHandler) Report(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		middleware.WriteError(w, http.StatusBadRequest, "scope is required")
		return
	}
	month, ok := h.month(w, r)
	if !ok {
		return
	}

	recs, err := h.store.ListMonth(r.Context(), scope, month, 0)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, report.Build(month, recs))
}

// ExportCSV handles GET /api/export.csv. The export is staged in a
// temp file that is removed on every exit path.
func (h *LedgerHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		middleware.WriteError(w, http.StatusBadRequest, "scope is required")
		return
	}
	month, ok := h.month(w, r)
	if !ok {
		return
	}

	recs, err := h.store.ListMonth(r.Context(), scope, month, 0)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	tmp, err := os.CreateTemp("", "ledger-export-*.csv")
	if err != nil {
		h.log.Error().Err(err).Msg("create export temp file")
		middleware.WriteError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := report.WriteCSV(tmp, recs); err != nil {
		h.log.Error().Err(err).Msg("write export csv")
		middleware.WriteError(w, http.StatusInternalServerError, "export failed")
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		h.log.Error().Err(err).Msg("rewind export temp file")
		middleware.WriteError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "expenses-"+month+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, tmp); err != nil {
		h.log.Warn().Err(err).Msg("stream export csv")
	}
}

// Health handles GET /health.
func (h *LedgerHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// month reads the month query parameter, defaulting to the current
// local month. A malformed month writes a 400 and reports !ok.
func (h *LedgerHandler) month(w http.ResponseWriter, r *http.Request) (string, bool) {
	month := r.URL.Query().Get("month")
	if month == "" {
		return h.clock.CurrentMonth(), true
	}
	if !monthPattern.MatchString(month) {
		middleware.WriteError(w, http.StatusBadRequest, "month must look like YYYY-MM")
		return "", false
	}
	return month, true
}

// writeDomainError maps domain errors onto HTTP statuses. Unexpected
// errors surface as a generic 500 with detail kept in the log.
func (h *LedgerHandler) writeDomainError(w http.ResponseWriter, err error) {
	var (
		xerr *extract.ExtractionError
		verr *ledger.ValidationError
		ufe  *ledger.UnsupportedFieldError
	)
	switch {
	case errors.Is(err, extract.ErrNoAmount):
		middleware.WriteError(w, http.StatusUnprocessableEntity, "no amount could be extracted")
	case errors.As(err, &xerr):
		middleware.WriteError(w, http.StatusUnprocessableEntity, xerr.Error())
	case errors.As(err, &verr):
		middleware.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &ufe):
		middleware.WriteError(w, http.StatusBadRequest, ufe.Error())
	case errors.Is(err, ledger.ErrEmptyUpdate):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "record not found")
	default:
		h.log.Error().Err(err).Msg("unexpected error")
		middleware.WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
