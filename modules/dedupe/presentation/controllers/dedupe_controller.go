package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/atrium-hq/atrium/modules/dedupe/domain/aggregates/suggestion"
	"github.com/atrium-hq/atrium/modules/dedupe/services"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/httpapi"
	"github.com/atrium-hq/atrium/pkg/shared"
)

type DedupeController struct {
	app         application.Application
	suggestions *services.SuggestionService
	merges      *services.MergeService
	basePath    string
}

func NewDedupeController(app application.Application) application.Controller {
	return &DedupeController{
		app:         app,
		suggestions: app.Service(services.SuggestionService{}).(*services.SuggestionService),
		merges:      app.Service(services.MergeService{}).(*services.MergeService),
		basePath:    "/merge-suggestions",
	}
}

func (c *DedupeController) Key() string {
	return c.basePath
}

func (c *DedupeController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/generate", c.Generate).Methods(http.MethodPost)
	router.HandleFunc("/confirm", c.Confirm).Methods(http.MethodPost)
	router.HandleFunc("/reject", c.Reject).Methods(http.MethodPost)
}

type suggestionPayload struct {
	MemberID    string    `json:"memberId"`
	SuggestedID string    `json:"suggestedId"`
	Similarity  float64   `json:"similarity"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (c *DedupeController) List(w http.ResponseWriter, r *http.Request) {
	params := &suggestion.FindParams{
		Limit:  shared.ParseIntQuery(r, "limit"),
		Offset: shared.ParseIntQuery(r, "offset"),
	}
	items, total, err := c.suggestions.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]suggestionPayload, 0, len(items))
	for _, s := range items {
		out = append(out, suggestionPayload{
			MemberID:    s.Pair.MemberID.String(),
			SuggestedID: s.Pair.SuggestedID.String(),
			Similarity:  s.Similarity,
			CreatedAt:   s.CreatedAt,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

func (c *DedupeController) Generate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WindowHours float64 `json:"windowHours"`
	}
	if r.Body != nil {
		// Empty body means the configured default window.
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if err := c.suggestions.GenerateSuggestions(r.Context(), body.WindowHours); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusAccepted, nil)
}

func (c *DedupeController) Confirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WinnerID uuid.UUID `json:"winnerId"`
		LoserID  uuid.UUID `json:"loserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	if err := c.merges.ConfirmMerge(r.Context(), body.WinnerID, body.LoserID); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *DedupeController) Reject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MemberID    uuid.UUID `json:"memberId"`
		SuggestedID uuid.UUID `json:"suggestedId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	if err := c.merges.RejectSuggestion(r.Context(), body.MemberID, body.SuggestedID); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
