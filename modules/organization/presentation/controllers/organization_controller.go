package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/atrium-hq/atrium/modules/organization/domain/aggregates/organization"
	"github.com/atrium-hq/atrium/modules/organization/services"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/httpapi"
	"github.com/atrium-hq/atrium/pkg/shared"
)

type OrganizationController struct {
	app      application.Application
	service  *services.OrganizationService
	basePath string
}

func NewOrganizationController(app application.Application) application.Controller {
	return &OrganizationController{
		app:      app,
		service:  app.Service(services.OrganizationService{}).(*services.OrganizationService),
		basePath: "/organizations",
	}
}

func (c *OrganizationController) Key() string {
	return c.basePath
}

func (c *OrganizationController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/duplicates", c.Duplicates).Methods(http.MethodGet)
	router.HandleFunc("/merge", c.Merge).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
}

type organizationPayload struct {
	ID          string                  `json:"id"`
	DisplayName string                  `json:"displayName"`
	Identities  []organization.Identity `json:"identities"`
}

func fromEntity(o organization.Organization) organizationPayload {
	return organizationPayload{
		ID:          o.ID().String(),
		DisplayName: o.DisplayName(),
		Identities:  o.Identities(),
	}
}

func (c *OrganizationController) List(w http.ResponseWriter, r *http.Request) {
	params := &organization.FindParams{
		Q:      r.URL.Query().Get("q"),
		Limit:  shared.ParseIntQuery(r, "limit"),
		Offset: shared.ParseIntQuery(r, "offset"),
	}
	orgs, total, err := c.service.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]organizationPayload, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, fromEntity(o))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

func (c *OrganizationController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid organization id", nil)
		return
	}
	o, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, fromEntity(o))
}

func (c *OrganizationController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DisplayName string                  `json:"displayName"`
		Identities  []organization.Identity `json:"identities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	created, err := c.service.Create(r.Context(), body.DisplayName, body.Identities)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, fromEntity(created))
}

func (c *OrganizationController) Merge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		WinnerID uuid.UUID `json:"winnerId"`
		LoserID  uuid.UUID `json:"loserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	if err := c.service.Merge(r.Context(), body.WinnerID, body.LoserID); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *OrganizationController) Duplicates(w http.ResponseWriter, r *http.Request) {
	candidates, err := c.service.FindDuplicates(r.Context(), shared.ParseIntQuery(r, "limit"))
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": candidates})
}
