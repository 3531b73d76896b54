package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/atrium-hq/atrium/modules/member/domain/aggregates/member"
	"github.com/atrium-hq/atrium/modules/member/presentation/viewmodels"
	"github.com/atrium-hq/atrium/modules/member/services"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/httpapi"
	"github.com/atrium-hq/atrium/pkg/shared"
)

type MemberController struct {
	app      application.Application
	service  *services.MemberService
	basePath string
}

func NewMemberController(app application.Application) application.Controller {
	return &MemberController{
		app:      app,
		service:  app.Service(services.MemberService{}).(*services.MemberService),
		basePath: "/members",
	}
}

func (c *MemberController) Key() string {
	return c.basePath
}

func (c *MemberController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Delete).Methods(http.MethodDelete)
	router.HandleFunc("/{id}/identities", c.AddIdentity).Methods(http.MethodPost)
}

func (c *MemberController) List(w http.ResponseWriter, r *http.Request) {
	params := &member.FindParams{
		Q:      r.URL.Query().Get("q"),
		Limit:  shared.ParseIntQuery(r, "limit"),
		Offset: shared.ParseIntQuery(r, "offset"),
	}
	members, total, err := c.service.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]*viewmodels.Member, 0, len(members))
	for _, m := range members {
		out = append(out, viewmodels.MemberFromEntity(m))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

func (c *MemberController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid member id", nil)
		return
	}
	m, err := c.service.GetByID(r.Context(), id)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, viewmodels.MemberFromEntity(m))
}

func (c *MemberController) Create(w http.ResponseWriter, r *http.Request) {
	var dto member.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	created, err := c.service.Create(r.Context(), &dto)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, viewmodels.MemberFromEntity(created))
}

func (c *MemberController) AddIdentity(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid member id", nil)
		return
	}
	var dto member.IdentityDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	if err := c.service.AddIdentity(r.Context(), id, dto); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *MemberController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid member id", nil)
		return
	}
	if err := c.service.Delete(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}
