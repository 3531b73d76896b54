package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/atrium-hq/atrium/modules/activity/domain/aggregates/activity"
	"github.com/atrium-hq/atrium/modules/activity/services"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/httpapi"
	"github.com/atrium-hq/atrium/pkg/shared"
)

type ActivityController struct {
	app      application.Application
	service  *services.ActivityService
	basePath string
}

func NewActivityController(app application.Application) application.Controller {
	return &ActivityController{
		app:      app,
		service:  app.Service(services.ActivityService{}).(*services.ActivityService),
		basePath: "/activities",
	}
}

func (c *ActivityController) Key() string {
	return c.basePath
}

func (c *ActivityController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
}

type activityPayload struct {
	ID             string    `json:"id"`
	MemberID       string    `json:"memberId"`
	OrganizationID *string   `json:"organizationId"`
	Type           string    `json:"type"`
	Platform       string    `json:"platform"`
	Timestamp      time.Time `json:"timestamp"`
}

func fromEntity(a activity.Activity) activityPayload {
	payload := activityPayload{
		ID:        a.ID().String(),
		MemberID:  a.MemberID().String(),
		Type:      a.Type(),
		Platform:  a.Platform(),
		Timestamp: a.Timestamp(),
	}
	if org := a.OrganizationID(); org.Valid {
		s := org.UUID.String()
		payload.OrganizationID = &s
	}
	return payload
}

func (c *ActivityController) List(w http.ResponseWriter, r *http.Request) {
	params := &activity.FindParams{
		Limit:  shared.ParseIntQuery(r, "limit"),
		Offset: shared.ParseIntQuery(r, "offset"),
	}
	if raw := r.URL.Query().Get("memberId"); raw != "" {
		memberID, err := shared.ParseUUIDString(raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid memberId", nil)
			return
		}
		params.MemberID = memberID
	}

	activities, total, err := c.service.GetPaginated(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]activityPayload, 0, len(activities))
	for _, a := range activities {
		out = append(out, fromEntity(a))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out, "total": total})
}

func (c *ActivityController) Create(w http.ResponseWriter, r *http.Request) {
	var dto activity.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	created, err := c.service.Create(r.Context(), &dto)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, fromEntity(created))
}
