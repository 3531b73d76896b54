package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/manual"
	"github.com/atrium-hq/atrium/modules/affiliation/domain/aggregates/workexperience"
	"github.com/atrium-hq/atrium/modules/affiliation/services"
	"github.com/atrium-hq/atrium/pkg/application"
	"github.com/atrium-hq/atrium/pkg/composables"
	"github.com/atrium-hq/atrium/pkg/httpapi"
	"github.com/atrium-hq/atrium/pkg/shared"
)

type AffiliationController struct {
	app      application.Application
	timeline *services.TimelineService
	resolver *services.AffiliationService
	basePath string
}

func NewAffiliationController(app application.Application) application.Controller {
	return &AffiliationController{
		app:      app,
		timeline: app.Service(services.TimelineService{}).(*services.TimelineService),
		resolver: app.Service(services.AffiliationService{}).(*services.AffiliationService),
		basePath: "/affiliation",
	}
}

func (c *AffiliationController) Key() string {
	return c.basePath
}

func (c *AffiliationController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/members/{id}/work-experiences", c.ListWorkExperiences).Methods(http.MethodGet)
	router.HandleFunc("/members/{id}/work-experiences", c.UpsertWorkExperience).Methods(http.MethodPut)
	router.HandleFunc("/work-experiences/{id}", c.DeleteWorkExperience).Methods(http.MethodDelete)
	router.HandleFunc("/members/{id}/manual", c.SetManualAffiliation).Methods(http.MethodPut)
	router.HandleFunc("/manual/{id}", c.RemoveManualAffiliation).Methods(http.MethodDelete)
	router.HandleFunc("/members/{id}/resolve", c.Resolve).Methods(http.MethodGet)
}

type workExperiencePayload struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	Title          string     `json:"title"`
	DateStart      *time.Time `json:"dateStart"`
	DateEnd        *time.Time `json:"dateEnd"`
	Source         string     `json:"source"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func workExperienceFromEntity(wx workexperience.WorkExperience) workExperiencePayload {
	return workExperiencePayload{
		ID:             wx.ID().String(),
		OrganizationID: wx.OrganizationID().String(),
		Title:          wx.Title(),
		DateStart:      wx.DateStart(),
		DateEnd:        wx.DateEnd(),
		Source:         string(wx.Source()),
		CreatedAt:      wx.CreatedAt(),
	}
}

func (c *AffiliationController) ListWorkExperiences(w http.ResponseWriter, r *http.Request) {
	memberID, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid member id", nil)
		return
	}
	experiences, err := c.timeline.ListWorkExperiences(r.Context(), memberID)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	out := make([]workExperiencePayload, 0, len(experiences))
	for _, wx := range experiences {
		out = append(out, workExperienceFromEntity(wx))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *AffiliationController) UpsertWorkExperience(w http.ResponseWriter, r *http.Request) {
	memberID, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid member id", nil)
		return
	}
	var body struct {
		OrganizationID uuid.UUID  `json:"organizationId"`
		Title          string     `json:"title"`
		DateStart      *time.Time `json:"dateStart"`
		DateEnd        *time.Time `json:"dateEnd"`
		Source         string     `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	written, err := c.timeline.UpsertWorkExperience(r.Context(), &workexperience.UpsertDTO{
		MemberID:       memberID,
		OrganizationID: body.OrganizationID,
		Title:          body.Title,
		DateStart:      body.DateStart,
		DateEnd:        body.DateEnd,
		Source:         body.Source,
	})
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	if written.IsZero() {
		// Dropped by precedence rules; nothing changed.
		_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"applied": false})
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, workExperienceFromEntity(written))
}

func (c *AffiliationController) DeleteWorkExperience(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid work experience id", nil)
		return
	}
	if err := c.timeline.DeleteWorkExperience(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *AffiliationController) SetManualAffiliation(w http.ResponseWriter, r *http.Request) {
	memberID, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid member id", nil)
		return
	}
	// organizationId must be present even when null: an explicit "no
	// organization" override is different from omitting the field.
	var body struct {
		OrganizationID json.RawMessage `json:"organizationId"`
		DateStart      *time.Time      `json:"dateStart"`
		DateEnd        *time.Time      `json:"dateEnd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "malformed body", nil)
		return
	}
	if len(body.OrganizationID) == 0 {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "organizationId is required, use null for no organization", nil)
		return
	}
	var organizationID uuid.NullUUID
	if string(body.OrganizationID) != "null" {
		var id uuid.UUID
		if err := json.Unmarshal(body.OrganizationID, &id); err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid organizationId", nil)
			return
		}
		organizationID = uuid.NullUUID{UUID: id, Valid: true}
	}

	segmentID, err := composables.UseSegmentID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "SEGMENT_REQUIRED", "segment header is required", nil)
		return
	}

	written, err := c.timeline.SetManualAffiliation(r.Context(), &manual.SetDTO{
		MemberID:       memberID,
		SegmentID:      segmentID,
		OrganizationID: organizationID,
		DateStart:      body.DateStart,
		DateEnd:        body.DateEnd,
	})
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"id":             written.ID().String(),
		"organizationId": written.OrganizationID(),
	})
}

func (c *AffiliationController) RemoveManualAffiliation(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid manual affiliation id", nil)
		return
	}
	if err := c.timeline.RemoveManualAffiliation(r.Context(), id); err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

// Resolve exposes the resolution chain for debugging and review tooling.
func (c *AffiliationController) Resolve(w http.ResponseWriter, r *http.Request) {
	memberID, err := shared.ParseUUID(r, "id")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid member id", nil)
		return
	}
	segmentID, err := composables.UseSegmentID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "SEGMENT_REQUIRED", "segment header is required", nil)
		return
	}
	ts := time.Now().UTC()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid timestamp, want RFC3339", nil)
			return
		}
		ts = parsed
	}

	resolved, err := c.resolver.Resolve(r.Context(), memberID, segmentID, ts)
	if err != nil {
		_ = httpapi.WriteDomainError(w, err)
		return
	}
	payload := map[string]any{"organizationId": nil}
	if resolved.Valid {
		payload["organizationId"] = resolved.UUID.String()
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, payload)
}
