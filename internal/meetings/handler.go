package meetings

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aura-meetings/backend/internal/middleware"
	"github.com/aura-meetings/backend/internal/models"
	"github.com/aura-meetings/backend/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// SettingsRequest is the settings object accepted on create and update.
type SettingsRequest struct {
	AllowRecording   *bool   `json:"allowRecording"`
	AllowChat        *bool   `json:"allowChat"`
	AllowScreenShare *bool   `json:"allowScreenShare"`
	MuteOnEntry      *bool   `json:"muteOnEntry"`
	WaitingRoom      *bool   `json:"waitingRoom"`
	Password         *string `json:"password"`
}

func (r *SettingsRequest) input() *SettingsInput {
	if r == nil {
		return nil
	}
	return &SettingsInput{
		AllowRecording:   r.AllowRecording,
		AllowChat:        r.AllowChat,
		AllowScreenShare: r.AllowScreenShare,
		MuteOnEntry:      r.MuteOnEntry,
		WaitingRoom:      r.WaitingRoom,
		Password:         r.Password,
	}
}

// CreateRequest is the body for POST /meetings.
type CreateRequest struct {
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	StartsAt            *string          `json:"startsAt"`
	Duration            int              `json:"duration"`
	Type                models.Type      `json:"type"`
	HostID              string           `json:"hostId"`
	HostName            string           `json:"hostName"`
	HostImage           string           `json:"hostImage"`
	StreamID            string           `json:"streamId"`
	MeetingURL          string           `json:"meetingUrl"`
	IsRecurring         bool             `json:"isRecurring"`
	RequireRegistration bool             `json:"requireRegistration"`
	MaxParticipants     *int             `json:"maxParticipants"`
	Settings            *SettingsRequest `json:"settings"`
}

// UpdateRequest is the body for PATCH /meetings/:id.
type UpdateRequest struct {
	Title               *string          `json:"title"`
	Description         *string          `json:"description"`
	StartsAt            *string          `json:"startsAt"`
	Duration            *int             `json:"duration"`
	IsRecurring         *bool            `json:"isRecurring"`
	RequireRegistration *bool            `json:"requireRegistration"`
	MaxParticipants     *int             `json:"maxParticipants"`
	Status              *models.Status   `json:"status"`
	StreamID            *string          `json:"streamId"`
	Settings            *SettingsRequest `json:"settings"`
}

// AddParticipantRequest is the body for POST /meetings/:id/participants.
type AddParticipantRequest struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name" binding:"required"`
	Image string      `json:"image"`
	Role  models.Role `json:"role"`
}

// RoleRequest is the body for PATCH /meetings/:id/participants/:participantId/role.
type RoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// MediaTokenRequest is the optional body for POST /meetings/:id/media-token.
type MediaTokenRequest struct {
	Password string `json:"password"`
}

// Handler handles meeting HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a meeting handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the meeting endpoints on an authenticated group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/meetings", h.Create)
	api.GET("/meetings", h.List)
	api.GET("/meetings/:id", h.Get)
	api.PATCH("/meetings/:id", h.Update)
	api.DELETE("/meetings/:id", h.Delete)
	api.POST("/meetings/:id/participants", h.AddParticipant)
	api.DELETE("/meetings/:id/participants/:participantId", h.RemoveParticipant)
	api.PATCH("/meetings/:id/participants/:participantId/role", h.UpdateParticipantRole)
	api.POST("/meetings/:id/join", h.Join)
	api.POST("/meetings/:id/leave", h.Leave)
	api.POST("/meetings/:id/media-token", h.MediaToken)
	api.GET("/streams/:streamId", h.GetByStream)
	api.GET("/rooms/me", h.PersonalRoom)
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		Subject: middleware.Subject(c),
		Name:    c.GetString(middleware.ContextName),
		Image:   c.GetString(middleware.ContextPicture),
	}
}

// Create handles POST /meetings.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in := CreateInput{
		Title:               req.Title,
		Description:         req.Description,
		Duration:            req.Duration,
		Type:                req.Type,
		HostID:              req.HostID,
		HostName:            req.HostName,
		HostImage:           req.HostImage,
		StreamID:            req.StreamID,
		MeetingURL:          req.MeetingURL,
		IsRecurring:         req.IsRecurring,
		RequireRegistration: req.RequireRegistration,
		MaxParticipants:     req.MaxParticipants,
		Settings:            req.Settings.input(),
	}
	if req.StartsAt != nil && *req.StartsAt != "" {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid startsAt")
			return
		}
		in.StartsAt = &t
	}
	res, err := h.svc.Create(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// List handles GET /meetings. view=arranged groups the meetings by derived status.
func (h *Handler) List(c *gin.Context) {
	if c.Query("view") == "arranged" {
		views, err := h.svc.ListArranged(c.Request.Context(), actorFrom(c))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, views)
		return
	}
	list, err := h.svc.ListByHost(c.Request.Context(), actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /meetings/:id.
func (h *Handler) Get(c *gin.Context) {
	v, err := h.svc.GetByID(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// GetByStream handles GET /streams/:streamId.
func (h *Handler) GetByStream(c *gin.Context) {
	v, err := h.svc.GetByStream(c.Request.Context(), actorFrom(c), c.Param("streamId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// PersonalRoom handles GET /rooms/me.
func (h *Handler) PersonalRoom(c *gin.Context) {
	v, err := h.svc.PersonalRoom(c.Request.Context(), actorFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, v)
}

// Update handles PATCH /meetings/:id.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in := UpdateInput{
		Title:               req.Title,
		Description:         req.Description,
		Duration:            req.Duration,
		IsRecurring:         req.IsRecurring,
		RequireRegistration: req.RequireRegistration,
		MaxParticipants:     req.MaxParticipants,
		Status:              req.Status,
		StreamID:            req.StreamID,
		Settings:            req.Settings.input(),
	}
	if req.StartsAt != nil {
		t, err := parseTime(*req.StartsAt)
		if err != nil {
			response.BadRequest(c, "invalid startsAt")
			return
		}
		in.StartsAt = &t
	}
	if err := h.svc.Update(c.Request.Context(), actorFrom(c), c.Param("id"), in); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// Delete handles DELETE /meetings/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// AddParticipant handles POST /meetings/:id/participants.
func (h *Handler) AddParticipant(c *gin.Context) {
	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	err := h.svc.AddParticipant(c.Request.Context(), actorFrom(c), c.Param("id"), ParticipantInput{
		ID:    req.ID,
		Email: req.Email,
		Name:  req.Name,
		Image: req.Image,
		Role:  req.Role,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// RemoveParticipant handles DELETE /meetings/:id/participants/:participantId.
func (h *Handler) RemoveParticipant(c *gin.Context) {
	if err := h.svc.RemoveParticipant(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("participantId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// UpdateParticipantRole handles PATCH /meetings/:id/participants/:participantId/role.
func (h *Handler) UpdateParticipantRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.svc.UpdateParticipantRole(c.Request.Context(), actorFrom(c), c.Param("id"), c.Param("participantId"), req.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nil)
}

// Join handles POST /meetings/:id/join.
func (h *Handler) Join(c *gin.Context) {
	p, err := h.svc.Join(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Leave handles POST /meetings/:id/leave.
func (h *Handler) Leave(c *gin.Context) {
	p, err := h.svc.Leave(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// MediaToken handles POST /meetings/:id/media-token. The body is optional.
func (h *Handler) MediaToken(c *gin.Context) {
	var req MediaTokenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	tok, err := h.svc.IssueMediaToken(c.Request.Context(), actorFrom(c), c.Param("id"), req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tok)
}
