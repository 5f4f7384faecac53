package admin

import (
	"crypto/rand"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"realia_backend/internal/identity"
	"realia_backend/internal/imports"
	"realia_backend/internal/qualification"
	"realia_backend/platform/httpkit"
	"realia_backend/platform/phone"
	"realia_backend/platform/sanitize"
	"realia_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"

	maxImportBytes = 2 << 20
)

// Handler serves the operator API.
type Handler struct {
	identity *identity.Repository
	leads    *qualification.Service
	importer *imports.Service
	val      *validator.Validator
}

func NewHandler(identityRepo *identity.Repository, leads *qualification.Service, importer *imports.Service, val *validator.Validator) *Handler {
	return &Handler{identity: identityRepo, leads: leads, importer: importer, val: val}
}

// CreateDeveloper creates a business entity.
// POST /api/v1/admin/developers
func (h *Handler) CreateDeveloper(c *gin.Context) {
	var req CreateDeveloperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	dev, err := h.identity.CreateDeveloper(c.Request.Context(), req.Name, req.AlertEmail)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, dev)
}

// GetDeveloper retrieves a developer by id.
// GET /api/v1/admin/developers/:id
func (h *Handler) GetDeveloper(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	dev, err := h.identity.GetDeveloperByID(c.Request.Context(), id)
	if errors.Is(err, identity.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "developer not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, dev)
}

// ListProjects lists a developer's active projects.
// GET /api/v1/admin/projects?developerId=...
func (h *Handler) ListProjects(c *gin.Context) {
	developerID, err := uuid.Parse(c.Query("developerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "developerId is required", nil)
		return
	}

	projects, err := h.identity.ListActiveProjects(c.Request.Context(), developerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, projects)
}

// CreateProject creates a project directly, without the CSV flow.
// POST /api/v1/admin/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := identity.CreateProjectParams{
		DeveloperID:    req.DeveloperID,
		Name:           req.Name,
		Slug:           sanitize.Slug(req.Name),
		City:           req.City,
		Address:        req.Address,
		Neighborhood:   req.Neighborhood,
		Description:    req.Description,
		Amenities:      req.Amenities,
		TotalFloors:    req.TotalFloors,
		TotalUnits:     req.TotalUnits,
		DeliveryStatus: req.DeliveryStatus,
		PaymentInfo:    req.PaymentInfo,
	}
	if req.EstimatedDelivery != nil {
		t, err := time.Parse("2006-01", *req.EstimatedDelivery)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "estimatedDelivery must be YYYY-MM", nil)
			return
		}
		params.EstimatedDelivery = &t
	}

	exists, err := h.identity.SlugExists(c.Request.Context(), params.Slug)
	if httpkit.HandleError(c, err) {
		return
	}
	if exists {
		httpkit.Error(c, http.StatusConflict, "a project with that name already exists", nil)
		return
	}

	project, err := h.identity.CreateProject(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, project)
}

// GetProject retrieves a project with its units.
// GET /api/v1/admin/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	ctx := c.Request.Context()
	project, err := h.identity.GetProjectByID(ctx, id)
	if errors.Is(err, identity.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "project not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}

	units, err := h.identity.ListUnits(ctx, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ProjectResponse{Project: project, Units: units})
}

// BindChannel attaches a WhatsApp channel identifier to a project so the
// lookup resolution strategy can route its messages.
// PUT /api/v1/admin/projects/:id/channel
func (h *Handler) BindChannel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	var req BindChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	err = h.identity.BindChannel(c.Request.Context(), id, req.WhatsAppNumber)
	if errors.Is(err, identity.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "project not found", nil)
		return
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "bound"})
}

// ImportProject accepts the same CSV the WhatsApp flow takes, for operators
// loading projects from a desktop.
// POST /api/v1/admin/projects/import?developerId=...
func (h *Handler) ImportProject(c *gin.Context) {
	developerID, err := uuid.Parse(c.Query("developerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "developerId is required", nil)
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "multipart field 'file' is required", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "could not read file", nil)
		return
	}

	parsed, err := imports.Parse(data)
	if err != nil {
		httpkit.Error(c, http.StatusUnprocessableEntity, err.Error(), nil)
		return
	}

	project, created, err := h.importer.Commit(c.Request.Context(), developerID, parsed)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, ImportResponse{Project: project, Units: created, Warnings: parsed.Warnings})
}

// CreateContact authorizes a staff number and returns its activation code.
// POST /api/v1/admin/contacts
func (h *Handler) CreateContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	contact, err := h.identity.CreateContact(c.Request.Context(), identity.CreateContactParams{
		DeveloperID:    req.DeveloperID,
		ProjectID:      req.ProjectID,
		Phone:          phone.Digits(req.Phone),
		Name:           req.Name,
		Role:           req.Role,
		ActivationCode: newActivationCode(req.Role),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, ContactResponse{
		ID:             contact.ID,
		Phone:          contact.Phone,
		Name:           contact.Name,
		Role:           contact.Role,
		Status:         contact.Status,
		ActivationCode: contact.ActivationCode,
	})
}

// ListContacts lists active contacts for a developer, optionally by role.
// GET /api/v1/admin/contacts?developerId=...&role=ventas
func (h *Handler) ListContacts(c *gin.Context) {
	developerID, err := uuid.Parse(c.Query("developerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "developerId is required", nil)
		return
	}
	role := c.DefaultQuery("role", identity.RoleSales)

	contacts, err := h.identity.ListActiveContactsByRole(c.Request.Context(), developerID, role)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, contacts)
}

// ListLeads lists a developer's leads, optionally filtered by band.
// GET /api/v1/admin/leads?developerId=...&band=hot
func (h *Handler) ListLeads(c *gin.Context) {
	developerID, err := uuid.Parse(c.Query("developerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "developerId is required", nil)
		return
	}
	band := c.Query("band")

	leads, err := h.leads.List(c.Request.Context(), developerID, band)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]LeadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, toLeadResponse(l))
	}
	httpkit.OK(c, out)
}

// Activation codes are short and unambiguous because staff type them on a
// phone keyboard.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

var rolePrefixes = map[string]string{
	identity.RoleAdmin:        "ADMIN",
	identity.RoleConstruction: "OBRA",
	identity.RoleSales:        "VENTA",
}

func newActivationCode(role string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read does not fail on supported platforms
		panic(err)
	}
	code := make([]byte, 4)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	prefix, ok := rolePrefixes[role]
	if !ok {
		prefix = "STAFF"
	}
	return prefix + "-" + string(code)
}
