// Package admin exposes the JWT-protected operator API: developers,
// projects, authorized numbers and lead listings.
package admin

import (
	apphttp "realia_backend/internal/http"
	"realia_backend/internal/identity"
	"realia_backend/internal/imports"
	"realia_backend/internal/qualification"
	"realia_backend/platform/validator"
)

// Module implements http.Module for the operator API.
type Module struct {
	handler *Handler
}

// NewModule creates the admin module.
func NewModule(identityRepo *identity.Repository, leads *qualification.Service, importer *imports.Service, val *validator.Validator) *Module {
	return &Module{handler: NewHandler(identityRepo, leads, importer, val)}
}

// Name implements http.Module.
func (m *Module) Name() string { return "admin" }

// RegisterRoutes implements http.Module.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/developers", m.handler.CreateDeveloper)
	ctx.Admin.GET("/developers/:id", m.handler.GetDeveloper)

	ctx.Admin.GET("/projects", m.handler.ListProjects)
	ctx.Admin.POST("/projects", m.handler.CreateProject)
	ctx.Admin.POST("/projects/import", m.handler.ImportProject)
	ctx.Admin.GET("/projects/:id", m.handler.GetProject)
	ctx.Admin.PUT("/projects/:id/channel", m.handler.BindChannel)

	ctx.Admin.POST("/contacts", m.handler.CreateContact)
	ctx.Admin.GET("/contacts", m.handler.ListContacts)

	ctx.Admin.GET("/leads", m.handler.ListLeads)
}
