package controller

import (
	"istas_backend/internal/repository"
	"istas_backend/internal/service"
	"istas_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	Catalog   *service.CatalogService
	Companies *repository.CompanyRepository
}

func NewCatalogController(catalog *service.CatalogService, companies *repository.CompanyRepository) *CatalogController {
	return &CatalogController{Catalog: catalog, Companies: companies}
}

// @Summary List active forms
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/forms [get]
func (c *CatalogController) ListForms(ctx *gin.Context) {
	forms, err := c.Catalog.ListForms(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, forms)
}

// @Summary Form definition with sections, questions and risks
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "form id"
// @Success 200 {object} util.Response
// @Router /api/forms/{id} [get]
func (c *CatalogController) GetForm(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	form, err := c.Catalog.GetFormDefinition(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	util.Success(ctx, form)
}

// @Summary List the tenant's companies
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/companies [get]
func (c *CatalogController) ListCompanies(ctx *gin.Context) {
	sc, ok := sessionContext(ctx)
	if !ok {
		return
	}
	companies, err := c.Companies.ListCompanies(ctx.Request.Context(), sc.TenantID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, companies)
}

// @Summary List a company's employees
// @Tags catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "company id"
// @Success 200 {object} util.Response
// @Router /api/companies/{id}/employees [get]
func (c *CatalogController) ListEmployees(ctx *gin.Context) {
	sc, ok := sessionContext(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if _, err := c.Companies.FindCompany(ctx.Request.Context(), sc.TenantID, id); err != nil {
		respondError(ctx, err, "")
		return
	}
	employees, err := c.Companies.ListEmployees(ctx.Request.Context(), sc.TenantID, id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, employees)
}

// @Summary Import a YAML catalog document
// @Tags admin
// @Accept application/yaml
// @Produce json
// @Security BearerAuth
// @Success 201 {object} util.Response{data=service.ImportSummary}
// @Failure 400 {object} util.Response
// @Router /api/admin/catalog/import [post]
func (c *CatalogController) Import(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, 4<<20)
	doc, err := service.ParseCatalog(ctx.Request.Body)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	summary, err := c.Catalog.Import(ctx.Request.Context(), doc)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	util.Created(ctx, summary)
}
