package controller

import (
	"istas_backend/internal/service"
	"istas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	Service *service.ReportService
}

func NewReportController(svc *service.ReportService) *ReportController {
	return &ReportController{Service: svc}
}

func reportParams(ctx *gin.Context) (companyID, formID uint, ok bool) {
	if companyID, ok = pathID(ctx, "id"); !ok {
		return
	}
	formID, ok = pathID(ctx, "formId")
	return
}

// @Summary Company risk summary for a form
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "company id"
// @Param formId path int true "form id"
// @Success 200 {object} util.Response{data=service.CompanyReport}
// @Router /api/admin/reports/companies/{id}/forms/{formId} [get]
func (c *ReportController) CompanyReport(ctx *gin.Context) {
	sc, ok := sessionContext(ctx)
	if !ok {
		return
	}
	companyID, formID, ok := reportParams(ctx)
	if !ok {
		return
	}
	report, err := c.Service.CompanyReport(ctx.Request.Context(), sc.TenantID, companyID, formID)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	util.Success(ctx, report)
}

// @Summary Export the company summary as CSV
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "company id"
// @Param formId path int true "form id"
// @Success 201 {object} util.Response{data=service.ExportResult}
// @Router /api/admin/reports/companies/{id}/forms/{formId}/export [post]
func (c *ReportController) Export(ctx *gin.Context) {
	sc, ok := sessionContext(ctx)
	if !ok {
		return
	}
	companyID, formID, ok := reportParams(ctx)
	if !ok {
		return
	}
	res, err := c.Service.Export(ctx.Request.Context(), sc.TenantID, companyID, formID)
	if err != nil {
		respondError(ctx, err, "")
		return
	}
	util.Created(ctx, res)
}
