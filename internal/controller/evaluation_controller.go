package controller

import (
	"istas_backend/internal/scoring"
	"istas_backend/internal/service"
	"istas_backend/internal/session"
	"istas_backend/internal/util"

	"github.com/gin-gonic/gin"
)

const persistFailed = "Could not save the evaluation, please try again"

type EvaluationController struct {
	Service *service.EvaluationService
}

func NewEvaluationController(svc *service.EvaluationService) *EvaluationController {
	return &EvaluationController{Service: svc}
}

type StartSessionRequest struct {
	EmployeeID uint `json:"employeeId" binding:"required"`
	FormID     uint `json:"formId"`
}

type AnswerRequest struct {
	Response scoring.Response `json:"response"`
}

type ObservationRequest struct {
	Observation string `json:"observation" binding:"max=4000"`
}

type OptionsRequest struct {
	Options []string `json:"options"`
}

type NotesRequest struct {
	Notes string `json:"notes" binding:"max=10000"`
}

type viewFunc func(ctx *gin.Context, sc session.Context) (*session.View, error)

// handle runs op for the caller's session and renders the resulting view.
func (c *EvaluationController) handle(ctx *gin.Context, fallback string, op viewFunc) {
	sc, ok := sessionContext(ctx)
	if !ok {
		return
	}
	view, err := op(ctx, sc)
	if err != nil {
		respondError(ctx, err, fallback)
		return
	}
	util.Success(ctx, view)
}

// @Summary Start a session for an employee (and optionally a form)
// @Tags evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body StartSessionRequest true "selection"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session [post]
func (c *EvaluationController) Start(ctx *gin.Context) {
	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.Start(ctx.Request.Context(), sc, req.EmployeeID, req.FormID)
	})
}

// @Summary Current session view
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session [get]
func (c *EvaluationController) Current(ctx *gin.Context) {
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.Current(ctx.Request.Context(), sc)
	})
}

// @Summary Select the form of the session
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Param formId path int true "form id"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/forms/{formId} [put]
func (c *EvaluationController) SelectForm(ctx *gin.Context) {
	formID, ok := pathID(ctx, "formId")
	if !ok {
		return
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.SelectForm(ctx.Request.Context(), sc, formID)
	})
}

// @Summary Answer a question (true, false or null to clear)
// @Tags evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "question id"
// @Param body body AnswerRequest true "response"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/answers/{questionId} [put]
func (c *EvaluationController) Answer(ctx *gin.Context) {
	questionID, ok := pathID(ctx, "questionId")
	if !ok {
		return
	}
	var req AnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.Answer(ctx.Request.Context(), sc, questionID, req.Response)
	})
}

// @Summary Set the observation of a question
// @Tags evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "question id"
// @Param body body ObservationRequest true "observation"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/answers/{questionId}/observation [put]
func (c *EvaluationController) SetObservation(ctx *gin.Context) {
	questionID, ok := pathID(ctx, "questionId")
	if !ok {
		return
	}
	var req ObservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.SetObservation(ctx.Request.Context(), sc, questionID, req.Observation)
	})
}

// @Summary Set the selected options of a question
// @Tags evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param questionId path int true "question id"
// @Param body body OptionsRequest true "options"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/answers/{questionId}/options [put]
func (c *EvaluationController) SetOptions(ctx *gin.Context) {
	questionID, ok := pathID(ctx, "questionId")
	if !ok {
		return
	}
	var req OptionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.SetOptions(ctx.Request.Context(), sc, questionID, req.Options)
	})
}

// @Summary Set the evaluation notes
// @Tags evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body NotesRequest true "notes"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/notes [put]
func (c *EvaluationController) SetNotes(ctx *gin.Context) {
	var req NotesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.SetNotes(ctx.Request.Context(), sc, req.Notes)
	})
}

// @Summary Jump to a section
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Param sectionId path int true "section id"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/sections/{sectionId} [post]
func (c *EvaluationController) GoToSection(ctx *gin.Context) {
	sectionID, ok := pathID(ctx, "sectionId")
	if !ok {
		return
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.GoToSection(ctx.Request.Context(), sc, sectionID)
	})
}

// @Summary Next section
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/next [post]
func (c *EvaluationController) NextSection(ctx *gin.Context) {
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.NextSection(ctx.Request.Context(), sc)
	})
}

// @Summary Previous section
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/previous [post]
func (c *EvaluationController) PreviousSection(ctx *gin.Context) {
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.PreviousSection(ctx.Request.Context(), sc)
	})
}

// @Summary Save partial progress
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=session.View}
// @Failure 409 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/evaluations/session/save [post]
func (c *EvaluationController) Save(ctx *gin.Context) {
	c.handle(ctx, persistFailed, func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.Save(ctx.Request.Context(), sc)
	})
}

// @Summary Complete the evaluation
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=session.View}
// @Failure 422 {object} util.Response{data=session.IncompleteSubmissionError}
// @Failure 409 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/evaluations/session/complete [post]
func (c *EvaluationController) Complete(ctx *gin.Context) {
	c.handle(ctx, persistFailed, func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.Complete(ctx.Request.Context(), sc)
	})
}

// @Summary Start a new evaluation of the same employee and form
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/new [post]
func (c *EvaluationController) StartNew(ctx *gin.Context) {
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.StartNew(ctx.Request.Context(), sc)
	})
}

// @Summary Leave the results view
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/exit [post]
func (c *EvaluationController) ExitResults(ctx *gin.Context) {
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.ExitResults(ctx.Request.Context(), sc)
	})
}

// @Summary Employee evaluation history for a form
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Param id path int true "employee id"
// @Param formId query int false "form id, defaults to the session's form"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/employees/{id}/evaluations [get]
func (c *EvaluationController) History(ctx *gin.Context) {
	employeeID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var formID uint
	if raw := ctx.Query("formId"); raw != "" {
		id, err := util.ParseID(raw)
		if err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
		formID = id
	}
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.OpenHistory(ctx.Request.Context(), sc, employeeID, formID)
	})
}

// @Summary Show a past evaluation read-only
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Param evaluationId path string true "evaluation id"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/history/{evaluationId}/view [post]
func (c *EvaluationController) ViewEvaluation(ctx *gin.Context) {
	id := ctx.Param("evaluationId")
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.ViewEvaluation(ctx.Request.Context(), sc, id)
	})
}

// @Summary Reopen a past evaluation for editing
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Param evaluationId path string true "evaluation id"
// @Success 200 {object} util.Response{data=session.View}
// @Router /api/evaluations/session/history/{evaluationId}/reopen [post]
func (c *EvaluationController) Reopen(ctx *gin.Context) {
	id := ctx.Param("evaluationId")
	c.handle(ctx, "", func(ctx *gin.Context, sc session.Context) (*session.View, error) {
		return c.Service.ReopenEvaluation(ctx.Request.Context(), sc, id)
	})
}

// @Summary Delete an evaluation
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "evaluation id"
// @Success 200 {object} util.Response
// @Router /api/admin/evaluations/{id} [delete]
func (c *EvaluationController) Delete(ctx *gin.Context) {
	sc, ok := sessionContext(ctx)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvaluation(ctx.Request.Context(), sc, ctx.Param("id")); err != nil {
		respondError(ctx, err, "")
		return
	}
	util.Success(ctx, gin.H{"deleted": ctx.Param("id")})
}

// @Summary Discard the caller's session
// @Tags evaluation
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/evaluations/session [delete]
func (c *EvaluationController) Reset(ctx *gin.Context) {
	sc, ok := sessionContext(ctx)
	if !ok {
		return
	}
	if err := c.Service.Reset(ctx.Request.Context(), sc); err != nil {
		respondError(ctx, err, "")
		return
	}
	util.Success(ctx, gin.H{"reset": true})
}
