package handlers

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"agency-portal/internal/metrics"
	"agency-portal/internal/middleware"
	"agency-portal/internal/models"
	"agency-portal/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type wizardState struct {
	ID           string              `json:"id"`
	FormID       string              `json:"form_id"`
	Step         int                 `json:"step"`
	Total        int                 `json:"total"`
	Progress     int                 `json:"progress"`
	IsLast       bool                `json:"is_last"`
	Question     wizard.QuestionView `json:"question"`
	Answers      map[string]any      `json:"answers"`
	Submitted    bool                `json:"submitted"`
	SubmissionID uint                `json:"submission_id,omitempty"`
}

func newWizardState(f *wizard.Form, s *wizard.Session) wizardState {
	return wizardState{
		ID:           s.ID,
		FormID:       f.ID,
		Step:         s.Step,
		Total:        len(f.Questions),
		Progress:     int(math.Round(f.Progress(s) * 100)),
		IsLast:       f.IsLast(s),
		Question:     f.Current(s).View(s.Locale),
		Answers:      s.Answers,
		Submitted:    s.Submitted,
		SubmissionID: s.SubmissionID,
	}
}

type answerRequest struct {
	Value any `json:"value"`
}

func (h *Handler) ListForms(c *gin.Context) {
	locale := c.DefaultQuery("locale", "en")

	forms := h.Catalog.Forms()
	out := make([]wizard.FormView, 0, len(forms))
	for _, f := range forms {
		out = append(out, f.View(locale, false))
	}
	c.JSON(http.StatusOK, gin.H{"forms": out})
}

func (h *Handler) GetForm(c *gin.Context) {
	f, ok := h.Catalog.Form(c.Param("form"))
	if !ok {
		respondError(c, http.StatusNotFound, "form not found")
		return
	}
	c.JSON(http.StatusOK, f.View(c.DefaultQuery("locale", "en"), true))
}

// StartWizard открывает новую сессию мастера на первом вопросе.
func (h *Handler) StartWizard(c *gin.Context) {
	f, ok := h.Catalog.Form(c.Param("form"))
	if !ok {
		respondError(c, http.StatusNotFound, "form not found")
		return
	}

	var req struct {
		Locale string `json:"locale"`
	}
	// тело необязательно
	_ = c.ShouldBindJSON(&req)

	s := f.NewSession(strings.TrimSpace(req.Locale))
	if u, ok := middleware.CurrentUser(c); ok {
		s.UserID = u.ID
	}
	if err := h.Wizards.Create(c.Request.Context(), s); err != nil {
		h.internalError(c, "failed to create wizard session", err)
		return
	}

	metrics.IncrementWizard(f.ID, "start", "ok")
	c.JSON(http.StatusCreated, newWizardState(f, s))
}

func (h *Handler) GetWizard(c *gin.Context) {
	s, err := h.Wizards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.wizardError(c, "", "get", err)
		return
	}
	f, ok := h.Catalog.Form(s.FormID)
	if !ok {
		respondError(c, http.StatusNotFound, "form not found")
		return
	}
	c.JSON(http.StatusOK, newWizardState(f, s))
}

func (h *Handler) NextStep(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	h.transition(c, "next", func(f *wizard.Form, s *wizard.Session) error {
		return f.Next(s, req.Value)
	})
}

func (h *Handler) PreviousStep(c *gin.Context) {
	h.transition(c, "previous", func(f *wizard.Form, s *wizard.Session) error {
		return f.Previous(s)
	})
}

func (h *Handler) transition(c *gin.Context, action string, fn func(*wizard.Form, *wizard.Session) error) {
	var form *wizard.Form
	s, err := h.Wizards.Update(c.Request.Context(), c.Param("id"), func(s *wizard.Session) error {
		f, ok := h.Catalog.Form(s.FormID)
		if !ok {
			return wizard.ErrSessionNotFound
		}
		form = f
		return fn(f, s)
	})
	if err != nil {
		formID := ""
		if form != nil {
			formID = form.ID
		}
		h.wizardError(c, formID, action, err)
		return
	}

	metrics.IncrementWizard(form.ID, action, "ok")
	c.JSON(http.StatusOK, newWizardState(form, s))
}

// SubmitWizard допустим только на последнем шаге. Пока запрос в полёте, повторная
// отправка получает 409.
func (h *Handler) SubmitWizard(c *gin.Context) {
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindError(err))
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	var form *wizard.Form
	s, err := h.Wizards.Update(ctx, id, func(s *wizard.Session) error {
		f, ok := h.Catalog.Form(s.FormID)
		if !ok {
			return wizard.ErrSessionNotFound
		}
		form = f
		return f.BeginSubmit(s, req.Value)
	})
	if err != nil {
		formID := ""
		if form != nil {
			formID = form.ID
		}
		h.wizardError(c, formID, "submit", err)
		return
	}

	lead := leadFromSession(form, s)
	if err := h.recordLead(c, lead); err != nil {
		if _, relErr := h.Wizards.Update(ctx, id, func(s *wizard.Session) error {
			s.Release()
			return nil
		}); relErr != nil {
			h.log(c).Error("failed to release wizard session", zap.String("session_id", id), zap.Error(relErr))
		}
		metrics.IncrementWizard(form.ID, "submit", "error")
		h.internalError(c, "failed to store wizard submission", err)
		return
	}

	if _, err := h.Wizards.Update(ctx, id, func(s *wizard.Session) error {
		s.FinishSubmit(lead.ID)
		return nil
	}); err != nil {
		// заявка уже сохранена, так что клиенту всё равно отвечаем успехом
		h.log(c).Error("failed to mark wizard submitted", zap.String("session_id", id), zap.Error(err))
	}

	metrics.IncrementWizard(form.ID, "submit", "ok")
	c.JSON(http.StatusOK, gin.H{"success": true, "submission_id": lead.ID})
}

func leadFromSession(f *wizard.Form, s *wizard.Session) *models.ContactSubmission {
	return &models.ContactSubmission{
		Name:    s.Answer("name"),
		Email:   s.Answer("email"),
		Phone:   s.Answer("phone"),
		Company: s.Answer("company"),
		Message: s.Answer("message"),
		Status:  models.LeadNew,
		Source:  f.Source,
		FormID:  f.ID,
		Locale:  s.Locale,
		Answers: s.Answers,
	}
}

func (h *Handler) wizardError(c *gin.Context, formID, action string, err error) {
	var ve *wizard.ValidationError
	switch {
	case errors.As(err, &ve):
		metrics.IncrementWizard(formID, action, "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.Is(err, wizard.ErrSessionNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, wizard.ErrAlreadySubmitted), errors.Is(err, wizard.ErrSubmitting):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrNotLastStep):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.internalError(c, "wizard "+action+" failed", err)
	}
}
