// api/handlers/form_handler.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Annany2002/nebula-dq/api/models"
	"github.com/Annany2002/nebula-dq/config"
	"github.com/Annany2002/nebula-dq/internal/domain"
	"github.com/Annany2002/nebula-dq/internal/metrics"
	"github.com/Annany2002/nebula-dq/internal/testcase"
)

// TestCaseSink persists accepted test cases. The local store and the remote
// catalog client both implement it.
type TestCaseSink interface {
	CreateTestCase(ctx context.Context, req domain.CreateTestCase) (*domain.TestCase, error)
}

type createdSlotKey struct{}

// FormHandler drives test case form sessions over HTTP.
type FormHandler struct {
	Registry *testcase.Registry
	Catalog  testcase.Catalog
	Sink     TestCaseSink
	Builder  *testcase.Builder
	Rules    *testcase.RuleSet
	Cfg      *config.Config
	Metrics  *metrics.Metrics
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(registry *testcase.Registry, catalog testcase.Catalog, sink TestCaseSink,
	rules *testcase.RuleSet, cfg *config.Config, m *metrics.Metrics) *FormHandler {
	return &FormHandler{
		Registry: registry,
		Catalog:  catalog,
		Sink:     sink,
		Builder:  testcase.NewBuilder(nil),
		Rules:    rules,
		Cfg:      cfg,
		Metrics:  m,
	}
}

// OpenForm handles POST /api/v1/forms. The initial fetches run before the
// response; their failures are reported as events.
func (h *FormHandler) OpenForm(c *gin.Context) {
	var req models.OpenFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	id := uuid.NewString()
	fc := testcase.FormContext{
		Table:        req.Table.ToDomain(),
		ColumnScoped: req.ColumnScoped,
		InitialValue: req.InitialValue,
	}
	session := testcase.NewSession(id, fc, testcase.SessionOptions{
		Catalog:  h.Catalog,
		Builder:  h.Builder,
		Rules:    h.Rules,
		PageSize: h.Cfg.PageSizeLarge,
		OnSubmit: h.persist,
		Listener: h.logEvent(id),
	})
	h.Registry.Add(session)
	h.Metrics.SetFormsOpen(h.Registry.Len())

	events, _ := session.Load(c.Request.Context())

	customLog.WithFields(logrus.Fields{"form": id, "table": fc.Table.FullyQualifiedName, "edit": fc.InitialValue != nil}).
		Info("Handler: Opened test case form")
	c.JSON(http.StatusCreated, models.FormResponse{Form: session.State(), Events: nonNilEvents(events)})
}

// GetForm handles GET /api/v1/forms/:form_id.
func (h *FormHandler) GetForm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.FormResponse{Form: session.State(), Events: []testcase.Event{}})
}

// UpdateForm handles PATCH /api/v1/forms/:form_id.
func (h *FormHandler) UpdateForm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var patch testcase.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		_ = c.Error(bindingError(err))
		return
	}

	events, err := session.Apply(c.Request.Context(), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.FormResponse{Form: session.State(), Events: nonNilEvents(events)})
}

// ValidateForm handles POST /api/v1/forms/:form_id/validate.
func (h *FormHandler) ValidateForm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	errs, err := session.Validate(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.ValidationResponse{Valid: !errs.HasErrors(), Errors: errs})
}

// SubmitForm handles POST /api/v1/forms/:form_id/submit.
func (h *FormHandler) SubmitForm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var created *domain.TestCase
	ctx := context.WithValue(c.Request.Context(), createdSlotKey{}, &created)
	payload, err := session.Submit(ctx)
	if err != nil {
		var verr *testcase.ValidationError
		if errors.As(err, &verr) {
			h.Metrics.RecordFormOutcome(metrics.OutcomeInvalid)
			c.JSON(http.StatusUnprocessableEntity, models.ValidationResponse{Valid: false, Errors: verr.Fields})
			return
		}
		h.Metrics.RecordFormOutcome(metrics.OutcomeRejected)
		_ = c.Error(err)
		return
	}

	h.Registry.Remove(session.ID())
	h.Metrics.RecordFormOutcome(metrics.OutcomeSubmitted)
	h.Metrics.SetFormsOpen(h.Registry.Len())
	c.JSON(http.StatusCreated, models.SubmitResponse{Payload: payload, TestCase: created})
}

// CancelForm handles POST /api/v1/forms/:form_id/cancel.
func (h *FormHandler) CancelForm(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	payload, err := session.Cancel()
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.Registry.Remove(session.ID())
	h.Metrics.RecordFormOutcome(metrics.OutcomeCancelled)
	h.Metrics.SetFormsOpen(h.Registry.Len())
	c.JSON(http.StatusOK, models.CancelResponse{Payload: payload})
}

// CloseForm handles DELETE /api/v1/forms/:form_id.
func (h *FormHandler) CloseForm(c *gin.Context) {
	if !h.Registry.Remove(c.Param("form_id")) {
		_ = c.Error(testcase.ErrSessionNotFound)
		return
	}
	h.Metrics.SetFormsOpen(h.Registry.Len())
	c.Status(http.StatusNoContent)
}

// --- Helpers ---

func (h *FormHandler) session(c *gin.Context) (*testcase.Session, bool) {
	session, err := h.Registry.Get(c.Param("form_id"))
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return session, true
}

// persist is the OnSubmit callback of every form. The created record is handed
// back to SubmitForm through the request context.
func (h *FormHandler) persist(ctx context.Context, payload *domain.CreateTestCase) error {
	created, err := h.Sink.CreateTestCase(ctx, *payload)
	if err != nil {
		return err
	}
	if slot, ok := ctx.Value(createdSlotKey{}).(**domain.TestCase); ok {
		*slot = created
	}
	customLog.WithFields(logrus.Fields{"name": created.Name, "entityLink": created.EntityLink}).
		Info("Handler: Stored test case")
	return nil
}

func (h *FormHandler) logEvent(id string) testcase.Listener {
	return func(e testcase.Event) {
		entry := customLog.WithFields(logrus.Fields{"form": id, "event": e.Kind})
		switch e.Kind {
		case testcase.EventFetchFailed:
			entry.Warnf("Handler: %s", e.Message)
		case testcase.EventColumnSelected:
			entry.Debugf("Handler: Active column %s", e.ActiveColumnFQN)
		default:
			entry.Debug("Handler: Form event")
		}
	}
}

func nonNilEvents(events []testcase.Event) []testcase.Event {
	if events == nil {
		return []testcase.Event{}
	}
	return events
}
