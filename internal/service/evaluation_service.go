package service

import (
	"context"
	"errors"
	"istas_backend/internal/repository"
	"istas_backend/internal/scoring"
	"istas_backend/internal/session"
	"istas_backend/internal/util"
	"istas_backend/pkg/logger"
	"istas_backend/pkg/messaging"
	"istas_backend/pkg/monitoring"
	"istas_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SessionCache persists session snapshots between requests.
type SessionCache interface {
	Get(ctx context.Context, tenantID string, userID uint) (*session.Snapshot, error)
	Put(ctx context.Context, tenantID string, userID uint, snap session.Snapshot) error
	Delete(ctx context.Context, tenantID string, userID uint) error
}

// FormProvider resolves form definitions for sessions.
type FormProvider interface {
	GetForm(ctx context.Context, id uint) (*session.Form, error)
}

// EvaluationService runs one evaluation session per user. Every call
// restores the user's session from the cache, applies one transition and
// writes the session back.
type EvaluationService struct {
	Forms     FormProvider
	Companies *repository.CompanyRepository
	Cache     SessionCache
	Events    messaging.Publisher

	store session.Store
}

func NewEvaluationService(
	forms FormProvider,
	evaluations *repository.EvaluationRepository,
	companies *repository.CompanyRepository,
	cache SessionCache,
	events messaging.Publisher,
) *EvaluationService {
	if events == nil {
		events = messaging.NoopPublisher{}
	}
	return &EvaluationService{
		Forms:     forms,
		Companies: companies,
		Cache:     cache,
		Events:    events,
		store:     newEvaluationStore(evaluations),
	}
}

func (s *EvaluationService) load(ctx context.Context, sc session.Context) (*session.Session, error) {
	snap, err := s.Cache.Get(ctx, sc.TenantID, sc.UserID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return session.New(sc, s.store), nil
	}

	var form *session.Form
	if snap.FormID != 0 {
		form, err = s.Forms.GetForm(ctx, snap.FormID)
		if err != nil && !errors.Is(err, util.ErrNotFound) {
			return nil, err
		}
	}
	sess, err := session.Restore(sc, s.store, form, *snap)
	if err != nil {
		// a stale snapshot is not worth failing the request for
		logger.Log.Warn("Discarding session snapshot",
			zap.String("tenant", sc.TenantID),
			zap.Uint("userId", sc.UserID),
			zap.Error(err),
		)
		return session.New(sc, s.store), nil
	}
	return sess, nil
}

func (s *EvaluationService) persist(ctx context.Context, sess *session.Session) error {
	sc := sess.Context()
	return s.Cache.Put(ctx, sc.TenantID, sc.UserID, sess.Snapshot())
}

// apply runs fn against the user's session and stores the result. When fn
// fails the session is left as it was.
func (s *EvaluationService) apply(ctx context.Context, sc session.Context, fn func(*session.Session) error) (*session.View, error) {
	sess, err := s.load(ctx, sc)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	v := sess.View()
	return &v, nil
}

func (s *EvaluationService) Current(ctx context.Context, sc session.Context) (*session.View, error) {
	sess, err := s.load(ctx, sc)
	if err != nil {
		return nil, err
	}
	v := sess.View()
	return &v, nil
}

func (s *EvaluationService) requireEmployee(ctx context.Context, sc session.Context, employeeID uint) error {
	if employeeID == 0 {
		return session.ErrMissingEmployee
	}
	_, err := s.Companies.FindEmployee(ctx, sc.TenantID, employeeID)
	if repository.IsNotFound(err) {
		return util.ErrNotFound
	}
	return err
}

// Start selects the employee and, when formID is set, the form. Any unsaved
// answers of the previous selection are dropped.
func (s *EvaluationService) Start(ctx context.Context, sc session.Context, employeeID, formID uint) (*session.View, error) {
	if err := s.requireEmployee(ctx, sc, employeeID); err != nil {
		return nil, err
	}
	var form *session.Form
	if formID != 0 {
		var err error
		if form, err = s.Forms.GetForm(ctx, formID); err != nil {
			return nil, err
		}
	}

	sess := session.New(sc, s.store)
	if err := sess.SelectEmployee(employeeID); err != nil {
		return nil, err
	}
	if form != nil {
		if err := sess.SelectForm(form); err != nil {
			return nil, err
		}
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	v := sess.View()
	return &v, nil
}

func (s *EvaluationService) SelectForm(ctx context.Context, sc session.Context, formID uint) (*session.View, error) {
	form, err := s.Forms.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.SelectForm(form)
	})
}

func (s *EvaluationService) Answer(ctx context.Context, sc session.Context, questionID uint, r scoring.Response) (*session.View, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.AnswerQuestion(questionID, r)
	})
}

func (s *EvaluationService) SetObservation(ctx context.Context, sc session.Context, questionID uint, text string) (*session.View, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.SetObservation(questionID, text)
	})
}

func (s *EvaluationService) SetOptions(ctx context.Context, sc session.Context, questionID uint, options []string) (*session.View, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.SetOptions(questionID, options)
	})
}

func (s *EvaluationService) SetNotes(ctx context.Context, sc session.Context, notes string) (*session.View, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.SetNotes(notes)
	})
}

func (s *EvaluationService) GoToSection(ctx context.Context, sc session.Context, sectionID uint) (*session.View, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.GoToSection(sectionID)
	})
}

func (s *EvaluationService) NextSection(ctx context.Context, sc session.Context) (*session.View, error) {
	return s.apply(ctx, sc, (*session.Session).NextSection)
}

func (s *EvaluationService) PreviousSection(ctx context.Context, sc session.Context) (*session.View, error) {
	return s.apply(ctx, sc, (*session.Session).PreviousSection)
}

func saveOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}

// persistAfterSave writes the snapshot once the evaluation itself is stored.
// The database is authoritative at that point, so a cache failure is logged
// rather than reported. The previous snapshot still carries the old
// evaluation id and version, so it is dropped; restoring it would insert a
// second record on the next save.
func (s *EvaluationService) persistAfterSave(ctx context.Context, sess *session.Session) {
	err := s.persist(ctx, sess)
	if err == nil {
		return
	}
	sc := sess.Context()
	logger.Log.Error("Failed to store session snapshot after save",
		zap.String("tenant", sc.TenantID),
		zap.Uint("userId", sc.UserID),
		zap.Error(err),
	)
	if err := s.Cache.Delete(ctx, sc.TenantID, sc.UserID); err != nil {
		logger.Log.Error("Failed to drop stale session snapshot",
			zap.String("tenant", sc.TenantID),
			zap.Uint("userId", sc.UserID),
			zap.Error(err),
		)
	}
}

func (s *EvaluationService) Save(ctx context.Context, sc session.Context) (*session.View, error) {
	ctx, span := tracing.StartSpan(ctx, "evaluation.save", attribute.String("tenant", sc.TenantID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	sess, err := s.load(ctx, sc)
	if err != nil {
		return nil, err
	}
	saved, err := sess.SaveProgress(ctx)
	if !errors.Is(err, session.ErrInvalidTransition) {
		monitoring.ObserveSave(saveOutcome(err))
	}
	if err != nil {
		s.logStoreError("save", sc, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("evaluation.id", saved.ID), attribute.Int("evaluation.version", saved.Version))

	s.persistAfterSave(ctx, sess)
	v := sess.View()
	return &v, nil
}

func (s *EvaluationService) Complete(ctx context.Context, sc session.Context) (*session.View, error) {
	ctx, span := tracing.StartSpan(ctx, "evaluation.complete", attribute.String("tenant", sc.TenantID))
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	sess, err := s.load(ctx, sc)
	if err != nil {
		return nil, err
	}
	saved, err := sess.CompleteEvaluation(ctx)
	var incomplete *session.IncompleteSubmissionError
	switch {
	case errors.As(err, &incomplete):
		monitoring.EvaluationsRejected.Inc()
		return nil, err
	case errors.Is(err, session.ErrInvalidTransition):
		return nil, err
	}
	monitoring.ObserveSave(saveOutcome(err))
	if err != nil {
		s.logStoreError("complete", sc, err)
		return nil, err
	}

	monitoring.EvaluationsCompleted.WithLabelValues(string(saved.Result.RiskLevel)).Inc()
	span.SetAttributes(
		attribute.String("evaluation.id", saved.ID),
		attribute.String("evaluation.risk_level", string(saved.Result.RiskLevel)),
	)
	logger.Log.Info("Evaluation completed",
		zap.String("tenant", sc.TenantID),
		zap.String("evaluationId", saved.ID),
		zap.Uint("employeeId", saved.EmployeeID),
		zap.String("riskLevel", string(saved.Result.RiskLevel)),
	)
	s.publishCompleted(ctx, sc, saved)

	s.persistAfterSave(ctx, sess)
	v := sess.View()
	return &v, nil
}

func (s *EvaluationService) publishCompleted(ctx context.Context, sc session.Context, ev session.Evaluation) {
	event := messaging.EvaluationCompleted{
		EvaluationID: ev.ID,
		TenantID:     sc.TenantID,
		EmployeeID:   ev.EmployeeID,
		FormID:       ev.FormID,
		TotalYes:     ev.Result.TotalYes,
		TotalNo:      ev.Result.TotalNo,
		PercentYes:   ev.Result.PercentYes,
		RiskLevel:    string(ev.Result.RiskLevel),
		CompletedBy:  sc.UserID,
		CompletedAt:  ev.UpdatedAt,
	}
	if event.CompletedAt.IsZero() {
		event.CompletedAt = time.Now()
	}
	// the evaluation is already stored; a lost event is only logged
	if err := s.Events.Publish(ctx, messaging.RoutingEvaluationCompleted, event); err != nil {
		logger.Log.Warn("Failed to publish evaluation.completed",
			zap.String("evaluationId", ev.ID),
			zap.Error(err),
		)
	}
}

func (s *EvaluationService) logStoreError(op string, sc session.Context, err error) {
	if errors.Is(err, repository.ErrVersionConflict) {
		logger.Log.Warn("Evaluation version conflict",
			zap.String("op", op),
			zap.String("tenant", sc.TenantID),
			zap.Uint("userId", sc.UserID),
		)
		return
	}
	logger.Log.Error("Failed to persist evaluation",
		zap.String("op", op),
		zap.String("tenant", sc.TenantID),
		zap.Uint("userId", sc.UserID),
		zap.Error(err),
	)
}

func (s *EvaluationService) StartNew(ctx context.Context, sc session.Context) (*session.View, error) {
	return s.apply(ctx, sc, (*session.Session).StartNewEvaluation)
}

func (s *EvaluationService) ExitResults(ctx context.Context, sc session.Context) (*session.View, error) {
	return s.apply(ctx, sc, (*session.Session).ExitResults)
}

// OpenHistory switches the session to the employee's history for formID.
// formID 0 keeps the form already selected.
func (s *EvaluationService) OpenHistory(ctx context.Context, sc session.Context, employeeID, formID uint) (*session.View, error) {
	if err := s.requireEmployee(ctx, sc, employeeID); err != nil {
		return nil, err
	}
	var form *session.Form
	if formID != 0 {
		var err error
		if form, err = s.Forms.GetForm(ctx, formID); err != nil {
			return nil, err
		}
	}

	sess, err := s.load(ctx, sc)
	if err != nil {
		return nil, err
	}
	if sess.EmployeeID() != employeeID {
		if err := sess.SelectEmployee(employeeID); err != nil {
			return nil, err
		}
	}
	if form != nil && (sess.Form() == nil || sess.Form().ID != form.ID) {
		if err := sess.SelectForm(form); err != nil {
			return nil, err
		}
	}
	if sess.Form() == nil {
		return nil, session.ErrNoForm
	}
	if _, err := sess.OpenHistory(ctx); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	v := sess.View()
	return &v, nil
}

func (s *EvaluationService) ViewEvaluation(ctx context.Context, sc session.Context, evaluationID string) (*session.View, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.ViewEvaluation(evaluationID)
	})
}

func (s *EvaluationService) ReopenEvaluation(ctx context.Context, sc session.Context, evaluationID string) (*session.View, error) {
	return s.apply(ctx, sc, func(sess *session.Session) error {
		return sess.ReopenForEdit(evaluationID)
	})
}

// DeleteEvaluation removes a stored evaluation. When the caller's session
// shows that evaluation in its history, the session is updated as well.
func (s *EvaluationService) DeleteEvaluation(ctx context.Context, sc session.Context, evaluationID string) error {
	sess, err := s.load(ctx, sc)
	if err != nil {
		return err
	}

	inHistory := false
	if sess.State() == session.StateHistoryView {
		for _, ev := range sess.History() {
			if ev.ID == evaluationID {
				inHistory = true
				break
			}
		}
	}

	if inHistory {
		err = sess.DeleteEvaluation(ctx, evaluationID)
	} else {
		err = s.store.DeleteEvaluation(ctx, sc, evaluationID)
	}
	if repository.IsNotFound(err) {
		return util.ErrNotFound
	}
	if err != nil {
		return err
	}

	logger.Log.Info("Evaluation deleted",
		zap.String("tenant", sc.TenantID),
		zap.String("evaluationId", evaluationID),
		zap.Uint("by", sc.UserID),
	)
	if inHistory {
		return s.persist(ctx, sess)
	}
	return nil
}

// Reset drops the user's session.
func (s *EvaluationService) Reset(ctx context.Context, sc session.Context) error {
	return s.Cache.Delete(ctx, sc.TenantID, sc.UserID)
}
