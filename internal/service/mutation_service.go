package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/trust-erp-api/internal/models"
	"github.com/noah-isme/trust-erp-api/internal/policy"
	"github.com/noah-isme/trust-erp-api/internal/validation"
	"github.com/noah-isme/trust-erp-api/pkg/database"
	appErrors "github.com/noah-isme/trust-erp-api/pkg/errors"
	"github.com/noah-isme/trust-erp-api/pkg/middleware/requestid"
)

// Mutation outcomes reported to metrics.
const (
	OutcomeCommitted = "committed"
	OutcomeDenied    = "denied"
	OutcomeInvalid   = "invalid"
	OutcomeRejected  = "rejected"
	OutcomeTimeout   = "timeout"
	OutcomeFailed    = "failed"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultBulkTimeout    = 30 * time.Second
	invalidPayloadMessage = "invalid request payload"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type auditWriter interface {
	Create(ctx context.Context, q sqlx.ExtContext, entry *models.AuditLog) error
}

type mutationObserver interface {
	ObserveMutation(action, outcome string, duration time.Duration)
}

// MutationBody performs the writes of a mutation inside tx and returns the audit target id,
// or "" when the mutation has no single target.
type MutationBody func(ctx context.Context, tx *sqlx.Tx) (targetID string, err error)

// Mutation describes one audited state change.
type Mutation struct {
	Actor  models.Actor
	Action policy.Action
	// AuditAction is the action type written to the audit log.
	AuditAction string
	// Input is validated once the actor's role is allow-listed, when non-nil.
	Input interface{}
	// Resolve loads resource facts for scoped rules. It only runs for allow-listed roles with valid input.
	Resolve func(ctx context.Context) (policy.Resource, error)
	// Bulk selects the longer transaction timeout.
	Bulk bool
}

// MutationService runs state changes as authorize, validate, write, audit, commit.
// Any failure rolls the whole transaction back and no audit entry survives it.
type MutationService struct {
	db          txProvider
	audit       auditWriter
	validator   *validator.Validate
	metrics     mutationObserver
	logger      *zap.Logger
	timeout     time.Duration
	bulkTimeout time.Duration
}

// MutationServiceOption configures the service.
type MutationServiceOption func(*MutationService)

// WithMutationTimeouts overrides the transaction deadlines.
func WithMutationTimeouts(timeout, bulk time.Duration) MutationServiceOption {
	return func(s *MutationService) {
		if timeout > 0 {
			s.timeout = timeout
		}
		if bulk > 0 {
			s.bulkTimeout = bulk
		}
	}
}

// WithMutationMetrics reports outcomes to observer.
func WithMutationMetrics(observer mutationObserver) MutationServiceOption {
	return func(s *MutationService) {
		s.metrics = observer
	}
}

// NewMutationService constructs the orchestrator.
func NewMutationService(db txProvider, audit auditWriter, validate *validator.Validate, logger *zap.Logger, opts ...MutationServiceOption) *MutationService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MutationService{
		db:          db,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		timeout:     defaultTimeout,
		bulkTimeout: defaultBulkTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize runs the policy check for actor without touching storage.
func Authorize(actor models.Actor, action policy.Action, res policy.Resource) error {
	decision := policy.Authorize(actor, action, res)
	if decision.Allowed {
		return nil
	}
	return appErrors.Clone(appErrors.ErrUnauthorized, decision.Reason)
}

// Run executes m with body. On success exactly one audit entry is committed with the writes.
func (s *MutationService) Run(ctx context.Context, m Mutation, body MutationBody) (err error) {
	start := time.Now()
	defer func() {
		s.observe(ctx, m, err, time.Since(start))
	}()

	if !m.Actor.Active || !policy.Permits(m.Actor.Role, m.Action) {
		return Authorize(m.Actor, m.Action, policy.Resource{})
	}
	if m.Input != nil {
		if err = validation.Struct(s.validator, m.Input, invalidPayloadMessage); err != nil {
			return err
		}
	}
	// Scoped predicates need well-formed identifiers, so they are resolved after validation.
	var res policy.Resource
	if m.Resolve != nil {
		if res, err = m.Resolve(ctx); err != nil {
			return s.classify(ctx, err, "failed to resolve resource")
		}
	}
	if err = Authorize(m.Actor, m.Action, res); err != nil {
		return err
	}
	if s.db == nil || s.audit == nil {
		return appErrors.Clone(appErrors.ErrInternal, "mutation storage unavailable")
	}

	timeout := s.timeout
	if m.Bulk {
		timeout = s.bulkTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.classify(ctx, err, "failed to begin transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	targetID, err := body(ctx, tx)
	if err != nil {
		return s.classify(ctx, err, "failed to apply "+m.Action.String())
	}

	entry := &models.AuditLog{ActorID: m.Actor.ID, ActionType: m.AuditAction}
	if targetID != "" {
		entry.TargetID = &targetID
	}
	if err = s.audit.Create(ctx, tx, entry); err != nil {
		return s.classify(ctx, err, "failed to record audit log")
	}
	if err = tx.Commit(); err != nil {
		return s.classify(ctx, err, "failed to commit transaction")
	}
	committed = true
	return nil
}

// classify maps a failure inside the mutation onto a failure kind.
func (s *MutationService) classify(ctx context.Context, err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case database.IsUniqueViolation(err):
		e := appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, appErrors.ErrDuplicate.Message)
		if name := database.ConstraintName(err); name != "" {
			e.Fields = map[string]string{"constraint": name}
		}
		return e
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || database.IsRetryable(err):
		e := appErrors.Wrap(err, appErrors.ErrTimeout.Code, appErrors.ErrTimeout.Status, appErrors.ErrTimeout.Message)
		e.Retryable = true
		return e
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, appErrors.ErrNotFound.Message)
	default:
		return appErrors.Internal(err, message)
	}
}

func (s *MutationService) observe(ctx context.Context, m Mutation, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("action", m.Action.String()),
		zap.String("actor_id", m.Actor.ID),
		zap.Duration("duration", elapsed),
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}

	outcome := OutcomeCommitted
	switch {
	case err == nil:
		s.logger.Info("mutation committed", append(fields, zap.String("audit_action", m.AuditAction))...)
	case appErrors.IsKind(err, appErrors.ErrInternal):
		outcome = OutcomeFailed
		s.logger.Error("mutation failed", append(fields, zap.Error(err))...)
	default:
		outcome = outcomeFor(err)
		s.logger.Debug("mutation rejected", append(fields, zap.Error(err))...)
	}
	if s.metrics != nil {
		s.metrics.ObserveMutation(m.Action.String(), outcome, elapsed)
	}
}

func outcomeFor(err error) string {
	switch {
	case appErrors.IsKind(err, appErrors.ErrUnauthorized):
		return OutcomeDenied
	case appErrors.IsKind(err, appErrors.ErrValidation):
		return OutcomeInvalid
	case appErrors.IsKind(err, appErrors.ErrTimeout):
		return OutcomeTimeout
	default:
		return OutcomeRejected
	}
}
