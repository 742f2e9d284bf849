package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/assetflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Transition names used for metrics and logs
const (
	TransitionSubmit           = "submit"
	TransitionReactivate       = "reactivate"
	TransitionApprove          = "approve"
	TransitionReject           = "reject"
	TransitionAssign           = "assign"
	TransitionRequestReturn    = "request_return"
	TransitionProcessReturn    = "process_return"
	TransitionRequestExtension = "request_extension"
	TransitionProcessExtension = "process_extension"
)

// TransitionRecorder counts workflow transitions by outcome
type TransitionRecorder interface {
	RecordTransition(ctx context.Context, transition string, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordTransition(context.Context, string, error) {}

// Service implements the product lifecycle: request, approval, assignment,
// return and extension. Every mutation runs in one transaction; domain events
// are published only after commit.
type Service struct {
	scope       TransactionScope
	requests    workflow.RequestRepository
	assignments workflow.AssignmentRepository
	products    catalog.ProductRepository
	employees   identity.EmployeeRepository
	publisher   shared.EventPublisher
	metrics     TransitionRecorder
	now         func() time.Time
}

// NewService creates a new workflow Service
func NewService(
	scope TransactionScope,
	requests workflow.RequestRepository,
	assignments workflow.AssignmentRepository,
	products catalog.ProductRepository,
	employees identity.EmployeeRepository,
) *Service {
	return &Service{
		scope:       scope,
		requests:    requests,
		assignments: assignments,
		products:    products,
		employees:   employees,
		metrics:     noopRecorder{},
		now:         time.Now,
	}
}

// SetEventPublisher sets the publisher for post-commit side effects
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetTransitionRecorder sets the metrics recorder
func (s *Service) SetTransitionRecorder(recorder TransitionRecorder) {
	if recorder != nil {
		s.metrics = recorder
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) publish(ctx context.Context, aggregates ...shared.AggregateRoot) {
	if s.publisher == nil {
		shared.DrainEvents(aggregates...)
		return
	}
	_ = s.publisher.Publish(ctx, shared.DrainEvents(aggregates...)...)
}

func (s *Service) finish(ctx context.Context, transition string, err error, fields ...zap.Field) {
	s.metrics.RecordTransition(ctx, transition, err)
	log := logger.L(ctx).With(zap.String("transition", transition))
	if err != nil {
		log.Info("workflow transition refused", append(fields, zap.Error(err))...)
		return
	}
	log.Info("workflow transition committed", fields...)
}

// loadProduct resolves a product reference, reporting unknown or removed
// products as validation failures of the caller's input.
func loadProduct(ctx context.Context, products catalog.ProductRepository, id uuid.UUID) (*catalog.Product, error) {
	p, err := products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("product %s does not exist", id)
		}
		return nil, err
	}
	if !p.Active {
		return nil, shared.NewValidationError("product %s has been removed from the catalog", p.Name)
	}
	return p, nil
}

// requireActiveHolder resolves the employee that is about to receive stock and
// refuses when the linked account is deactivated. The user row stays locked
// until commit so a concurrent deactivation waits for the assignment to land.
func requireActiveHolder(ctx context.Context, repos TransactionalRepositories, employeeID uuid.UUID) error {
	emp, err := repos.Employees().FindByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("employee %s does not exist", employeeID)
		}
		return err
	}
	user, err := repos.Users().FindByIDForUpdate(ctx, emp.UserID)
	if err != nil {
		return err
	}
	if !user.Active {
		return shared.NewInvalidStateError("account %s is deactivated and cannot hold products", user.Username)
	}
	return nil
}

// moveStock applies a quantity change and records it in the ledger
func moveStock(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID, action catalog.StockAction, delta int, actorID uuid.UUID, ref uuid.UUID, note string) (int, error) {
	after, err := repos.Products().AdjustQuantity(ctx, productID, delta)
	if err != nil {
		return 0, err
	}
	entry, err := catalog.NewStockHistory(productID, action, delta, after, actorID, &ref, note)
	if err != nil {
		return 0, err
	}
	if err := repos.StockHistory().Append(ctx, entry); err != nil {
		return 0, err
	}
	return after, nil
}

// SubmitRequest files a pending request for the actor's employee record.
// Stock is not reserved.
func (s *Service) SubmitRequest(ctx context.Context, actor shared.Actor, input SubmitRequestInput) (resp *RequestResponse, err error) {
	defer func() { s.finish(ctx, TransitionSubmit, err, zap.String("product_id", input.ProductID.String())) }()

	employeeID, err := actor.RequireEmployee()
	if err != nil {
		return nil, err
	}

	var request *workflow.ProductRequest
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Employees().FindByID(ctx, employeeID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("user has no linked employee record")
			}
			return err
		}
		if _, err := loadProduct(ctx, repos.Products(), input.ProductID); err != nil {
			return err
		}
		r, err := workflow.NewProductRequest(employeeID, actor.UserID, input.ProductID, input.Quantity, input.Purpose, input.ReturnDate, s.now())
		if err != nil {
			return err
		}
		if err := repos.Requests().Create(ctx, r); err != nil {
			return err
		}
		request = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, request)
	out := ToRequestResponse(request)
	return &out, nil
}

// ReactivateRequest puts a rejected request back to pending
func (s *Service) ReactivateRequest(ctx context.Context, actor shared.Actor, requestID uuid.UUID) (resp *RequestResponse, err error) {
	defer func() { s.finish(ctx, TransitionReactivate, err, zap.String("request_id", requestID.String())) }()

	var request *workflow.ProductRequest
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.Requests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := r.Reactivate(actor, s.now()); err != nil {
			return err
		}
		if err := repos.Requests().Update(ctx, r); err != nil {
			return err
		}
		request = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, request)
	out := ToRequestResponse(request)
	return &out, nil
}

// ProcessRequest approves or rejects a pending request. Approval creates the
// assignment and decrements stock in the same transaction; if stock is short
// nothing is written.
func (s *Service) ProcessRequest(ctx context.Context, actor shared.Actor, requestID uuid.UUID, input DecisionInput) (resp *ProcessRequestResult, err error) {
	decision, err := workflow.ParseDecision(input.Action)
	if err != nil {
		return nil, err
	}
	transition := TransitionReject
	if decision == workflow.DecisionApproved {
		transition = TransitionApprove
	}
	defer func() { s.finish(ctx, transition, err, zap.String("request_id", requestID.String())) }()

	now := s.now()
	var (
		request    *workflow.ProductRequest
		assignment *workflow.Assignment
		remaining  int
	)
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		r, err := repos.Requests().FindByID(ctx, requestID)
		if err != nil {
			return err
		}
		if err := r.Process(decision, actor, input.Remarks, now); err != nil {
			return err
		}
		// Lock the holder's account before writing the request row, the same
		// order deactivation takes them in.
		if decision == workflow.DecisionApproved {
			if err := requireActiveHolder(ctx, repos, r.EmployeeID); err != nil {
				return err
			}
		}
		if err := repos.Requests().Update(ctx, r); err != nil {
			return err
		}
		request = r

		if decision != workflow.DecisionApproved {
			return nil
		}

		if _, err := loadProduct(ctx, repos.Products(), r.ProductID); err != nil {
			return err
		}
		a, err := workflow.NewAssignment(r.ProductID, r.EmployeeID, actor, &r.ID, r.Quantity, r.ReturnDate, now)
		if err != nil {
			return err
		}
		remaining, err = moveStock(ctx, repos, r.ProductID, catalog.StockActionAssign, -r.Quantity, actor.UserID, a.ID, "approved request "+r.ID.String())
		if err != nil {
			return err
		}
		if err := repos.Assignments().Create(ctx, a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &ProcessRequestResult{Request: ToRequestResponse(request)}
	if assignment == nil {
		s.publish(ctx, request)
	} else {
		s.publish(ctx, request, assignment)
		a := ToAssignmentResponse(assignment, now)
		out.Assignment = &a
		out.Remaining = &remaining
	}
	return out, nil
}

// AssignDirect hands a product to an employee without a request
func (s *Service) AssignDirect(ctx context.Context, actor shared.Actor, input AssignInput) (resp *AssignmentResponse, err error) {
	defer func() {
		s.finish(ctx, TransitionAssign, err,
			zap.String("product_id", input.ProductID.String()),
			zap.String("employee_id", input.EmployeeID.String()))
	}()

	if err := actor.RequireRole(shared.RoleMonitor, shared.RoleAdmin); err != nil {
		return nil, err
	}
	now := s.now()
	if err := workflow.ValidateDueDate(input.DueDate, now); err != nil {
		return nil, err
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	var assignment *workflow.Assignment
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := requireActiveHolder(ctx, repos, input.EmployeeID); err != nil {
			return err
		}
		if _, err := loadProduct(ctx, repos.Products(), input.ProductID); err != nil {
			return err
		}
		a, err := workflow.NewAssignment(input.ProductID, input.EmployeeID, actor, nil, quantity, input.DueDate, now)
		if err != nil {
			return err
		}
		if _, err := moveStock(ctx, repos, input.ProductID, catalog.StockActionAssign, -quantity, actor.UserID, a.ID, "direct assignment"); err != nil {
			return err
		}
		if err := repos.Assignments().Create(ctx, a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, assignment)
	out := ToAssignmentResponse(assignment, now)
	return &out, nil
}

// RequestReturn starts the two-phase return of an assignment
func (s *Service) RequestReturn(ctx context.Context, actor shared.Actor, assignmentID uuid.UUID, input ReturnInput) (resp *AssignmentResponse, err error) {
	defer func() {
		s.finish(ctx, TransitionRequestReturn, err, zap.String("assignment_id", assignmentID.String()))
	}()

	return s.mutateAssignment(ctx, assignmentID, func(_ TransactionalRepositories, a *workflow.Assignment, now time.Time) error {
		return a.RequestReturn(actor, input.Remarks, now)
	})
}

// ProcessReturn approves a pending return, restoring stock, or rejects it
func (s *Service) ProcessReturn(ctx context.Context, actor shared.Actor, assignmentID uuid.UUID, input DecisionInput) (resp *AssignmentResponse, err error) {
	defer func() {
		s.finish(ctx, TransitionProcessReturn, err, zap.String("assignment_id", assignmentID.String()))
	}()

	decision, err := workflow.ParseDecision(input.Action)
	if err != nil {
		return nil, err
	}
	return s.mutateAssignment(ctx, assignmentID, func(repos TransactionalRepositories, a *workflow.Assignment, now time.Time) error {
		if err := a.ProcessReturn(decision, actor, input.Remarks, now); err != nil {
			return err
		}
		if decision != workflow.DecisionApproved {
			return nil
		}
		_, err := moveStock(ctx, repos, a.ProductID, catalog.StockActionReturn, a.Quantity, actor.UserID, a.ID, "return approved")
		return err
	})
}

// RequestExtension asks for a later due date
func (s *Service) RequestExtension(ctx context.Context, actor shared.Actor, assignmentID uuid.UUID, input ExtensionInput) (resp *AssignmentResponse, err error) {
	defer func() {
		s.finish(ctx, TransitionRequestExtension, err, zap.String("assignment_id", assignmentID.String()))
	}()

	return s.mutateAssignment(ctx, assignmentID, func(_ TransactionalRepositories, a *workflow.Assignment, now time.Time) error {
		return a.RequestExtension(actor, input.NewReturnDate, input.Reason, now)
	})
}

// ProcessExtension approves or rejects a pending extension
func (s *Service) ProcessExtension(ctx context.Context, actor shared.Actor, assignmentID uuid.UUID, input DecisionInput) (resp *AssignmentResponse, err error) {
	defer func() {
		s.finish(ctx, TransitionProcessExtension, err, zap.String("assignment_id", assignmentID.String()))
	}()

	decision, err := workflow.ParseDecision(input.Action)
	if err != nil {
		return nil, err
	}
	return s.mutateAssignment(ctx, assignmentID, func(_ TransactionalRepositories, a *workflow.Assignment, now time.Time) error {
		return a.ProcessExtension(decision, actor, input.Remarks, now)
	})
}

// mutateAssignment loads, transitions and saves an assignment in one transaction
func (s *Service) mutateAssignment(ctx context.Context, id uuid.UUID, fn func(repos TransactionalRepositories, a *workflow.Assignment, now time.Time) error) (*AssignmentResponse, error) {
	now := s.now()
	var assignment *workflow.Assignment
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := repos.Assignments().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(repos, a, now); err != nil {
			return err
		}
		if err := repos.Assignments().Update(ctx, a); err != nil {
			return err
		}
		assignment = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, assignment)
	out := ToAssignmentResponse(assignment, now)
	return &out, nil
}

// CheckClearance counts the unreturned assignments of a user
func (s *Service) CheckClearance(ctx context.Context, userID uuid.UUID) (*ClearanceResponse, error) {
	count, err := workflow.CountOutstandingForUser(ctx, s.employees, s.assignments, userID)
	if err != nil {
		return nil, err
	}
	return &ClearanceResponse{UserID: userID, Outstanding: count, Cleared: count == 0}, nil
}
