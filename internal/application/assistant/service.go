// Package assistant answers help questions. Known intents are answered from
// rules and live counts; anything else goes to an optional generative model.
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"go.uber.org/zap"
)

// Reply sources
const (
	SourceRules    = "rules"
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// MaxMessageLength bounds a single question
const MaxMessageLength = 500

const helpText = "I can help with your requests and assignments. Try \"my requests\", \"my assignments\", " +
	"\"how do I return an item\", \"how do I extend\" or \"is the <product> available\"."

// Responder produces a free-form reply for messages no rule understands
type Responder interface {
	Reply(ctx context.Context, message string) (string, error)
}

// AskInput is a question for the assistant
type AskInput struct {
	Message string `json:"message" binding:"required,max=500"`
}

// AskResponse is the assistant's answer
type AskResponse struct {
	Reply  string `json:"reply"`
	Intent string `json:"intent"`
	Source string `json:"source"`
}

// Service answers assistant questions
type Service struct {
	requests    workflow.RequestRepository
	assignments workflow.AssignmentRepository
	products    catalog.ProductRepository
	responder   Responder
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates a new assistant Service. responder may be nil.
func NewService(
	requests workflow.RequestRepository,
	assignments workflow.AssignmentRepository,
	products catalog.ProductRepository,
	responder Responder,
	logger *zap.Logger,
) *Service {
	return &Service{
		requests:    requests,
		assignments: assignments,
		products:    products,
		responder:   responder,
		logger:      logger,
		now:         time.Now,
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Ask answers one message for the actor
func (s *Service) Ask(ctx context.Context, actor shared.Actor, input AskInput) (*AskResponse, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, shared.NewValidationError("message cannot be empty")
	}
	if len(message) > MaxMessageLength {
		return nil, shared.NewValidationError("message cannot exceed %d characters", MaxMessageLength)
	}

	name := Match(message)
	if name != IntentUnknown {
		reply, err := s.answer(ctx, actor, name, message)
		if err != nil {
			return nil, err
		}
		return &AskResponse{Reply: reply, Intent: name, Source: SourceRules}, nil
	}

	if s.responder != nil {
		reply, err := s.responder.Reply(ctx, message)
		if err == nil && strings.TrimSpace(reply) != "" {
			return &AskResponse{Reply: strings.TrimSpace(reply), Intent: IntentUnknown, Source: SourceModel}, nil
		}
		if err != nil {
			s.logger.Warn("Assistant model reply failed", zap.Error(err))
		}
	}
	return &AskResponse{
		Reply:  "Sorry, I didn't understand that. " + helpText,
		Intent: IntentUnknown,
		Source: SourceFallback,
	}, nil
}

func (s *Service) answer(ctx context.Context, actor shared.Actor, name, message string) (string, error) {
	switch name {
	case IntentGreeting:
		return "Hello! " + helpText, nil
	case IntentHelp:
		return helpText, nil
	case IntentHowToRequest:
		return "Open the catalog, choose a product and press Request. Enter the quantity, purpose and the date " +
			"you expect to return it. A monitor reviews the request; stock is only taken when it is approved.", nil
	case IntentHowToReturn:
		return "Go to My Assignments and press Return on the item. A monitor confirms the return once the item " +
			"is handed back, and the units go back into stock.", nil
	case IntentHowToExtend:
		return "Go to My Assignments, choose the item and press Request Extension with the new return date. " +
			"The new date must be later than the current one, and a monitor has to approve it.", nil
	case IntentMyRequests:
		return s.myRequests(ctx, actor)
	case IntentMyAssignments:
		return s.myAssignments(ctx, actor)
	case IntentPendingApprovals:
		return s.pendingApprovals(ctx, actor)
	case IntentStockLookup:
		return s.stockLookup(ctx, message)
	}
	return helpText, nil
}

func (s *Service) myRequests(ctx context.Context, actor shared.Actor) (string, error) {
	if actor.EmployeeID == nil {
		return "Your account has no employee record, so it has no requests.", nil
	}
	counts := make(map[workflow.RequestStatus]int64, 3)
	for _, status := range []workflow.RequestStatus{workflow.RequestStatusPending, workflow.RequestStatusApproved, workflow.RequestStatusRejected} {
		filter := workflow.RequestFilter{Filter: shared.DefaultFilter(), EmployeeID: actor.EmployeeID, Status: status}
		filter.PageSize = 1
		_, total, err := s.requests.FindAll(ctx, filter)
		if err != nil {
			return "", err
		}
		counts[status] = total
	}
	if counts[workflow.RequestStatusPending]+counts[workflow.RequestStatusApproved]+counts[workflow.RequestStatusRejected] == 0 {
		return "You have not made any requests yet.", nil
	}
	return fmt.Sprintf("You have %d pending, %d approved and %d rejected request(s).",
		counts[workflow.RequestStatusPending], counts[workflow.RequestStatusApproved], counts[workflow.RequestStatusRejected]), nil
}

func (s *Service) myAssignments(ctx context.Context, actor shared.Actor) (string, error) {
	if actor.EmployeeID == nil {
		return "Your account has no employee record, so nothing is assigned to you.", nil
	}
	outstanding := true
	base := workflow.AssignmentFilter{Filter: shared.DefaultFilter(), EmployeeID: actor.EmployeeID, Outstanding: &outstanding}
	base.PageSize = 1
	_, total, err := s.assignments.FindAll(ctx, base)
	if err != nil {
		return "", err
	}
	if total == 0 {
		return "You have no items assigned to you right now.", nil
	}

	now := s.now()
	overdueFilter := base
	overdueFilter.DueBefore = &now
	_, overdue, err := s.assignments.FindAll(ctx, overdueFilter)
	if err != nil {
		return "", err
	}
	reply := fmt.Sprintf("You currently hold %d assignment(s).", total)
	if overdue > 0 {
		reply += fmt.Sprintf(" %d of them are overdue; please return them or request an extension.", overdue)
	}
	return reply, nil
}

func (s *Service) pendingApprovals(ctx context.Context, actor shared.Actor) (string, error) {
	if !actor.HasRole(shared.RoleMonitor, shared.RoleAdmin) {
		return "Only monitors and admins approve requests. " + helpText, nil
	}
	reqFilter := workflow.RequestFilter{Filter: shared.DefaultFilter(), Status: workflow.RequestStatusPending}
	reqFilter.PageSize = 1
	_, pending, err := s.requests.FindAll(ctx, reqFilter)
	if err != nil {
		return "", err
	}

	outstanding := true
	returns := workflow.AssignmentFilter{Filter: shared.DefaultFilter(), Outstanding: &outstanding, ReturnStatus: workflow.LifecycleRequested}
	returns.PageSize = 1
	_, pendingReturns, err := s.assignments.FindAll(ctx, returns)
	if err != nil {
		return "", err
	}
	extensions := workflow.AssignmentFilter{Filter: shared.DefaultFilter(), Outstanding: &outstanding, ExtensionStatus: workflow.LifecycleRequested}
	extensions.PageSize = 1
	_, pendingExtensions, err := s.assignments.FindAll(ctx, extensions)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Waiting for review: %d request(s), %d return(s) and %d extension(s).",
		pending, pendingReturns, pendingExtensions), nil
}

func (s *Service) stockLookup(ctx context.Context, message string) (string, error) {
	subject := stockQuery(message)
	if subject == "" {
		return "Which product do you mean? Ask like \"is the ThinkPad available\".", nil
	}
	filter := catalog.ProductFilter{Filter: shared.DefaultFilter()}
	filter.Search = subject
	filter.PageSize = 5
	products, total, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return "", err
	}
	if total == 0 && len(subject) > 3 && strings.HasSuffix(strings.ToLower(subject), "s") {
		filter.Search = subject[:len(subject)-1]
		if products, total, err = s.products.FindAll(ctx, filter); err != nil {
			return "", err
		}
	}
	if total == 0 {
		return fmt.Sprintf("I couldn't find a product matching %q.", subject), nil
	}
	parts := make([]string, len(products))
	for i, p := range products {
		parts[i] = fmt.Sprintf("%s: %d available", p.Name, p.Quantity)
	}
	reply := strings.Join(parts, "; ") + "."
	if total > int64(len(products)) {
		reply += fmt.Sprintf(" (%d more match)", total-int64(len(products)))
	}
	return reply, nil
}
