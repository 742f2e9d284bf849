package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/assetflow/backend/internal/domain/catalog"
	"github.com/assetflow/backend/internal/domain/identity"
	"github.com/assetflow/backend/internal/domain/shared"
	"github.com/assetflow/backend/internal/domain/workflow"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var title = cases.Title(language.English)

// subject renders an event type such as "return_approved" as "Return Approved"
func subject(eventType string) string {
	return title.String(strings.ReplaceAll(eventType, "_", " "))
}

// EventNotifier emails the people affected by a committed workflow or
// registration event.
type EventNotifier struct {
	notifier  Notifier
	directory *Directory
	products  catalog.ProductRepository
	logger    *zap.Logger
}

// NewEventNotifier creates a new EventNotifier
func NewEventNotifier(notifier Notifier, directory *Directory, products catalog.ProductRepository, logger *zap.Logger) *EventNotifier {
	return &EventNotifier{notifier: notifier, directory: directory, products: products, logger: logger}
}

// EventTypes returns the events that produce an email
func (h *EventNotifier) EventTypes() []string {
	return []string{
		workflow.EventRequestSubmitted,
		workflow.EventRequestApproved,
		workflow.EventRequestRejected,
		workflow.EventProductAssigned,
		workflow.EventReturnRequested,
		workflow.EventReturnApproved,
		workflow.EventReturnRejected,
		workflow.EventExtensionRequested,
		workflow.EventExtensionApproved,
		workflow.EventExtensionRejected,
		identity.EventRegistrationApproved,
		identity.EventRegistrationRejected,
	}
}

// Handle builds and sends the message for one event
func (h *EventNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	msg, err := h.compose(ctx, event)
	if err != nil {
		return err
	}
	if msg == nil || len(msg.To) == 0 {
		h.logger.Debug("No recipients for event", zap.String("event_type", event.EventType()))
		return nil
	}
	if err := h.notifier.Send(ctx, *msg); err != nil {
		return fmt.Errorf("send %s notification: %w", event.EventType(), err)
	}
	return nil
}

func (h *EventNotifier) compose(ctx context.Context, event shared.DomainEvent) (*Message, error) {
	switch e := event.(type) {
	case *workflow.RequestEvent:
		return h.requestMessage(ctx, e)
	case *workflow.AssignmentEvent:
		return h.assignmentMessage(ctx, e)
	case *identity.RegistrationEvent:
		return registrationMessage(e), nil
	}
	return nil, nil
}

func (h *EventNotifier) requestMessage(ctx context.Context, e *workflow.RequestEvent) (*Message, error) {
	employee, err := h.directory.Employee(ctx, e.EmployeeID)
	if err != nil {
		return nil, err
	}
	product := h.productName(ctx, e.ProductID)

	msg := &Message{Subject: subject(e.EventType()) + ": " + product}
	switch e.EventType() {
	case workflow.EventRequestSubmitted:
		if msg.To, err = h.directory.Responsible(ctx, employee.DepartmentID); err != nil {
			return nil, err
		}
		msg.Body = fmt.Sprintf("%s requested %d x %s. The request is waiting for your review.",
			employee.FullName, e.Quantity, product)
	case workflow.EventRequestApproved:
		msg.To = []string{employee.Email}
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour request for %d x %s was approved and the items are assigned to you.",
			employee.FullName, e.Quantity, product)
	case workflow.EventRequestRejected:
		msg.To = []string{employee.Email}
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour request for %d x %s was rejected.", employee.FullName, e.Quantity, product)
	default:
		return nil, nil
	}
	msg.Body += remarksLine(e.Remarks)
	return msg, nil
}

func (h *EventNotifier) assignmentMessage(ctx context.Context, e *workflow.AssignmentEvent) (*Message, error) {
	employee, err := h.directory.Employee(ctx, e.EmployeeID)
	if err != nil {
		return nil, err
	}
	product := h.productName(ctx, e.ProductID)
	msg := &Message{Subject: subject(e.EventType()) + ": " + product, To: []string{employee.Email}}

	switch e.EventType() {
	case workflow.EventProductAssigned:
		if e.RequestID != nil {
			// the request_approved message already covers it
			return nil, nil
		}
		msg.Body = fmt.Sprintf("Hello %s,\n\n%d x %s has been assigned to you.", employee.FullName, e.Quantity, product)
		if e.DueDate != nil {
			msg.Body += " Please return it by " + e.DueDate.Format("2006-01-02") + "."
		}
	case workflow.EventReturnApproved:
		msg.Body = fmt.Sprintf("Hello %s,\n\nThe return of %d x %s has been confirmed.", employee.FullName, e.Quantity, product)
	case workflow.EventReturnRejected:
		msg.Body = fmt.Sprintf("Hello %s,\n\nThe return of %s was not accepted. The item is still assigned to you.",
			employee.FullName, product)
	case workflow.EventExtensionApproved:
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour extension for %s was approved.", employee.FullName, product)
		if e.DueDate != nil {
			msg.Body += " The new due date is " + e.DueDate.Format("2006-01-02") + "."
		}
	case workflow.EventExtensionRejected:
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour extension for %s was rejected. The due date is unchanged.",
			employee.FullName, product)
	case workflow.EventReturnRequested, workflow.EventExtensionRequested:
		if msg.To, err = h.directory.Responsible(ctx, employee.DepartmentID); err != nil {
			return nil, err
		}
		action := "a return"
		if e.EventType() == workflow.EventExtensionRequested {
			action = "an extension"
		}
		msg.Body = fmt.Sprintf("%s asked for %s of %d x %s. It is waiting for your review.",
			employee.FullName, action, e.Quantity, product)
	default:
		return nil, nil
	}
	msg.Body += remarksLine(e.Remarks)
	return msg, nil
}

func registrationMessage(e *identity.RegistrationEvent) *Message {
	msg := &Message{Subject: subject(e.EventType()), To: []string{e.Email}}
	if e.EventType() == identity.EventRegistrationApproved {
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour account %q is ready. You can sign in now.", e.FullName, e.Username)
	} else {
		msg.Body = fmt.Sprintf("Hello %s,\n\nYour registration was not approved.", e.FullName)
	}
	msg.Body += remarksLine(e.Remarks)
	return msg
}

func (h *EventNotifier) productName(ctx context.Context, id uuid.UUID) string {
	p, err := h.products.FindByID(ctx, id)
	if err != nil {
		return "product " + id.String()
	}
	return p.Name
}

func remarksLine(remarks string) string {
	if strings.TrimSpace(remarks) == "" {
		return ""
	}
	return "\n\nRemarks: " + remarks
}
