package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetdash/internal/core"
	applog "budgetdash/internal/log"
	"budgetdash/internal/services"
)

// Result is what the assistant did: the chosen operation, its arguments and the service output.
type Result struct {
	Operation string          `json:"operation"`
	Arguments json.RawMessage `json:"arguments"`
	Result    any             `json:"result"`
}

var errMissingGroupID = errors.New("group id is required")

type groupTarget struct {
	GroupID  string     `json:"groupId"`
	Scope    string     `json:"scope"`
	FromDate *core.Date `json:"fromDate"`
}

func (g groupTarget) selector() (core.GroupSelector, error) {
	if g.GroupID == "" {
		return core.GroupSelector{}, core.NewValidationError("groupId", errMissingGroupID)
	}
	return core.NewGroupSelector(g.Scope, g.FromDate)
}

type recurringArgs struct {
	core.TransactionDraft
	Months int `json:"months"`
}

type updateGroupArgs struct {
	groupTarget
	Updates core.TransactionPatch `json:"updates"`
}

type listArgs struct {
	StartDate  *core.Date            `json:"startDate"`
	EndDate    *core.Date            `json:"endDate"`
	CategoryID *string               `json:"categoryId"`
	Type       *core.TransactionType `json:"type"`
	IsFixed    *bool                 `json:"isFixed"`
}

type summaryArgs struct {
	Date *core.Date `json:"date"`
}

// Dispatcher executes a ToolCall through the services.
type Dispatcher struct {
	svc *services.Services
	now func() time.Time
}

func NewDispatcher(svc *services.Services) *Dispatcher {
	return &Dispatcher{svc: svc, now: time.Now}
}

func (d *Dispatcher) today() core.Date {
	return core.DateOf(d.now())
}

// Execute runs call and returns the service result. Unknown tools and bad arguments are validation errors.
func (d *Dispatcher) Execute(ctx context.Context, call ToolCall) (any, error) {
	switch call.Name {
	case ToolCreateTransaction:
		var draft core.TransactionDraft
		if err := decodeArgs(call.Arguments, &draft); err != nil {
			return nil, err
		}
		if draft.Date.IsZero() {
			draft.Date = d.today()
		}
		return d.svc.Transactions.Create(ctx, draft)

	case ToolCreateRecurring:
		var args recurringArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		if args.Date.IsZero() {
			args.Date = d.today()
		}
		return d.svc.Transactions.CreateRecurring(ctx, args.TransactionDraft, args.Months)

	case ToolListTransactions:
		var args listArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		txs, err := d.svc.Transactions.List(ctx, core.TransactionFilter{
			StartDate:  args.StartDate,
			EndDate:    args.EndDate,
			CategoryID: args.CategoryID,
			Type:       args.Type,
			IsFixed:    args.IsFixed,
		})
		if err != nil {
			return nil, err
		}
		if txs == nil {
			txs = []core.Transaction{}
		}
		return txs, nil

	case ToolUpdateGroup:
		var args updateGroupArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		sel, err := args.selector()
		if err != nil {
			return nil, err
		}
		return d.svc.Transactions.UpdateGroup(ctx, args.GroupID, sel, args.Updates)

	case ToolDeleteGroup:
		var args groupTarget
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		sel, err := args.selector()
		if err != nil {
			return nil, err
		}
		n, err := d.svc.Transactions.DeleteGroup(ctx, args.GroupID, sel)
		if err != nil {
			return nil, err
		}
		return map[string]int{"deleted": n}, nil

	case ToolCreateCategory:
		var draft core.CategoryDraft
		if err := decodeArgs(call.Arguments, &draft); err != nil {
			return nil, err
		}
		return d.svc.Categories.Create(ctx, draft)

	case ToolListCategories:
		cats, err := d.svc.Categories.List(ctx)
		if err != nil {
			return nil, err
		}
		if cats == nil {
			cats = []core.Category{}
		}
		return cats, nil

	case ToolGetSettings:
		return d.svc.Settings.Get(ctx)

	case ToolGetSummary:
		var args summaryArgs
		if err := decodeArgs(call.Arguments, &args); err != nil {
			return nil, err
		}
		asOf := d.today()
		if args.Date != nil && !args.Date.IsZero() {
			asOf = *args.Date
		}
		return d.svc.Projections.Summary(ctx, asOf)
	}

	return nil, core.NewValidationError("operation", fmt.Errorf("%w: unknown tool %q", ErrNoOperation, call.Name))
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return core.NewValidationError("arguments", err)
	}
	return nil
}

// Assistant plans and executes one operation per request.
type Assistant struct {
	planner    Planner
	dispatcher *Dispatcher
}

func New(planner Planner, dispatcher *Dispatcher) *Assistant {
	return &Assistant{planner: planner, dispatcher: dispatcher}
}

// Handle plans text into an operation and runs it. A text that maps to no tool is a validation error.
func (a *Assistant) Handle(ctx context.Context, text string) (Result, error) {
	call, err := a.planner.Plan(ctx, text, a.dispatcher.today())
	if err != nil {
		if errors.Is(err, ErrNoOperation) {
			return Result{}, core.NewValidationError("text", err)
		}
		return Result{}, fmt.Errorf("plan intent: %w", err)
	}

	slog.InfoContext(ctx, "Assistant planned operation", applog.NewFields().
		WithComponent(applog.ComponentAssistant).
		WithOperation(call.Name).
		ToSlice()...)

	out, err := a.dispatcher.Execute(ctx, call)
	if err != nil {
		return Result{}, err
	}
	return Result{Operation: call.Name, Arguments: call.Arguments, Result: out}, nil
}
