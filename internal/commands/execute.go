package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add    func(AddArgs) (Result, error)
	Take   func(TakeArgs) (Result, error)
	Snooze func(SnoozeArgs) (Result, error)
	Show   func(ShowArgs) (Result, error)
	Clear  func(ClearArgs) (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "add handler not configured"}
		}
		return handlers.Add(*cmd.Add)
	case TypeTake:
		if handlers.Take == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "take handler not configured"}
		}
		return handlers.Take(*cmd.Take)
	case TypeSnooze:
		if handlers.Snooze == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "snooze handler not configured"}
		}
		return handlers.Snooze(*cmd.Snooze)
	case TypeShow:
		if handlers.Show == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "show handler not configured"}
		}
		return handlers.Show(*cmd.Show)
	case TypeClear:
		if handlers.Clear == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "clear handler not configured"}
		}
		return handlers.Clear(*cmd.Clear)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
