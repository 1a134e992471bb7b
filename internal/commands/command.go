package commands

import (
	"fmt"
	"strings"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeTake   Type = "take"
	TypeSnooze Type = "snooze"
	TypeShow   Type = "show"
	TypeClear  Type = "clear"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs carries the raw quick-add text; the entry form extracts name,
// dosage, and frequency from it.
type AddArgs struct {
	Text string
}

// TakeArgs and SnoozeArgs address a dose. An empty target means the dose in
// the active reminder prompt.
type TakeArgs struct {
	Target string
}

type SnoozeArgs struct {
	Target string
}

type ShowArgs struct {
	Subject string
}

type ClearArgs struct {
	Subject string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Take   *TakeArgs
	Snooze *SnoozeArgs
	Show   *ShowArgs
	Clear  *ClearArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeTake:
		return parseTake(input, args)
	case TypeSnooze:
		return parseSnooze(input, args)
	case TypeShow:
		return parseShow(input, args)
	case TypeClear:
		return parseClear(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a medication description"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Text: text}}, nil
}

func parseTake(raw string, args []string) (Command, error) {
	target := strings.TrimSpace(strings.Join(args, " "))
	return Command{Type: TypeTake, Raw: raw, Take: &TakeArgs{Target: target}}, nil
}

func parseSnooze(raw string, args []string) (Command, error) {
	target := strings.TrimSpace(strings.Join(args, " "))
	return Command{Type: TypeSnooze, Raw: raw, Snooze: &SnoozeArgs{Target: target}}, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a subject: today, meds, or history"}
	}
	subject := strings.ToLower(args[0])
	switch subject {
	case "today", "meds", "medications", "history":
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown subject: %s", subject)}
	}
	if subject == "medications" {
		subject = "meds"
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject}}, nil
}

func parseClear(raw string, args []string) (Command, error) {
	if len(args) == 0 || strings.ToLower(args[0]) != "history" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "clear supports only: clear history"}
	}
	return Command{Type: TypeClear, Raw: raw, Clear: &ClearArgs{Subject: "history"}}, nil
}
