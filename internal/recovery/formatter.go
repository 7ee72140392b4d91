// Package recovery implements RecoveryFormatter (spec.md 4.J): the
// structured JSON payload the pipeline returns on every blocked or failed
// tool call, with a per-error-kind table of suggested next actions.
package recovery

import (
	"strconv"

	"github.com/agentgate/agentgate/internal/models"
)

// Payload is the wire-stable shape returned to the host agent.
type Payload struct {
	Status   string     `json:"status"`
	Error    ErrorField `json:"error"`
	Recovery Advice     `json:"_recovery"`
}

// ErrorField mirrors models.HookError's wire shape.
type ErrorField struct {
	Type        models.ErrorType `json:"type"`
	Message     string           `json:"message"`
	Recoverable bool             `json:"recoverable"`
	Suggestion  string           `json:"suggestion,omitempty"`
	Details     any              `json:"details,omitempty"`
}

// Advice is the _recovery block: how the caller should proceed.
type Advice struct {
	Instruction      string   `json:"instruction"`
	Retry            bool     `json:"retry"`
	SuggestedActions []string `json:"suggested_actions"`
}

// suggestedActions is the required table from spec.md 4.J, keyed by
// error type. FILE_LOCKED's first action is templated with the queue
// position at format time.
var suggestedActions = map[models.ErrorType][]string{
	models.ErrIntentRequired: {
		"call select_intent with a valid id",
		"check the intent declaration store",
	},
	models.ErrScopeViolation: {
		"request scope expansion",
		"switch to an intent with broader scope",
		"restrict changes to allowed globs",
	},
	models.ErrDestructiveCommand: {
		"use a safer alternative",
		"split the operation",
		"obtain explicit user approval",
	},
	models.ErrStaleFile: {
		"re-read current content",
		"merge against the new version",
		"restart with a fresh snapshot",
	},
	models.ErrFileExcluded: {
		"remove from the exclusion rules",
		"choose a different target",
		"ask for approval",
	},
	models.ErrCommandExcluded: {
		"remove from the exclusion rules",
		"choose a different target",
		"ask for approval",
	},
	models.ErrHookError: {
		"retry",
		"report to maintainer",
	},
	models.ErrMissingIntent: {
		"consult the intent declaration store for valid ids",
		"call select_intent with a corrected id",
	},
}

// retryableKinds marks error kinds where simply retrying the same call
// (after the suggested wait/re-read) is the expected next step, as opposed
// to ones that need a different action (broader scope, approval, a
// different target) before a retry would succeed.
var retryableKinds = map[models.ErrorType]bool{
	models.ErrHookError:  true,
	models.ErrFileLocked: true,
	models.ErrStaleFile:  true,
}

// instructions gives each error kind a one-line human-facing instruction.
var instructions = map[models.ErrorType]string{
	models.ErrIntentRequired:      "declare an intent before mutating files",
	models.ErrScopeViolation:      "this path is outside the active intent's owned scope",
	models.ErrDestructiveCommand:  "this command was classified as destructive and was not approved",
	models.ErrStaleFile:           "the on-disk content changed since it was last read",
	models.ErrFileExcluded:        "this path is excluded from mutation",
	models.ErrCommandExcluded:     "this command is excluded from execution",
	models.ErrFileLocked:          "another session currently holds this file's lock",
	models.ErrMissingIntent:       "the intent id does not resolve in the intent declaration store",
	models.ErrHookError:           "an internal hook failure interrupted this call",
}

// Format builds the Payload for hookErr. queuePosition is only consulted
// for FILE_LOCKED and is otherwise ignored.
func Format(hookErr models.HookError, queuePosition int) Payload {
	actions := suggestedActions[hookErr.Type]
	switch {
	case hookErr.Type == models.ErrFileLocked:
		actions = []string{
			queuePositionAction(queuePosition),
			"back off and retry",
		}
	case hookErr.Type == models.ErrDestructiveCommand && hookErr.Suggestion != "":
		// The command classifier's per-pattern alternative (e.g.
		// "git push --force-with-lease") is more actionable than the
		// generic table entry, so it rides along as an extra action
		// rather than replacing the static list.
		actions = append(append([]string{}, actions...), "safer alternative: "+hookErr.Suggestion)
	}

	return Payload{
		Status: "error",
		Error: ErrorField{
			Type:    hookErr.Type,
			Message: hookErr.Message,
			// spec.md 7: every declared error kind is recoverable=true;
			// only conditions outside this closed taxonomy are not.
			Recoverable: true,
			Suggestion:  hookErr.Suggestion,
			Details:     hookErr.Details,
		},
		Recovery: Advice{
			Instruction:      instructions[hookErr.Type],
			Retry:            retryableKinds[hookErr.Type],
			SuggestedActions: actions,
		},
	}
}

func queuePositionAction(position int) string {
	return "wait for queue position " + strconv.Itoa(position)
}
