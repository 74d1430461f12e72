// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code to
// support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Database Errors (DB001-DB004)
//
//	DB001 - Connection refused: Unable to connect to database
//	DB002 - Connection reset: Database connection was interrupted
//	DB003 - Timeout: Operation timed out
//	DB004 - Duplicate key: A record with this ID already exists
//
// # Validation Errors (VAL001-VAL003)
//
//	VAL001 - Invalid entity identifier
//	VAL002 - Invalid reference period
//	VAL003 - Invalid base currency
//
// # Filing Errors (FIL001-FIL002)
//
//	FIL001 - Filing not found
//	FIL002 - Unknown template
//
// # Export Errors (EXP001-EXP005)
//
//	EXP001 - Export cancelled
//	EXP002 - System busy: too many concurrent exports
//	EXP003 - Export session not found
//	EXP004 - Request cancelled
//	EXP005 - Request timed out
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check application logs for the original error
//
// Error patterns are matched case-insensitively using strings.Contains. The
// first matching pattern wins, so more specific patterns come before general
// ones.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Order matters: specific patterns before general ones.
var errorPatterns = []errorPattern{
	// Database errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Refresh the filing list and retry",
			Code:    "DB004",
		},
	},

	// Parameter validation errors
	{
		pattern: "entityid",
		msg: UserMessage{
			Message: "The entity identifier is not valid",
			Action:  "Use rs: followed by the 20-character legal identifier",
			Code:    "VAL001",
		},
	},
	{
		pattern: "refperiod",
		msg: UserMessage{
			Message: "The reference period is not valid",
			Action:  "Use the YYYY-MM-DD date format",
			Code:    "VAL002",
		},
	},
	{
		pattern: "basecurrency",
		msg: UserMessage{
			Message: "The base currency is not valid",
			Action:  "Use iso4217: followed by the currency code",
			Code:    "VAL003",
		},
	},

	// Filing errors
	{
		pattern: "filing not found",
		msg: UserMessage{
			Message: "Filing not found",
			Action:  "Verify the filing ID is correct",
			Code:    "FIL001",
		},
	},
	{
		pattern: "unknown template",
		msg: UserMessage{
			Message: "Unknown report template",
			Action:  "Use one of the 15 registered template identifiers",
			Code:    "FIL002",
		},
	},

	// Export errors
	{
		pattern: "export cancelled",
		msg: UserMessage{
			Message: "Export was cancelled",
			Action:  "Start a new export when ready",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "System is busy processing other exports",
			Action:  "Please wait a moment and try again",
			Code:    "EXP002",
		},
	},
	{
		pattern: "export not found",
		msg: UserMessage{
			Message: "Export session not found",
			Action:  "The export may have expired. Please start a new export",
			Code:    "EXP003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "EXP004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again or check your connection",
			Code:    "EXP005",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be
// shown to users as-is. Returns false for the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}
