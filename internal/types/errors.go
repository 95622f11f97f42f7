package types

import "fmt"

// AuthError signals the Hub rejected authentication. The run ends with
// Error when this occurs.
type AuthError struct {
	Cause error
}

func (e *AuthError) Error() string { return fmt.Sprintf("hub authentication failed: %v", e.Cause) }
func (e *AuthError) Unwrap() error { return e.Cause }

// ConnectivityError signals the Tracker permissions probe failed or
// returned an empty result. The run ends with Error when this occurs.
type ConnectivityError struct {
	Cause error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("tracker connectivity probe failed: %v", e.Cause)
}
func (e *ConnectivityError) Unwrap() error { return e.Cause }

// ProjectConnectError signals the Hub refused to connect to one project
// pair. The engine skips that pair and continues with the others.
type ProjectConnectError struct {
	HubProjectID int
	Cause        error
}

func (e *ProjectConnectError) Error() string {
	return fmt.Sprintf("connect to hub project %d failed: %v", e.HubProjectID, e.Cause)
}
func (e *ProjectConnectError) Unwrap() error { return e.Cause }

// MappingMissingError signals a lookup against the resolver found no
// mapping for a scoped key.
type MappingMissingError struct {
	Scope       Scope
	ExternalKey string
	InternalID  int
}

func (e *MappingMissingError) Error() string {
	if e.ExternalKey != "" {
		return fmt.Sprintf("no %s mapping for external key %q", e.Scope, e.ExternalKey)
	}
	return fmt.Sprintf("no %s mapping for internal id %d", e.Scope, e.InternalID)
}

// FieldMessage is one (FieldName, Message) entry within a ValidationFault.
type FieldMessage struct {
	FieldName string
	Message   string
}

// ValidationFault mirrors the Hub's ValidationFault{Summary, Messages[]}
// wire shape. The artifact carrying it is skipped; the run continues.
type ValidationFault struct {
	Summary  string
	Messages []FieldMessage
}

func (e *ValidationFault) Error() string {
	return fmt.Sprintf("validation fault: %s (%d field message(s))", e.Summary, len(e.Messages))
}

// AttachmentTransferError signals a file/URL attachment could not be
// copied between systems. Warn and continue; the parent artifact remains
// created.
type AttachmentTransferError struct {
	Filename string
	Cause    error
}

func (e *AttachmentTransferError) Error() string {
	return fmt.Sprintf("attachment transfer failed for %q: %v", e.Filename, e.Cause)
}
func (e *AttachmentTransferError) Unwrap() error { return e.Cause }

// LinkCreationError signals an issue-link or web-link could not be
// created. Warn and continue.
type LinkCreationError struct {
	Kind  string // "issue-link" or "web-link"
	Cause error
}

func (e *LinkCreationError) Error() string {
	return fmt.Sprintf("%s creation failed: %v", e.Kind, e.Cause)
}
func (e *LinkCreationError) Unwrap() error { return e.Cause }

// UnknownFieldShapeError signals inbound custom-field reconstruction saw a
// JSON shape it doesn't recognize. The value is left absent.
type UnknownFieldShapeError struct {
	CustomFieldID int
}

func (e *UnknownFieldShapeError) Error() string {
	return fmt.Sprintf("customfield_%d has an unrecognized value shape", e.CustomFieldID)
}
