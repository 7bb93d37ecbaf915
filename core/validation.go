package core

import (
	"fmt"
)

// maxNamespaceLength bounds namespace keys so they stay usable as storage key prefixes.
const maxNamespaceLength = 128

// ValidateNamespace checks that a namespace key is usable as an isolation boundary.
//
// Validation rules:
//   - must not be empty
//   - at most 128 bytes
//   - only ASCII letters, digits, '_', '-' and '.'
func ValidateNamespace(ns Namespace) error {
	if ns == "" {
		return fmt.Errorf("%w: namespace is empty", ErrInvalidNamespace)
	}
	if len(ns) > maxNamespaceLength {
		return fmt.Errorf("%w: namespace longer than %d bytes", ErrInvalidNamespace, maxNamespaceLength)
	}
	for _, r := range string(ns) {
		if !isNamespaceRune(r) {
			return fmt.Errorf("%w: unexpected character %q in %q", ErrInvalidNamespace, r, ns)
		}
	}
	return nil
}

func isNamespaceRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '.':
		return true
	}
	return false
}

// ValidateChunkRecord validates a ChunkRecord according to domain rules.
//
// Validation rules:
//   - Namespace must be valid
//   - Contents must not be empty
//   - Source must not be empty
//
// NOT validated:
//   - Vector (checked against the namespace dimension by the store)
//   - ID (0 is valid until the store assigns one from its sequence)
func ValidateChunkRecord(record *ChunkRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidChunkRecord)
	}

	if err := ValidateNamespace(record.Namespace); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunkRecord, err)
	}

	if record.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunkRecord, ErrEmptyContent)
	}

	if record.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunkRecord, ErrEmptySource)
	}

	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleHuman && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// ValidateHistory checks that every turn in a conversation has a known role.
func ValidateHistory(history []Turn) error {
	for i, turn := range history {
		if err := ValidateRole(turn.Role); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return nil
}
