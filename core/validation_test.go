package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		name    string
		ns      Namespace
		wantErr bool
	}{
		{name: "user namespace", ns: "user_42"},
		{name: "dotted and dashed", ns: "team-a.docs_1"},
		{name: "empty", ns: "", wantErr: true},
		{name: "contains slash", ns: "user/1", wantErr: true},
		{name: "contains colon", ns: "user:1", wantErr: true},
		{name: "contains space", ns: "user 1", wantErr: true},
		{name: "non ascii", ns: "người_dùng", wantErr: true},
		{name: "too long", ns: Namespace(strings.Repeat("a", 129)), wantErr: true},
		{name: "max length", ns: Namespace(strings.Repeat("a", 128))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNamespace(tt.ns)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidNamespace) {
					t.Errorf("ValidateNamespace(%q) error = %v, want ErrInvalidNamespace", tt.ns, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateNamespace(%q) unexpected error: %v", tt.ns, err)
			}
		})
	}
}

func TestValidateChunkRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *ChunkRecord
		wantErr error
	}{
		{
			name: "valid record",
			record: &ChunkRecord{
				Namespace: "user_1",
				Source:    "report.pdf",
				Contents:  "Paris is the capital of France.",
			},
		},
		{
			name: "valid record without vector or id",
			record: &ChunkRecord{
				Id:        0,
				Namespace: "user_1",
				Source:    "notes.txt",
				Contents:  "text",
				Vector:    nil,
			},
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidChunkRecord,
		},
		{
			name: "empty contents",
			record: &ChunkRecord{
				Namespace: "user_1",
				Source:    "notes.txt",
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "empty source",
			record: &ChunkRecord{
				Namespace: "user_1",
				Contents:  "text",
			},
			wantErr: ErrEmptySource,
		},
		{
			name: "invalid namespace",
			record: &ChunkRecord{
				Namespace: "user 1",
				Source:    "notes.txt",
				Contents:  "text",
			},
			wantErr: ErrInvalidNamespace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunkRecord(tt.record)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunkRecord() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunkRecord() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidChunkRecord) {
				t.Errorf("ValidateChunkRecord() error = %v, should wrap ErrInvalidChunkRecord", err)
			}
		})
	}
}

func TestValidateHistory(t *testing.T) {
	valid := []Turn{
		{Role: RoleHuman, Text: "What is the capital of France?"},
		{Role: RoleAssistant, Text: "Paris."},
	}
	if err := ValidateHistory(valid); err != nil {
		t.Errorf("ValidateHistory() unexpected error: %v", err)
	}

	if err := ValidateHistory(nil); err != nil {
		t.Errorf("ValidateHistory(nil) unexpected error: %v", err)
	}

	invalid := append(valid, Turn{Role: Role(7), Text: "?"})
	if err := ValidateHistory(invalid); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("ValidateHistory() error = %v, want ErrInvalidRole", err)
	}
}
