package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		text    string
		wantErr error
	}{
		{
			name: "normal input passes",
			text: "Hello, how are you?",
		},
		{
			name: "empty input passes",
		},
		{
			name: "multibyte input passes",
			text: "Café crème. 日本語.",
		},
		{
			name:    "oversized input rejected",
			text:    strings.Repeat("x", MaxDocumentBytes+1),
			wantErr: ErrDocumentTooLarge,
		},
		{
			name:    "invalid UTF-8 rejected",
			text:    "ok \xff bad",
			wantErr: ErrInvalidUTF8,
		},
		{
			name:    "long source rejected",
			source:  strings.Repeat("a", MaxSourceLength+1),
			wantErr: ErrSourceTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.source, tt.text)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDocument_ReportsOffset(t *testing.T) {
	err := ValidateDocument("", "ok \xff bad")
	if err == nil || !strings.Contains(err.Error(), "offset 3") {
		t.Errorf("error = %v, want offset 3", err)
	}
}

func TestFirstInvalid_EncodedReplacementCharIsValid(t *testing.T) {
	if got := firstInvalid("a\uFFFDb"); got != -1 {
		t.Errorf("firstInvalid() = %d, want -1", got)
	}
}
