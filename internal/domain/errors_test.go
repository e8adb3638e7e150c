package domain

import (
	"errors"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := Invalid(KindWorkspace, "name", "default", "reserved", "workspace name %q is reserved", "default")

	got := err.Error()
	if got == "" {
		t.Error("Error() should not return empty string")
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("ValidationError should unwrap to ErrValidation")
	}
	if !errors.Is(err, ErrCatalog) {
		t.Error("ValidationError should be a catalog error")
	}
}

func TestIntegrityError(t *testing.T) {
	tests := []struct {
		name    string
		err     *IntegrityError
		wantErr error
		notErr  error
	}{
		{
			name:    "structural",
			err:     Structural(KindLayerGroup, "g", "layer group must not contain itself"),
			wantErr: ErrStructuralIntegrity,
			notErr:  ErrReferentialIntegrity,
		},
		{
			name:    "referential",
			err:     Referenced(KindStore, "s", "store is referenced by %d resources", 2),
			wantErr: ErrReferentialIntegrity,
			notErr:  ErrStructuralIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() == "" {
				t.Error("Error() should not return empty string")
			}
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("error should wrap %v", tt.wantErr)
			}
			if errors.Is(tt.err, tt.notErr) {
				t.Errorf("error should not wrap %v", tt.notErr)
			}
			if !errors.Is(tt.err, ErrCatalog) {
				t.Error("integrity errors should be catalog errors")
			}
		})
	}
}

func TestValidationResult(t *testing.T) {
	var r ValidationResult
	if !r.Valid() {
		t.Error("empty result should be valid")
	}
	if err := r.Err(KindStyle); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}

	r.Add(nil)
	r.Add(errors.New("first"))
	r.Add(errors.New("second"))

	if r.Valid() {
		t.Error("result with errors should not be valid")
	}
	if len(r.Errors) != 2 {
		t.Errorf("len(Errors) = %d, want 2", len(r.Errors))
	}

	err := r.Err(KindStyle)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Err() = %T, want *ValidationError", err)
	}
	if verr.Message != "first; second" {
		t.Errorf("Message = %q, want %q", verr.Message, "first; second")
	}
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name string
		err  *StorageError
	}{
		{
			name: "with key",
			err: &StorageError{
				Operation: "download",
				Key:       "catalog.yaml",
				Err:       errors.New("network error"),
			},
		},
		{
			name: "without key",
			err: &StorageError{
				Operation: "list",
				Err:       errors.New("access denied"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got == "" {
				t.Error("Error() should not return empty string")
			}

			if !errors.Is(tt.err, tt.err.Err) {
				t.Error("Unwrap should return the underlying error")
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "storage.path",
		Message: "path not found",
	}

	got := err.Error()
	if got == "" {
		t.Error("Error() should not return empty string")
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ConfigError should unwrap to ErrInvalidInput")
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"ErrValidation", ErrValidation, ErrCatalog},
		{"ErrStructuralIntegrity", ErrStructuralIntegrity, ErrCatalog},
		{"ErrReferentialIntegrity", ErrReferentialIntegrity, ErrCatalog},
		{"ErrAmbiguous", ErrAmbiguous, ErrCatalog},
		{"ErrUnsupportedSort", ErrUnsupportedSort, ErrUnsupported},
		{"ErrReadOnly", ErrReadOnly, ErrUnsupported},
		{"ErrEntityNotFound", ErrEntityNotFound, ErrNotFound},
		{"ErrNotReady", ErrNotReady, ErrUnavailable},
		{"ErrStorageUnavailable", ErrStorageUnavailable, ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantErr) {
				t.Errorf("%s should wrap %v", tt.name, tt.wantErr)
			}
		})
	}
}
