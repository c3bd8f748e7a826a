package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadStyle(t *testing.T) {
	tests := []struct {
		name      string
		styleName string
		wantErr   error
	}{
		{
			name:      "default theme returns content",
			styleName: DefaultStyleName,
			wantErr:   nil,
		},
		{
			name:      "dark theme returns content",
			styleName: "dark",
			wantErr:   nil,
		},
		{
			name:      "nonexistent style returns ErrStyleNotFound",
			styleName: "nonexistent",
			wantErr:   ErrStyleNotFound,
		},
		{
			name:      "empty name returns ErrInvalidAssetName",
			styleName: "",
			wantErr:   ErrInvalidAssetName,
		},
		{
			name:      "path traversal with slash returns ErrInvalidAssetName",
			styleName: "../secret",
			wantErr:   ErrInvalidAssetName,
		},
		{
			name:      "path with dot returns ErrInvalidAssetName",
			styleName: "default.css",
			wantErr:   ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadStyle(tt.styleName)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LoadStyle(%q) error = %v, want %v", tt.styleName, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadStyle(%q) unexpected error: %v", tt.styleName, err)
			}
			if !strings.Contains(got, "table") {
				t.Errorf("LoadStyle(%q) content has no table rules", tt.styleName)
			}
		})
	}
}

func TestStyles(t *testing.T) {
	got := strings.Join(Styles(), ",")
	if got != "dark,default" {
		t.Errorf("Styles() = %q, want %q", got, "dark,default")
	}
}
