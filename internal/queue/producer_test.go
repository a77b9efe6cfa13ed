package queue

import (
	"errors"
	"testing"

	"github.com/desertthunder/hansdj/internal/shared"
)

func TestSongQuery(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"single argument", []string{"Heroes"}, "Heroes", false},
		{"unquoted words", []string{"Under", "Pressure"}, "Under Pressure", false},
		{"surrounding whitespace", []string{"  Heroes  "}, "Heroes", false},
		{"unicode", []string{"Für Elise 🎹"}, "Für Elise 🎹", false},
		{"empty", nil, "", true},
		{"blank", []string{" ", ""}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SongQuery(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SongQuery(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if got != tt.want {
				t.Errorf("SongQuery(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
