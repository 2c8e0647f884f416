package normalizer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"load", &LoadError{Path: "a.jpg", Err: os.ErrNotExist}, MsgInvalidImage},
		{"wrapped load", fmt.Errorf("item 3: %w", &LoadError{Err: errors.New("bad")}), MsgInvalidImage},
		{"boundary", &BoundaryNotFoundError{Width: 10, Height: 10}, MsgBoundaryNotFound},
		{"io", &IOError{Path: "out.jpg", Err: os.ErrPermission}, MsgWriteFailed},
		{"other", errors.New("boom"), MsgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrors_Unwrap(t *testing.T) {
	if err := (&LoadError{Err: os.ErrNotExist}); !errors.Is(err, os.ErrNotExist) {
		t.Error("LoadError does not unwrap")
	}
	if err := (&IOError{Err: os.ErrPermission}); !errors.Is(err, os.ErrPermission) {
		t.Error("IOError does not unwrap")
	}
}

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&LoadError{Path: "in.png", Err: errors.New("boom")}, "in.png"},
		{&LoadError{Err: errors.New("boom")}, "failed to load image: boom"},
		{&BoundaryNotFoundError{Path: "in.png", Width: 5, Height: 6}, "in.png (5x6)"},
		{&BoundaryNotFoundError{Width: 5, Height: 6}, "5x6 image"},
		{&IOError{Path: "out.jpg", Err: errors.New("disk full")}, "failed to write out.jpg"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); !strings.Contains(got, tt.want) {
			t.Errorf("Error(): %q does not contain %q", got, tt.want)
		}
	}
}
