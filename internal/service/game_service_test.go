package service

import (
	"context"
	"errors"
	"testing"

	"sim-sync/internal/domain"
	"sim-sync/internal/repository"
)

func TestGameService_Create(t *testing.T) {
	svc := NewGameService(repository.NewMemoryInventoryRepository())
	ctx := context.Background()

	tests := []struct {
		name     string
		req      *domain.CreateGameRequest
		wantName string
		wantErr  string
	}{
		{name: "named", req: &domain.CreateGameRequest{Name: "Skyrim"}, wantName: "Skyrim"},
		{name: "blank gets default", req: &domain.CreateGameRequest{Name: "  "}, wantName: "My Game 1"},
		{name: "second default", req: &domain.CreateGameRequest{}, wantName: "My Game 2"},
		{name: "duplicate", req: &domain.CreateGameRequest{Name: "skyrim"}, wantErr: "Name must be unique"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game, err := svc.Create(ctx, testUser, tt.req)
			if tt.wantErr != "" {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.Messages[0] != tt.wantErr {
					t.Fatalf("expected validation error %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if game.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", game.Name, tt.wantName)
			}
			if game.ID == 0 || game.UserID != testUser {
				t.Errorf("unexpected game %+v", game)
			}
		})
	}
}

func TestGameService_UpdateAndDestroy(t *testing.T) {
	svc := NewGameService(repository.NewMemoryInventoryRepository())
	ctx := context.Background()

	skyrim, _ := svc.Create(ctx, testUser, &domain.CreateGameRequest{Name: "Skyrim"})
	oblivion, _ := svc.Create(ctx, testUser, &domain.CreateGameRequest{Name: "Oblivion"})

	if _, err := svc.Update(ctx, testUser, oblivion.ID, &domain.UpdateGameRequest{Name: strPtr("Skyrim")}); err == nil {
		t.Error("expected duplicate name to be rejected")
	}
	if _, err := svc.Update(ctx, "other-user", skyrim.ID, &domain.UpdateGameRequest{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a foreign game, got %v", err)
	}

	updated, err := svc.Update(ctx, testUser, skyrim.ID, &domain.UpdateGameRequest{Name: strPtr("Skyrim SE"), Description: strPtr("Dragonborn")})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Skyrim SE" || *updated.Description != "Dragonborn" {
		t.Errorf("unexpected update result %+v", updated)
	}

	if err := svc.Destroy(ctx, testUser, skyrim.ID); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if err := svc.Destroy(ctx, testUser, skyrim.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second destroy, got %v", err)
	}

	games, err := svc.List(ctx, testUser)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(games) != 1 || games[0].ID != oblivion.ID {
		t.Errorf("unexpected games %+v", games)
	}

	others, _ := svc.List(ctx, "other-user")
	if others == nil || len(others) != 0 {
		t.Errorf("expected an empty, non-nil list for another user, got %#v", others)
	}
}
