package service

import (
	"context"
	"fmt"
	"strings"

	"sim-sync/internal/domain"
	"sim-sync/internal/repository"
)

type GameService struct {
	repo repository.InventoryRepository
}

func NewGameService(repo repository.InventoryRepository) *GameService {
	return &GameService{repo: repo}
}

func (s *GameService) List(ctx context.Context, userID string) ([]domain.Game, error) {
	games := []domain.Game{}
	err := s.repo.View(ctx, func(tx repository.InventoryTx) error {
		games = append(games, tx.Games(userID)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// Create adds a game. A blank name becomes "My Game N".
func (s *GameService) Create(ctx context.Context, userID string, req *domain.CreateGameRequest) (*domain.Game, error) {
	var game domain.Game
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		existing := tx.Games(userID)

		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = nextDefaultName("My Game", gameNames(existing))
		}
		if nameTaken(name, existing, 0) {
			return invalid("Name must be unique")
		}

		game = domain.Game{UserID: userID, Name: name, Description: req.Description}
		tx.PutGame(&game)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *GameService) Update(ctx context.Context, userID string, gameID int, req *domain.UpdateGameRequest) (*domain.Game, error) {
	var game domain.Game
	err := s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		found, ok := tx.FindGame(gameID)
		if !ok || found.UserID != userID {
			return ErrNotFound
		}
		game = found

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return invalid("Name can't be blank")
			}
			if nameTaken(name, tx.Games(userID), gameID) {
				return invalid("Name must be unique")
			}
			game.Name = name
		}
		if req.Description != nil {
			game.Description = req.Description
		}

		tx.PutGame(&game)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// Destroy removes the game together with all of its lists.
func (s *GameService) Destroy(ctx context.Context, userID string, gameID int) error {
	return s.repo.RunInTransaction(ctx, func(tx repository.InventoryTx) error {
		game, ok := tx.FindGame(gameID)
		if !ok || game.UserID != userID {
			return ErrNotFound
		}
		tx.DeleteGame(gameID)
		return nil
	})
}

func gameNames(games []domain.Game) []string {
	names := make([]string, 0, len(games))
	for _, g := range games {
		names = append(names, g.Name)
	}
	return names
}

func nameTaken(name string, games []domain.Game, exceptID int) bool {
	for _, g := range games {
		if g.ID != exceptID && strings.EqualFold(g.Name, name) {
			return true
		}
	}
	return false
}

// nextDefaultName returns "<prefix> N" with N one past the highest number
// already used with that prefix.
func nextDefaultName(prefix string, taken []string) string {
	highest := 0
	for _, name := range taken {
		var n int
		if _, err := fmt.Sscanf(name, prefix+" %d", &n); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s %d", prefix, highest+1)
}
