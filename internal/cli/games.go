package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sim-sync/internal/apierror"
	"sim-sync/internal/domain"
	"sim-sync/internal/store"
)

var (
	gameName        string
	gameDescription string
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List the signed-in user's games",
	RunE:  runGamesList,
}

var gamesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a game",
	Args:  cobra.NoArgs,
	RunE:  runGamesCreate,
}

var gamesUpdateCmd = &cobra.Command{
	Use:   "update GAME_ID",
	Short: "Rename a game or change its description",
	Args:  cobra.ExactArgs(1),
	RunE:  runGamesUpdate,
}

var gamesDeleteCmd = &cobra.Command{
	Use:   "delete GAME_ID",
	Short: "Delete a game and all of its lists",
	Args:  cobra.ExactArgs(1),
	RunE:  runGamesDelete,
}

func init() {
	gamesCreateCmd.Flags().StringVar(&gameName, "name", "", "game name (blank for a default name)")
	gamesCreateCmd.Flags().StringVar(&gameDescription, "description", "", "game description")
	gamesUpdateCmd.Flags().StringVar(&gameName, "name", "", "new name")
	gamesUpdateCmd.Flags().StringVar(&gameDescription, "description", "", "new description")

	gamesCmd.AddCommand(gamesCreateCmd, gamesUpdateCmd, gamesDeleteCmd)
}

func runGamesList(cmd *cobra.Command, args []string) error {
	s, err := newStack(cmd.Context(), cfg, log, stackOptions{})
	if err != nil {
		return err
	}

	var outErr error
	s.games.Load(cmd.Context(), store.Callbacks[store.GameState]{
		OnSuccess: func(state store.GameState) { printGames(cmd.OutOrStdout(), state.Games) },
		OnError:   func(err *apierror.Error) { outErr = failure(err, "game") },
	})
	return outErr
}

func runGamesCreate(cmd *cobra.Command, args []string) error {
	s, err := newStack(cmd.Context(), cfg, log, stackOptions{})
	if err != nil {
		return err
	}

	req := domain.CreateGameRequest{Name: gameName}
	if cmd.Flags().Changed("description") {
		req.Description = &gameDescription
	}

	var outErr error
	s.games.Create(cmd.Context(), req, store.Callbacks[domain.Game]{
		OnSuccess: func(game domain.Game) { printGames(cmd.OutOrStdout(), []domain.Game{game}) },
		OnError:   func(err *apierror.Error) { outErr = failure(err, "game") },
	})
	return outErr
}

func runGamesUpdate(cmd *cobra.Command, args []string) error {
	gameID, err := parseID(args[0])
	if err != nil {
		return err
	}
	s, err := newStack(cmd.Context(), cfg, log, stackOptions{})
	if err != nil {
		return err
	}

	var req domain.UpdateGameRequest
	if cmd.Flags().Changed("name") {
		req.Name = &gameName
	}
	if cmd.Flags().Changed("description") {
		req.Description = &gameDescription
	}

	var outErr error
	s.games.Update(cmd.Context(), gameID, req, store.Callbacks[domain.Game]{
		OnSuccess: func(game domain.Game) { printGames(cmd.OutOrStdout(), []domain.Game{game}) },
		OnError:   func(err *apierror.Error) { outErr = failure(err, "game") },
	})
	return outErr
}

func runGamesDelete(cmd *cobra.Command, args []string) error {
	gameID, err := parseID(args[0])
	if err != nil {
		return err
	}
	s, err := newStack(cmd.Context(), cfg, log, stackOptions{})
	if err != nil {
		return err
	}

	var outErr error
	s.games.Destroy(cmd.Context(), gameID, store.Callbacks[store.GameState]{
		OnSuccess: func(store.GameState) { fmt.Fprintf(cmd.OutOrStdout(), "Deleted game %d.\n", gameID) },
		OnError:   func(err *apierror.Error) { outErr = failure(err, "game") },
	})
	return outErr
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
