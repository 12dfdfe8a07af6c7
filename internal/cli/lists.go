package cli

import (
	"github.com/spf13/cobra"

	"sim-sync/internal/domain"
	"sim-sync/internal/store"
)

var (
	listGame  int
	listTitle string
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show a game's lists and their items",
	Long: `Show a game's lists. The first list is the aggregate "All Items"
list, which the server derives from the others.`,
	RunE: runListsShow,
}

var listsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a list in a game",
	Args:  cobra.NoArgs,
	RunE:  runListsCreate,
}

var listsUpdateCmd = &cobra.Command{
	Use:   "update LIST_ID",
	Short: "Rename a list",
	Args:  cobra.ExactArgs(1),
	RunE:  runListsUpdate,
}

var listsDeleteCmd = &cobra.Command{
	Use:   "delete LIST_ID",
	Short: "Delete a list",
	Args:  cobra.ExactArgs(1),
	RunE:  runListsDelete,
}

func init() {
	listsCmd.PersistentFlags().IntVar(&listGame, "game", 0, "game id (default from GAME_ID)")
	listsCreateCmd.Flags().StringVar(&listTitle, "title", "", "list title (blank for a default title)")
	listsUpdateCmd.Flags().StringVar(&listTitle, "title", "", "new title")
	_ = listsUpdateCmd.MarkFlagRequired("title")

	listsCmd.AddCommand(listsCreateCmd, listsUpdateCmd, listsDeleteCmd)
}

func runListsShow(cmd *cobra.Command, args []string) error {
	s, err := loadedStack(cmd, listGame)
	if err != nil {
		return err
	}
	defer s.Close()

	printLists(cmd.OutOrStdout(), s.lists.Snapshot().Lists)
	return nil
}

func runListsCreate(cmd *cobra.Command, args []string) error {
	return mutateAndPrint(cmd, listGame, store.CreateList{
		CreateListRequest: domain.CreateListRequest{Title: listTitle},
	}, listNoun(cfg.API.ListResource))
}

func runListsUpdate(cmd *cobra.Command, args []string) error {
	listID, err := parseID(args[0])
	if err != nil {
		return err
	}
	return mutateAndPrint(cmd, listGame, store.UpdateList{
		ListID:            listID,
		UpdateListRequest: domain.UpdateListRequest{Title: &listTitle},
	}, listNoun(cfg.API.ListResource))
}

func runListsDelete(cmd *cobra.Command, args []string) error {
	listID, err := parseID(args[0])
	if err != nil {
		return err
	}
	return mutateAndPrint(cmd, listGame, store.DestroyList{ListID: listID}, listNoun(cfg.API.ListResource))
}

// loadedStack builds a stack and loads the lists of gameID, falling back
// to the configured game.
func loadedStack(cmd *cobra.Command, gameID int) (*stack, error) {
	if gameID <= 0 {
		gameID = cfg.Sync.GameID
	}

	s, err := newStack(cmd.Context(), cfg, log, stackOptions{cache: true})
	if err != nil {
		return nil, err
	}
	if _, err := s.loadLists(cmd.Context(), gameID); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// mutateAndPrint applies m to the lists of gameID and prints the merged
// result.
func mutateAndPrint(cmd *cobra.Command, gameID int, m store.Mutation, noun string) error {
	s, err := loadedStack(cmd, gameID)
	if err != nil {
		return err
	}
	defer s.Close()

	state, err := s.mutate(cmd.Context(), m, noun)
	if err != nil {
		return err
	}
	printLists(cmd.OutOrStdout(), state.Lists)
	return nil
}
