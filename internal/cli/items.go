package cli

import (
	"github.com/spf13/cobra"

	"sim-sync/internal/domain"
	"sim-sync/internal/store"
)

var (
	itemList        int
	itemDescription string
	itemQuantity    int
	itemUnitWeight  float64
	itemNotes       string
)

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Add, change and remove list items",
}

var itemsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add an item to a list",
	Long: `Add an item to a list. An item whose description matches one already
on the list is combined with it.`,
	Args: cobra.NoArgs,
	RunE: runItemsCreate,
}

var itemsUpdateCmd = &cobra.Command{
	Use:   "update ITEM_ID",
	Short: "Change an item's quantity, unit weight or notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsUpdate,
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete ITEM_ID",
	Short: "Remove an item from its list",
	Args:  cobra.ExactArgs(1),
	RunE:  runItemsDelete,
}

func init() {
	itemsCmd.PersistentFlags().IntVar(&listGame, "game", 0, "game id the list belongs to (default from GAME_ID)")

	itemsCreateCmd.Flags().IntVar(&itemList, "list", 0, "list id")
	itemsCreateCmd.Flags().StringVar(&itemDescription, "description", "", "item description")
	itemsCreateCmd.Flags().IntVar(&itemQuantity, "quantity", 1, "quantity")
	itemsCreateCmd.Flags().Float64Var(&itemUnitWeight, "unit-weight", 0, "weight of one unit")
	itemsCreateCmd.Flags().StringVar(&itemNotes, "notes", "", "notes")
	_ = itemsCreateCmd.MarkFlagRequired("list")
	_ = itemsCreateCmd.MarkFlagRequired("description")

	itemsUpdateCmd.Flags().IntVar(&itemQuantity, "quantity", 0, "new quantity")
	itemsUpdateCmd.Flags().Float64Var(&itemUnitWeight, "unit-weight", 0, "new unit weight")
	itemsUpdateCmd.Flags().StringVar(&itemNotes, "notes", "", "new notes")

	itemsCmd.AddCommand(itemsCreateCmd, itemsUpdateCmd, itemsDeleteCmd)
}

func itemNoun() string {
	return listNoun(cfg.API.ListResource) + " item"
}

func runItemsCreate(cmd *cobra.Command, args []string) error {
	req := domain.CreateItemRequest{Description: itemDescription, Quantity: itemQuantity}
	if cmd.Flags().Changed("unit-weight") {
		req.UnitWeight = &itemUnitWeight
	}
	if cmd.Flags().Changed("notes") {
		req.Notes = &itemNotes
	}
	return mutateAndPrint(cmd, listGame, store.CreateItem{ListID: itemList, CreateItemRequest: req}, itemNoun())
}

func runItemsUpdate(cmd *cobra.Command, args []string) error {
	itemID, err := parseID(args[0])
	if err != nil {
		return err
	}

	var req domain.UpdateItemRequest
	if cmd.Flags().Changed("quantity") {
		req.Quantity = &itemQuantity
	}
	if cmd.Flags().Changed("unit-weight") {
		req.UnitWeight = &itemUnitWeight
	}
	if cmd.Flags().Changed("notes") {
		req.Notes = &itemNotes
	}
	return mutateAndPrint(cmd, listGame, store.UpdateItem{ItemID: itemID, UpdateItemRequest: req}, itemNoun())
}

func runItemsDelete(cmd *cobra.Command, args []string) error {
	itemID, err := parseID(args[0])
	if err != nil {
		return err
	}
	return mutateAndPrint(cmd, listGame, store.DestroyItem{ItemID: itemID}, itemNoun())
}
