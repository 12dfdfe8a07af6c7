package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"sim-sync/internal/domain"
)

func printGames(out io.Writer, games []domain.Game) {
	if len(games) == 0 {
		fmt.Fprintln(out, "No games found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, g := range games {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", g.ID, g.Name, deref(g.Description))
	}
	_ = w.Flush()
}

func printLists(out io.Writer, lists []domain.List) {
	if len(lists) == 0 {
		fmt.Fprintln(out, "No lists found.")
		return
	}

	for i, l := range lists {
		if i > 0 {
			fmt.Fprintln(out)
		}
		marker := ""
		if l.Aggregate {
			marker = " (aggregate)"
		}
		fmt.Fprintf(out, "[%d] %s%s\n", l.ID, l.Title, marker)

		if len(l.Items) == 0 {
			fmt.Fprintln(out, "  (empty)")
			continue
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "  ID\tDESCRIPTION\tQTY\tUNIT WEIGHT\tNOTES")
		for _, it := range l.Items {
			weight := "-"
			if it.UnitWeight != nil {
				weight = strconv.FormatFloat(*it.UnitWeight, 'f', -1, 64)
			}
			_, _ = fmt.Fprintf(w, "  %d\t%s\t%d\t%s\t%s\n", it.ID, it.Description, it.Quantity, weight, deref(it.Notes))
		}
		_ = w.Flush()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
