package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uncleaned bool

var occupancyCmd = &cobra.Command{
	Use:   "occupancy",
	Short: "Print occupancy of rentable units",
	RunE: func(cmd *cobra.Command, args []string) error {
		occ, err := store.Occupancy(ctxOf(cmd))
		if err != nil {
			return err
		}
		return printJSON(occ)
	},
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Inspect units",
}

var unitsAvailableCmd = &cobra.Command{
	Use:   "available",
	Short: "List rentable units with no checked-in guest",
	RunE: func(cmd *cobra.Command, args []string) error {
		list := store.AvailableUnits
		if uncleaned {
			list = store.UncleanedAvailableUnits
		}
		units, err := list(ctxOf(cmd))
		if err != nil {
			return err
		}
		return printJSON(units)
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <guest-id>",
	Short: "Check a guest out and queue their unit for cleaning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := store.CheckoutGuest(ctxOf(cmd), args[0])
		if err != nil {
			return err
		}
		if g == nil {
			return fmt.Errorf("guest %s not found", args[0])
		}
		return printJSON(g)
	},
}

func init() {
	unitsAvailableCmd.Flags().BoolVar(&uncleaned, "uncleaned", false, "only units waiting to be cleaned")
	unitsCmd.AddCommand(unitsAvailableCmd)
}
