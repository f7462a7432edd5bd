package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var settingsBy string

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change runtime settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := store.Settings()
		if len(args) == 0 {
			all, err := svc.All(ctxOf(cmd))
			if err != nil {
				return err
			}
			return printJSON(all)
		}
		v, err := svc.Get(ctxOf(cmd), args[0])
		if err != nil {
			return err
		}
		return printJSON(v)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <json-value>",
	Short: "Store a setting",
	Long: `Set stores a setting. The value is parsed as JSON, so numbers, booleans
and arrays keep their type; anything that is not valid JSON is stored as a
string.

Example:
  capsule settings set maxGuestStayDays 14
  capsule settings set unitSections '["A","B"]'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value any
		if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
			value = args[1]
		}
		st, err := store.Settings().Set(ctxOf(cmd), args[0], value, settingsBy)
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", st.Key, st.Value)
		return nil
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Restore a setting to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return store.Settings().Reset(ctxOf(cmd), args[0])
	},
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsBy, "by", "cli", "recorded as the updater")
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsResetCmd)
}
