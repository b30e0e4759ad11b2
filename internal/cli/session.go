package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/impostor/internal/api/response"
)

const sessionPath = "/api/v1/session"

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the public session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session
			if err := client.Get(sessionPath, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Roster commands (setup only)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a player to the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session
			if err := client.Post(sessionPath+"/players", map[string]string{"name": args[0]}, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <player-id>",
		Short: "Remove a player from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session
			if err := client.Delete(sessionPath+"/players/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Category selection commands (setup only)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every known category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.CategoriesResponse
			if err := client.Get("/api/v1/meta/categories", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <name>",
		Short: "Select or deselect a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postSession(cmd, "/categories/"+url.PathEscape(args[0])+"/toggle")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "all",
		Short: "Select every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postSession(cmd, "/categories/all")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "none",
		Short: "Deselect every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Session
			if err := client.Delete(sessionPath+"/categories", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Setup options",
	}

	var (
		impostors    int
		hideCategory bool
		hideHint     bool
	)

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change impostor count and modifiers",
		Example: `  impostor settings set --impostors 2
  impostor settings set --hide-category --hide-hint=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if cmd.Flags().Changed("impostors") {
				req["impostor_count"] = impostors
			}
			if cmd.Flags().Changed("hide-category") {
				req["hide_category"] = hideCategory
			}
			if cmd.Flags().Changed("hide-hint") {
				req["hide_hint"] = hideHint
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to change: pass --impostors, --hide-category or --hide-hint")
			}

			var result response.Session
			if err := client.Patch(sessionPath+"/settings", req, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
	setCmd.Flags().IntVar(&impostors, "impostors", 1, "Number of impostors")
	setCmd.Flags().BoolVar(&hideCategory, "hide-category", false, "Hide the category from impostors")
	setCmd.Flags().BoolVar(&hideHint, "hide-hint", false, "Hide the hint from impostors")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "options [players]",
		Short: "Show the impostor counts allowed for a roster size",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/meta/impostor-options"
			if len(args) == 1 {
				path += "?players=" + url.QueryEscape(args[0])
			}
			var result response.ImpostorOptionsResponse
			if err := client.Get(path, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

// postSession POSTs to a session sub-path and prints the returned session
func postSession(cmd *cobra.Command, path string) error {
	var result response.Session
	if err := client.Post(sessionPath+path, nil, &result); err != nil {
		return err
	}
	output(cmd).Print(result)
	return nil
}
