package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/impostor/internal/api/response"
)

func newRoundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round",
		Short: "Round commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Assign roles, fetch content and begin the reveal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.StartRoundResponse
			if err := client.Post(sessionPath+"/round", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newRevealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Pass-around reveal commands",
		Long: `Each player in turn is selected, opens the panel in private,
then acknowledges their role. The round moves to the debate once
everyone has acknowledged.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "select <player-id>",
		Short: "Select the player who holds the device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postSession(cmd, "/reveal/"+url.PathEscape(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "open",
		Short: "Open the panel and show the selected player's role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RevealResponse
			if err := client.Post(sessionPath+"/reveal/open", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current reveal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.RevealResponse
			if err := client.Get(sessionPath+"/reveal", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "close",
		Short: "Close the panel without acknowledging",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postSession(cmd, "/reveal/close")
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ack",
		Short: "Acknowledge the selected player's role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.AcknowledgeResponse
			if err := client.Post(sessionPath+"/reveal/ack", nil, &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	})

	return cmd
}

func newDebateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debate",
		Short: "Debate commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "end",
		Short: "End the debate and disclose the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postSession(cmd, "/debate/end")
		},
	})

	return cmd
}

func newResultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "result",
		Short: "Show the impostors and the secret word",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Result
			if err := client.Get(sessionPath+"/result", &result); err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the roster and return to setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return postSession(cmd, "/reset")
		},
	}
}
