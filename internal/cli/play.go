package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/impostor/internal/api/response"
	"github.com/mcoot/impostor/internal/config"
	"github.com/mcoot/impostor/internal/factory"
	"github.com/mcoot/impostor/internal/model"
	"github.com/mcoot/impostor/internal/services/roles"
	"github.com/mcoot/impostor/internal/services/session"
)

// playFlagKeys maps play flags onto config keys
var playFlagKeys = map[string]string{
	"provider":  "content.provider",
	"word-bank": "content.word_bank_path",
	"strict":    "content.strict",
	"seed":      "game.seed",
}

func newPlayCmd() *cobra.Command {
	var (
		configPath string
		players    []string
		noClear    bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a game in this terminal, passing the device around",
		Long: `Run a complete session locally without a server.

Add players and choose categories, then start the round. Each player
takes the device in turn to see their role in private. After the debate
the impostors and the secret word are revealed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(".env"); err != nil {
				return err
			}
			v := config.NewViper()
			if err := config.BindFlags(v, cmd.Flags(), playFlagKeys); err != nil {
				return err
			}
			appCfg, err := config.Load(v, configPath)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			if cfg.Verbose {
				logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}

			// The terminal game never needs a shared backend
			fc := factory.FromConfig(appCfg, logger)
			fc.StorageType = factory.StorageTypeMemory
			fc.RedisConfig = nil

			app, err := factory.New(fc)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if _, err := app.OpenSession(cmd.Context()); err != nil {
				return err
			}

			game := NewGame(app.Controller, cmd.InOrStdin(), cmd.OutOrStdout())
			game.Clear = !noClear
			return game.Run(cmd.Context(), players)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringSliceVarP(&players, "players", "p", nil, "Player names to start with (comma separated)")
	cmd.Flags().String("provider", config.ProviderStatic, "Content provider: llm, wordbank, static")
	cmd.Flags().String("word-bank", "", "Word bank YAML file for the wordbank provider")
	cmd.Flags().Bool("strict", false, "Return to setup instead of using fallback content")
	cmd.Flags().Uint64("seed", 0, "Seed for reproducible rounds, 0 for random")
	cmd.Flags().BoolVar(&noClear, "no-clear", false, "Do not clear the screen between players")

	return cmd
}

// Game drives one session interactively over a line-based terminal
type Game struct {
	controller *session.Controller
	in         *bufio.Scanner
	out        io.Writer

	// Clear hides the previous player's role before the device is passed on
	Clear bool
}

// NewGame creates a new terminal Game
func NewGame(controller *session.Controller, in io.Reader, out io.Writer) *Game {
	return &Game{
		controller: controller,
		in:         bufio.NewScanner(in),
		out:        out,
	}
}

// errQuit ends the game loop without an error
var errQuit = errors.New("quit")

// Run plays rounds until the input ends or the players quit
func (g *Game) Run(ctx context.Context, initialPlayers []string) error {
	for _, name := range initialPlayers {
		if _, err := g.controller.AddPlayer(ctx, name); err != nil {
			g.printError(err)
		}
	}

	for {
		state, err := g.controller.State(ctx)
		if err != nil {
			return err
		}

		switch state.Phase {
		case model.PhaseSetup:
			err = g.setup(ctx)
		case model.PhaseReveal:
			err = g.reveal(ctx)
		case model.PhasePlaying:
			err = g.debate(ctx)
		case model.PhaseResult:
			err = g.result(ctx, state)
		default:
			err = fmt.Errorf("unexpected phase %s", state.Phase)
		}

		if errors.Is(err, errQuit) {
			fmt.Fprintln(g.out, "Bye!")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// readLine prompts and reads one trimmed line; end of input quits
func (g *Game) readLine(prompt string) (string, error) {
	fmt.Fprint(g.out, prompt)
	if !g.in.Scan() {
		fmt.Fprintln(g.out)
		if err := g.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(g.in.Text()), nil
}

func (g *Game) printError(err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintf(g.out, "! %s\n", verr.Message)
	case errors.Is(err, model.ErrProvider):
		fmt.Fprintln(g.out, "! Could not generate round content, try again")
	default:
		fmt.Fprintf(g.out, "! %s\n", err)
	}
}

func (g *Game) dispatch(ctx context.Context, a session.Action) (*session.Outcome, bool) {
	outcome, err := g.controller.Dispatch(ctx, a)
	if err != nil {
		g.printError(err)
		return nil, false
	}
	return outcome, true
}

const setupHelp = `Commands:
  add <name>[, <name>...]   add players
  remove <n>                remove player number n
  toggle <n|name>           select or deselect a category
  all | none                select every category or none
  impostors <k>             set the number of impostors
  hide-category             toggle hiding the category from impostors
  hide-hint                 toggle hiding the hint from impostors
  start                     start the round
  quit                      leave the game`

func (g *Game) printSetup(s *model.Session) {
	fmt.Fprintln(g.out)
	fmt.Fprintf(g.out, "Players (%d):\n", len(s.Players))
	for i, p := range s.Players {
		fmt.Fprintf(g.out, "  %d. %s\n", i+1, p.Name)
	}

	fmt.Fprintln(g.out, "Categories:")
	for i, c := range s.Categories.Available {
		mark := " "
		if s.Categories.Contains(c) {
			mark = "x"
		}
		fmt.Fprintf(g.out, "  [%s] %d. %s\n", mark, i+1, c)
	}

	fmt.Fprintf(g.out, "Impostors: %d (max %d)\n", s.ImpostorCount, roles.MaxImpostors(len(s.Players)))
	fmt.Fprintf(g.out, "Hide category: %s, hide hint: %s\n", yesNo(s.Modifiers.HideCategory), yesNo(s.Modifiers.HideHint))
}

func (g *Game) setup(ctx context.Context) error {
	state, err := g.controller.State(ctx)
	if err != nil {
		return err
	}
	g.printSetup(state)

	line, err := g.readLine("setup> ")
	if err != nil {
		return err
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "":
	case "help", "?":
		fmt.Fprintln(g.out, setupHelp)
	case "quit", "q", "exit":
		return errQuit
	case "add":
		for _, name := range strings.Split(arg, ",") {
			g.dispatch(ctx, session.AddPlayer{Name: name})
		}
	case "remove", "rm":
		if p := pickByNumber(state.Players, arg); p != nil {
			g.dispatch(ctx, session.RemovePlayer{PlayerID: p.ID})
		} else {
			fmt.Fprintf(g.out, "! No player %q\n", arg)
		}
	case "toggle", "t":
		name := arg
		if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(state.Categories.Available) {
			name = state.Categories.Available[n-1]
		}
		g.dispatch(ctx, session.ToggleCategory{Category: name})
	case "all":
		g.dispatch(ctx, session.SelectAllCategories{})
	case "none":
		g.dispatch(ctx, session.SelectNoCategories{})
	case "impostors", "i":
		k, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(g.out, "! impostors takes a number")
			return nil
		}
		g.dispatch(ctx, session.UpdateSettings{Settings: session.Settings{ImpostorCount: &k}})
	case "hide-category":
		hide := !state.Modifiers.HideCategory
		g.dispatch(ctx, session.UpdateSettings{Settings: session.Settings{HideCategory: &hide}})
	case "hide-hint":
		hide := !state.Modifiers.HideHint
		g.dispatch(ctx, session.UpdateSettings{Settings: session.Settings{HideHint: &hide}})
	case "start", "s":
		fmt.Fprintln(g.out, "Preparing the round...")
		if outcome, ok := g.dispatch(ctx, session.StartRound{}); ok && outcome.UsedFallback {
			fmt.Fprintln(g.out, "Content provider unavailable, using fallback content.")
		}
	default:
		fmt.Fprintf(g.out, "! Unknown command %q, type help\n", cmd)
	}
	return nil
}

// reveal passes the device to the next player who has not seen their role
func (g *Game) reveal(ctx context.Context) error {
	state, err := g.controller.State(ctx)
	if err != nil {
		return err
	}

	var next *model.Player
	for i := range state.Players {
		if !state.Players[i].HasSeenRole {
			next = &state.Players[i]
			break
		}
	}
	if next == nil {
		return fmt.Errorf("every player has seen their role but the session is still in %s", state.Phase)
	}

	if _, err := g.controller.Dispatch(ctx, session.SelectForReveal{PlayerID: next.ID}); err != nil {
		return fmt.Errorf("selecting %s for reveal: %w", next.Name, err)
	}
	fmt.Fprintf(g.out, "\nPass the device to %s (%d/%d seen).\n", next.Name, state.SeenCount(), len(state.Players))
	if _, err := g.readLine(next.Name + ", press Enter to see your role in private. "); err != nil {
		return err
	}

	if _, err := g.controller.Dispatch(ctx, session.OpenPanel{}); err != nil {
		return fmt.Errorf("opening role for %s: %w", next.Name, err)
	}
	view, err := g.controller.Reveal(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out)
	fmt.Fprint(g.out, roleText(view))

	if _, err := g.readLine("Press Enter to hide your role. "); err != nil {
		return err
	}
	g.clearScreen()

	g.dispatch(ctx, session.Acknowledge{})
	return nil
}

func (g *Game) debate(ctx context.Context) error {
	fmt.Fprintln(g.out, "\nEveryone has seen their role. Discuss and find the impostor!")
	if _, err := g.readLine("Press Enter to reveal the result. "); err != nil {
		return err
	}
	g.dispatch(ctx, session.EndDebate{})
	return nil
}

func (g *Game) result(ctx context.Context, state *model.Session) error {
	view, err := g.controller.Result(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(g.out)
	NewOutput("text", g.out).printResult(response.ResultFromModel(view))

	answer, err := g.readLine("Play again with the same players? [Y/n/q] ")
	if err != nil {
		return err
	}
	switch strings.ToLower(answer) {
	case "q", "quit":
		return errQuit
	}

	names := make([]string, 0, len(state.Players))
	for _, p := range state.Players {
		names = append(names, p.Name)
	}

	if _, ok := g.dispatch(ctx, session.Reset{}); !ok {
		return nil
	}
	if strings.ToLower(answer) == "n" {
		return nil
	}
	for _, name := range names {
		g.dispatch(ctx, session.AddPlayer{Name: name})
	}
	return nil
}

func (g *Game) clearScreen() {
	if g.Clear {
		fmt.Fprint(g.out, "\033[H\033[2J")
		return
	}
	fmt.Fprintln(g.out)
}

func pickByNumber(players []model.Player, arg string) *model.Player {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(players) {
		return nil
	}
	return &players[n-1]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
