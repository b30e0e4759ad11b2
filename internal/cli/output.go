package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/impostor/internal/api/response"
	"github.com/mcoot/impostor/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Session:
		o.printSession(v)
	case response.StartRoundResponse:
		if v.UsedFallback {
			fmt.Fprintln(o.w, "Content provider unavailable, using fallback content")
		}
		o.printSession(v.Session)
	case response.AcknowledgeResponse:
		if v.Advanced {
			fmt.Fprintln(o.w, "Everyone has seen their role. Start the debate!")
		}
		o.printSession(v.Session)
	case response.RevealResponse:
		o.printRoleView(v.View)
	case response.Result:
		o.printResult(v)
	case response.CategoriesResponse:
		for _, c := range v.Categories {
			fmt.Fprintln(o.w, c)
		}
	case response.ImpostorOptionsResponse:
		fmt.Fprintf(o.w, "Players: %d\n", v.Players)
		fmt.Fprintf(o.w, "Impostor options: %s\n", joinInts(v.Options))
	case response.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		if v.SessionID != "" {
			fmt.Fprintf(o.w, "Session: %s (%s)\n", v.SessionID, v.Phase)
		}
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printSession(s response.Session) {
	fmt.Fprintf(o.w, "Session: %s\n", s.ID)
	fmt.Fprintf(o.w, "Phase: %s\n", s.Phase)
	if s.RoundNumber > 0 {
		fmt.Fprintf(o.w, "Round: %d\n", s.RoundNumber)
	}
	fmt.Fprintf(o.w, "Impostors: %d (options: %s)\n", s.ImpostorCount, joinInts(s.ImpostorOptions))

	var mods []string
	if s.Modifiers.HideCategory {
		mods = append(mods, "hide category")
	}
	if s.Modifiers.HideHint {
		mods = append(mods, "hide hint")
	}
	if len(mods) > 0 {
		fmt.Fprintf(o.w, "Modifiers: %s\n", strings.Join(mods, ", "))
	}

	fmt.Fprintf(o.w, "Categories (%d/%d): %s\n",
		len(s.Categories.Selected), len(s.Categories.Available), strings.Join(s.Categories.Selected, ", "))

	fmt.Fprintf(o.w, "Players (%d):\n", len(s.Players))
	for _, p := range s.Players {
		var marks []string
		if s.Phase == model.PhaseReveal.String() && p.HasSeenRole {
			marks = append(marks, "seen")
		}
		if s.Reveal != nil && s.Reveal.PlayerID != nil && *s.Reveal.PlayerID == p.ID {
			marks = append(marks, "revealing")
		}
		if p.IsImpostor != nil && *p.IsImpostor {
			marks = append(marks, "IMPOSTOR")
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = " [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  - %s (%s)%s\n", p.Name, p.ID, suffix)
	}

	if s.Reveal != nil {
		fmt.Fprintf(o.w, "Seen: %d/%d\n", s.Reveal.Seen, s.Reveal.Total)
	}
	if s.Round != nil {
		fmt.Fprintf(o.w, "Category: %s\n", s.Round.Category)
		fmt.Fprintf(o.w, "Secret word: %s\n", s.Round.SecretWord)
	}
}

func (o *Output) printRoleView(v *model.RoleView) {
	if v == nil {
		fmt.Fprintln(o.w, "Nobody is selected. Pick a player to reveal.")
		return
	}

	fmt.Fprintf(o.w, "Player: %s\n", v.PlayerName)
	if !v.PanelOpen {
		fmt.Fprintln(o.w, "Pass the device, then open the panel.")
		return
	}

	fmt.Fprint(o.w, roleText(v))
}

// roleText renders the private part of a role view
func roleText(v *model.RoleView) string {
	var b strings.Builder
	if !v.IsImpostor {
		fmt.Fprintln(&b, "You are NOT the impostor.")
		fmt.Fprintf(&b, "Category: %s\n", v.Category)
		fmt.Fprintf(&b, "Secret word: %s\n", v.SecretWord)
		return b.String()
	}

	fmt.Fprintln(&b, "You are the IMPOSTOR.")
	if v.CategoryHidden {
		fmt.Fprintln(&b, "Category: (hidden)")
	} else {
		fmt.Fprintf(&b, "Category: %s\n", v.Category)
	}
	if v.Hint != "" {
		fmt.Fprintf(&b, "Hint: %s\n", v.Hint)
	} else {
		fmt.Fprintln(&b, "Hint: (none)")
	}
	return b.String()
}

func (o *Output) printResult(r response.Result) {
	fmt.Fprintf(o.w, "Category: %s\n", r.Category)
	fmt.Fprintf(o.w, "Secret word: %s\n", r.SecretWord)
	names := make([]string, 0, len(r.Impostors))
	for _, p := range r.Impostors {
		names = append(names, p.Name)
	}
	fmt.Fprintf(o.w, "Impostors: %s\n", strings.Join(names, ", "))
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, ", ")
}
