package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackrank/internal/output"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
)

var explainInput inputFlags

var explainCmd = &cobra.Command{
	Use:   "explain <suggestion-id>",
	Short: "Show the score breakdown for one suggestion",
	Long: `Score a single suggestion and print every contribution to its total,
the tier it lands in, the resolved client profile and any data anomalies
that were scored as zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

func init() {
	addInputFlags(explainCmd, &explainInput)
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	db, closeDB, err := rt.openStoreIf(explainInput.needsStore())
	if err != nil {
		return err
	}
	defer closeDB()

	p, err := rt.runPass(cmd.Context(), db, explainInput)
	if err != nil {
		return err
	}

	id := args[0]
	var found *prioritize.ScoredSuggestion
	for i := range p.scored {
		if p.scored[i].Suggestion.ID == id {
			found = &p.scored[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("suggestion %q not found", id)
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), found)
	}
	renderExplain(cmd.OutOrStdout(), p, *found)
	return nil
}

func renderExplain(w io.Writer, p *pass, ss prioritize.ScoredSuggestion) {
	fmt.Fprintln(w, output.Section(ss.Suggestion.Title))
	fmt.Fprintln(w)

	fmt.Fprintf(w, " %s%s\n", output.StyleLabel.Render("Suggestion"), ss.Suggestion.ID)
	fmt.Fprintf(w, " %s%s\n", output.StyleLabel.Render("Status"), ss.Suggestion.Status)
	fmt.Fprintf(w, " %s%d votes, %d comments\n", output.StyleLabel.Render("Engagement"),
		ss.Suggestion.Votes, ss.Suggestion.CommentsCount)
	clientLine := fmt.Sprintf("%s <%s>", ss.Client.Name, ss.Client.Email)
	if ss.Client.IsEnterprise {
		clientLine += " " + output.StyleWarning.Render("enterprise")
	}
	fmt.Fprintf(w, " %s%s\n", output.StyleLabel.Render("Client"), clientLine)
	fmt.Fprintf(w, " %s%s  %s\n", output.StyleLabel.Render("Tier"),
		output.TierBadge(ss.Tier), output.ScoreBar(ss.TotalScore, output.BarScale(p.scoring.Config), 20, ss.Tier))

	fmt.Fprintln(w, output.Section("Breakdown"))
	fmt.Fprint(w, output.Breakdown(ss.Breakdown))

	if len(ss.Anomalies) > 0 {
		fmt.Fprintln(w, output.Section("Anomalies"))
		for _, a := range ss.Anomalies {
			fmt.Fprintf(w, "  %s %s: %s\n", output.StyleWarning.Render("!"), a.Contribution.Label(), a.Message)
		}
	}
	fmt.Fprintf(w, "\n %s\n\n", output.StyleMuted.Render(
		fmt.Sprintf("scored at %s using %s", p.scoredAt.Format("2006-01-02 15:04 MST"), p.scoring.Origin)))
}
