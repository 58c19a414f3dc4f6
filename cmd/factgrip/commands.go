package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"factgrip/internal/config"
	"factgrip/internal/domain"
	"factgrip/internal/logger"
	"factgrip/internal/retrieval"
	"factgrip/internal/ui/views"
)

// cardWidth is the card width used for plain text output
const cardWidth = 80

func (a *app) randomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Print random facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, l := a.setup(cmd)
			ctx, stop := commandContext(cmd)
			defer stop()

			count := a.count
			if count <= 0 {
				count = cfg.Random.Count
			}
			facts, err := a.orchestrator(cfg, l).FetchRandom(ctx, count)
			if err != nil {
				return err
			}
			return a.printFacts(cmd.OutOrStdout(), facts)
		},
	}
	cmd.Flags().IntVarP(&a.count, "count", "n", 0, "number of facts (default from config)")
	a.addOutputFlags(cmd)
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Print the facts whose titles are suggested for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l := a.setup(cmd)
			ctx, stop := commandContext(cmd)
			defer stop()

			facts, err := a.orchestrator(cfg, l).SearchByQuery(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.printFacts(cmd.OutOrStdout(), facts)
		},
	}
	a.addOutputFlags(cmd)
	return cmd
}

func (a *app) titleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "title TITLE",
		Short: "Print the fact with an exact title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l := a.setup(cmd)
			ctx, stop := commandContext(cmd)
			defer stop()

			title := strings.Join(args, " ")
			fact, ok := a.orchestrator(cfg, l).FetchByTitle(ctx, title)
			if !ok {
				return fmt.Errorf("no fact titled %q", title)
			}
			return a.printFacts(cmd.OutOrStdout(), []domain.Fact{fact})
		},
	}
	a.addOutputFlags(cmd)
	return cmd
}

func (a *app) suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest PARTIAL",
		Short: "Print title suggestions for partial input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, l := a.setup(cmd)
			ctx, stop := commandContext(cmd)
			defer stop()

			titles, err := newClient(cfg, l).Autocomplete(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				return writeJSON(out, titles)
			}
			for _, title := range titles {
				fmt.Fprintln(out, title)
			}
			return nil
		},
	}
	a.addOutputFlags(cmd)
	return cmd
}

func (a *app) addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")
}

// setup loads the config and builds a logger on stderr for one-shot commands
func (a *app) setup(cmd *cobra.Command) (*config.Config, *log.Logger) {
	cfg, err := a.loadConfig()
	l := logger.New(cmd.ErrOrStderr(), "factgrip", logger.ParseLevel(cfg.Log.Level))
	if err != nil {
		l.Warn("Error loading config, using defaults", "err", err)
	}
	return cfg, l
}

func (a *app) orchestrator(cfg *config.Config, l *log.Logger) *retrieval.Orchestrator {
	return retrieval.New(newClient(cfg, l),
		retrieval.WithMaxResults(cfg.Search.MaxResults),
		retrieval.WithLogger(l),
	)
}

func (a *app) printFacts(w io.Writer, facts []domain.Fact) error {
	if a.jsonOut {
		return writeJSON(w, facts)
	}
	if len(facts) == 0 {
		_, err := fmt.Fprintln(w, "No facts found.")
		return err
	}

	cards := views.NewCardRenderer(views.NewStyles())
	for _, fact := range facts {
		if _, err := fmt.Fprintln(w, cards.RenderCard(fact, false, cardWidth)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
