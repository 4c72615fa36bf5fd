package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jfmyers9/mpdpanel/internal/action"
	"github.com/jfmyers9/mpdpanel/internal/input"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	actionsYAML    bool
	triggerDryRun  bool
	triggerTimeout time.Duration
)

// actionsCmd represents the actions command
var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "Show the button action table",
	Long: `Show which effect sequence runs for each short and long press.

With --yaml the table is printed in the config file format, ready to be
pasted under the actions key and edited.`,
	Args: cobra.NoArgs,
	RunE: runActions,
}

// triggerCmd represents the trigger command
var triggerCmd = &cobra.Command{
	Use:   "trigger <input> <short|long>",
	Short: "Run the action bound to a press",
	Long: `Run the effect sequence bound to a button press, exactly as the daemon
would, and report how each effect went.

Use --dry-run to print the commands without running them.`,
	Args: cobra.ExactArgs(2),
	RunE: runTrigger,
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(triggerCmd)

	actionsCmd.Flags().BoolVar(&actionsYAML, "yaml", false, "Print the table as config YAML")

	triggerCmd.Flags().BoolVar(&triggerDryRun, "dry-run", false, "Print commands instead of running them")
	triggerCmd.Flags().DurationVar(&triggerTimeout, "timeout", time.Minute, "Abort the sequence after this long")
}

func runActions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := cfg.Table()
	if err != nil {
		return fmt.Errorf("invalid actions: %w", err)
	}

	if actionsYAML {
		out, err := yaml.Marshal(map[string][]action.Entry{"actions": table.Entries()})
		if err != nil {
			return fmt.Errorf("failed to encode actions: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tPRESS\tEFFECTS\t")
	for _, k := range table.Keys() {
		effects := make([]string, 0, len(table[k]))
		for _, eff := range table[k] {
			effects = append(effects, eff.String())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", k.Input, k.Kind, strings.Join(effects, "; "))
	}
	return tw.Flush()
}

// printSink prints commands instead of running them
type printSink struct{}

func (printSink) Execute(ctx context.Context, command string) error {
	fmt.Printf("  would run: %s\n", command)
	return nil
}

func runTrigger(cmd *cobra.Command, args []string) error {
	kind, ok := input.ParsePressKind(args[1])
	if !ok {
		return fmt.Errorf("invalid press %q (must be 'short' or 'long')", args[1])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	table, err := cfg.Table()
	if err != nil {
		return fmt.Errorf("invalid actions: %w", err)
	}

	var sink action.Sink = action.NewShellSink()
	if triggerDryRun {
		sink = printSink{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
	defer cancel()

	press := input.Classification{Input: input.ID(strings.ToUpper(args[0])), Kind: kind}
	dispatcher := action.NewDispatcher(table, sink, zerolog.Nop())
	outcomes := dispatcher.Dispatch(ctx, press)
	if len(outcomes) == 0 {
		return fmt.Errorf("no action bound to %s %s", press.Input, kind)
	}

	failed := 0
	for _, out := range outcomes {
		if out.Succeeded {
			fmt.Printf("✓ %s\n", out.Effect)
		} else {
			failed++
			fmt.Printf("✗ %s: %s\n", out.Effect, out.Detail)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d effects failed", failed, len(outcomes))
	}
	return nil
}
