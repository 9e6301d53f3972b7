package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hindsightlabs/hindsight/internal/profile"
	"github.com/hindsightlabs/hindsight/plugin/ai"
	"github.com/hindsightlabs/hindsight/plugin/eventbus"
	"github.com/hindsightlabs/hindsight/server/brain"
	"github.com/hindsightlabs/hindsight/server/httpapi"
	"github.com/hindsightlabs/hindsight/server/memory"
	"github.com/hindsightlabs/hindsight/server/miner"
	minerrunner "github.com/hindsightlabs/hindsight/server/runner/miner"
)

const greetingBanner = `
hindsight - per-agent learning memory
`

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "hindsight",
	Short: "Durable learning memory for AI agents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stats API server and background pattern miner",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		manager := memory.NewManager(p)
		defer manager.Close()

		var bus eventbus.Publisher = eventbus.Nop{}
		if p.EventLog != "" {
			bus = eventbus.NewFileBus(p.EventLog)
		}

		runner := minerrunner.NewRunner(miner.NewMiner(manager, bus), p.MineInterval)
		go runner.Run(ctx)

		server := httpapi.NewServer(p, manager, runner)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("stats API server stopped", "error", err)
				stop()
			}
		}()

		fmt.Print(greetingBanner)
		slog.Info("daemon started",
			"version", p.Version,
			"mode", p.Mode,
			"data", p.Data,
			"mine_interval", p.MineInterval)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine [agent]",
	Short: "Mine patterns from decision history, for one agent or all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		manager := memory.NewManager(p)
		defer manager.Close()

		var bus eventbus.Publisher = eventbus.Nop{}
		if p.EventLog != "" {
			bus = eventbus.NewFileBus(p.EventLog)
		}
		m := miner.NewMiner(manager, bus)

		if len(args) == 1 {
			result, err := m.Agent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		if _, err := m.All(cmd.Context()); err != nil {
			return err
		}
		return printStats(cmd.Context(), manager)
	},
}

var thinkCmd = &cobra.Command{
	Use:   "think <agent> <situation> <question>",
	Short: "Ask an agent a question with its memory injected into the prompt",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		manager := memory.NewManager(p)
		defer manager.Close()

		st, err := manager.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var llm ai.LLMService
		if p.IsAIEnabled() {
			llm, err = ai.NewLLMService(ai.ConfigFromProfile(p))
			if err != nil {
				return err
			}
		}

		b := brain.New(st, llm, viper.GetString("system-prompt"))
		result, err := b.Think(cmd.Context(), args[1], args[2], nil)
		if err != nil {
			return err
		}

		if result.MemoryContext != "" {
			fmt.Printf("memory injected (%d patterns, %d decisions):\n%s\n\n",
				result.PatternsUsed, result.DecisionsFound, result.MemoryContext)
		}
		if result.Content == "" {
			fmt.Println("(no response; set HINDSIGHT_AI_ENABLED=true and HINDSIGHT_AI_API_KEY to enable generation)")
			return nil
		}
		fmt.Println(result.Content)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print memory stats for all agents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := loadProfile()
		if err != nil {
			return err
		}

		manager := memory.NewManager(p)
		defer manager.Close()
		return printStats(cmd.Context(), manager)
	},
}

func printStats(ctx context.Context, manager *memory.Manager) error {
	agents, err := manager.ListAgents()
	if err != nil {
		return err
	}
	if len(agents) == 0 {
		fmt.Println("No agent memory databases found.")
		return nil
	}

	fmt.Printf("\n%-12s %10s %10s %10s %8s %10s\n",
		"Agent", "Decisions", "Resolved", "Patterns", "WR", "DB Size")
	fmt.Println(strings.Repeat("-", 65))
	for _, agent := range agents {
		st, err := manager.Open(ctx, agent)
		if err != nil {
			return err
		}
		s, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		wr := "N/A"
		if s.WinCount+s.LossCount > 0 {
			wr = fmt.Sprintf("%.1f%%", s.WinRate)
		}
		fmt.Printf("%-12s %10d %10d %10d %8s %8.1fKB\n",
			agent, s.TotalDecisions, s.ResolvedDecisions, s.ActivePatterns, wr, s.DBSizeKB)
	}
	fmt.Println()
	return nil
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:         viper.GetString("mode"),
		Addr:         viper.GetString("addr"),
		Port:         viper.GetInt("port"),
		Data:         viper.GetString("data"),
		Driver:       viper.GetString("driver"),
		MineInterval: viper.GetDuration("mine-interval"),
		Version:      Version,
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func setupLogging() {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

func init() {
	cobra.OnInitialize(setupLogging)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the daemon, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address for the stats API server")
	rootCmd.PersistentFlags().Int("port", 8292, "binding port for the stats API server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver")
	rootCmd.PersistentFlags().Duration("mine-interval", 6*time.Hour, "how often the background miner sweeps all agents")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	thinkCmd.Flags().String("system-prompt", "", "base system prompt for the agent")
	if err := viper.BindPFlag("system-prompt", thinkCmd.Flags().Lookup("system-prompt")); err != nil {
		panic(err)
	}

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "mine-interval", "verbose"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("hindsight")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, mineCmd, statsCmd, thinkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
