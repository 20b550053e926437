package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkazm04/goat/internal/app"
	"github.com/xkazm04/goat/internal/config"
	"github.com/xkazm04/goat/internal/db"
	"github.com/xkazm04/goat/internal/domain"
	"github.com/xkazm04/goat/internal/drag"
	"github.com/xkazm04/goat/internal/migrate"
	"github.com/xkazm04/goat/internal/repo"
	"github.com/xkazm04/goat/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "goat",
	Short: "GOAT ranking board CLI",
	Long: `GOAT manages ranked-grid and tier-list boards.
Core concepts:
- Workspace: your .goat directory holding the SQLite database; goat.yml next to it configures defaults.
- Session: one board with a ranked grid, a backlog of unplaced items, tier rows, and an unranked pool.
- Drop: every board change is a drop gesture - the same pipeline the HTTP API runs (classify, validate, execute).
- Rules: the validation policy (swaps, availability, same-position drops); change it with 'goat rules set'.
- Event log: diary of applied operations, view with 'goat log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("GOAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(sessionCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(dropCmd())
	rootCmd.AddCommand(removeCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func sessionCmd() *cobra.Command {
	s := &cobra.Command{Use: "session", Short: "Manage board sessions"}
	s.AddCommand(sessionCreateCmd())
	s.AddCommand(sessionListCmd())
	s.AddCommand(sessionShowCmd())
	s.AddCommand(sessionDeleteCmd())
	return s
}

func sessionCreateCmd() *cobra.Command {
	var name string
	var gridSize int
	var tiers []string
	var items []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				opts := app.CreateSessionOptions{
					Name:     name,
					GridSize: gridSize,
					Tiers:    tiers,
					ActorID:  viper.GetString("actor-id"),
				}
				for _, title := range items {
					opts.Items = append(opts.Items, domain.Item{Title: title})
				}
				s, err := a.CreateSession(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "session name")
	cmd.Flags().IntVar(&gridSize, "grid-size", 0, "grid size (default from config)")
	cmd.Flags().StringSliceVar(&tiers, "tiers", nil, "tier ids, best first")
	cmd.Flags().StringArrayVar(&items, "item", nil, "backlog item title (repeatable)")
	return cmd
}

func sessionListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				sessions, err := a.ListSessions(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(sessions)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Grid", "Created"})
				for _, s := range sessions {
					tw.AppendRow(table.Row{s.ID, s.Name, s.GridSize, s.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func sessionShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				rec, err := a.Repo.GetSession(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(rec)
			})
		},
	}
	return cmd
}

func sessionDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.DeleteSession(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func itemCmd() *cobra.Command {
	item := &cobra.Command{Use: "item", Short: "Manage backlog items"}
	var titles []string
	add := &cobra.Command{
		Use:   "add <session-id>",
		Short: "Add backlog items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(titles) == 0 {
				return fmt.Errorf("--title required")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				items := make([]domain.Item, 0, len(titles))
				for _, t := range titles {
					items = append(items, domain.Item{Title: t})
				}
				return a.AddItems(ctx, args[0], items, viper.GetString("actor-id"))
			})
		},
	}
	add.Flags().StringArrayVar(&titles, "title", nil, "item title (repeatable)")
	item.AddCommand(add)
	return item
}

func boardCmd() *cobra.Command {
	b := &cobra.Command{Use: "board", Short: "Board state"}
	b.AddCommand(boardShowCmd())
	return b
}

func boardShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Render the board (grid, tiers, backlog)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				bd, err := a.Board(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"grid":    bd.GridSnapshot(),
						"backlog": bd.BacklogItems(),
						"pool":    bd.PoolItems(),
					})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Rank", "Item"})
				for i, slot := range bd.GridSnapshot() {
					title := ""
					if slot.Item != nil {
						title = slot.Item.Title
					}
					tw.AppendRow(table.Row{i + 1, title})
				}
				tw.Render()

				for _, tierID := range bd.TierIDs() {
					names := make([]string, 0)
					for _, it := range bd.TierItems(tierID) {
						names = append(names, it.Title)
					}
					fmt.Printf("Tier %s: %s\n", tierID, strings.Join(names, ", "))
				}
				if pool := bd.PoolItems(); len(pool) > 0 {
					names := make([]string, 0, len(pool))
					for _, it := range pool {
						names = append(names, it.Title)
					}
					fmt.Printf("Pool: %s\n", strings.Join(names, ", "))
				}
				if avail := bd.AvailableItems(); len(avail) > 0 {
					names := make([]string, 0, len(avail))
					for _, it := range avail {
						names = append(names, it.Title)
					}
					fmt.Printf("Backlog: %s\n", strings.Join(names, ", "))
				}
				return nil
			})
		},
	}
	return cmd
}

func dropCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "drop <session-id> <item-id>",
		Short: "Run a drop gesture",
		Long: `Runs the same pipeline a drag-end event goes through.
Locations: backlog, grid:<pos> (1-based), tier:<id>, pool.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return fmt.Errorf("--to required")
			}
			active, err := activeRef(args[1], from)
			if err != nil {
				return err
			}
			over, err := overRef(to)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Notifier.SetSink(printNotification)
				res, err := a.HandleDragEnd(ctx, args[0], drag.EndEvent{Active: active, Over: over}, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "backlog", "source location")
	cmd.Flags().StringVar(&to, "to", "", "target location")
	return cmd
}

func removeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <session-id> <position>",
		Short: "Remove the item at a grid position (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil || pos < 1 {
				return fmt.Errorf("position must be a positive number")
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				a.Notifier.SetSink(printNotification)
				res, err := a.RemoveFromGrid(ctx, args[0], pos-1, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(res)
			})
		},
	}
	return cmd
}

func rulesCmd() *cobra.Command {
	r := &cobra.Command{Use: "rules", Short: "Validation policy"}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the current policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg.Rules)
		},
	}

	var allowSwap, requireAvailable, allowSamePosition bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Update the policy in goat.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("allow-swap") {
				cfg.Rules.AllowSwap = allowSwap
			}
			if cmd.Flags().Changed("require-available") {
				cfg.Rules.RequireAvailableItem = requireAvailable
			}
			if cmd.Flags().Changed("allow-same-position") {
				cfg.Rules.AllowSamePosition = allowSamePosition
			}
			data, err := cfg.ToYAML()
			if err != nil {
				return err
			}
			if err := os.WriteFile(config.Path(workspace), data, 0o644); err != nil {
				return err
			}
			return printJSONOrTable(cfg.Rules)
		},
	}
	set.Flags().BoolVar(&allowSwap, "allow-swap", true, "occupied slots swap instead of rejecting")
	set.Flags().BoolVar(&requireAvailable, "require-available", true, "items must be unplaced and unlocked")
	set.Flags().BoolVar(&allowSamePosition, "allow-same-position", false, "same-position drops count as applied")

	r.AddCommand(get)
	r.AddCommand(set)
	return r
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of applied operations: placements, moves, swaps, tier changes.",
	}
	var n int
	var sessionID string
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				events, err := a.Repo.ListEvents(ctx, sessionID, n)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	tail.Flags().IntVar(&n, "n", 20, "number of events")
	tail.Flags().StringVar(&sessionID, "session", "", "session filter")
	log.AddCommand(tail)
	return log
}

func apikeyCmd() *cobra.Command {
	ak := &cobra.Command{Use: "apikey", Short: "API keys for the HTTP server"}

	var actor, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API key (secret printed once)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if actor == "" {
				actor = viper.GetString("actor-id")
			}
			secretBytes := make([]byte, 24)
			if _, err := rand.Read(secretBytes); err != nil {
				return err
			}
			secret := "goat_" + hex.EncodeToString(secretBytes)
			key := domain.APIKey{
				ID:        uuid.NewString(),
				ActorID:   actor,
				Name:      name,
				KeyHash:   repo.HashAPIKey(secret),
				CreatedAt: time.Now().UTC().Format(time.RFC3339),
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.InsertAPIKey(ctx, key); err != nil {
					return err
				}
				fmt.Printf("id: %s\nactor: %s\nkey: %s\n", key.ID, key.ActorID, secret)
				return nil
			})
		},
	}
	create.Flags().StringVar(&actor, "actor", "", "actor the key authenticates as")
	create.Flags().StringVar(&name, "name", "", "key label")

	list := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, "")
				if err != nil {
					return err
				}
				return printJSONOrTable(keys)
			})
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}

	ak.AddCommand(create)
	ak.AddCommand(list)
	ak.AddCommand(revoke)
	return ak
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var anonReads bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			log, err := zap.NewProduction()
			if err != nil {
				return err
			}
			defer log.Sync()

			a := app.New(conn, cfg, log)
			authCfg := server.AuthConfig{
				JWTSecret:           os.Getenv("GOAT_JWT_SECRET"),
				AllowAnonymousReads: anonReads || cfg.Server.AllowAnonymousReads,
			}
			handler, err := server.New(server.Config{App: a, BasePath: basePath, Auth: authCfg, Log: log})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving GOAT API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&anonReads, "allow-anonymous-reads", false, "let unauthenticated GETs through")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	a := app.New(conn, cfg, zap.NewNop())
	defer a.Flush()
	return fn(ctx, a)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

// activeRef builds the dragged-element reference from an item id and a
// source location string.
func activeRef(itemID, from string) (*drag.ElementRef, error) {
	data := &drag.ElementData{ItemID: itemID}
	switch {
	case from == "" || from == "backlog":
		data.Type = string(domain.SourceBacklog)
	case from == "pool":
		data.Type = string(domain.SourceUnrankedPool)
	case strings.HasPrefix(from, "grid:"):
		pos, err := parsePos(strings.TrimPrefix(from, "grid:"))
		if err != nil {
			return nil, err
		}
		data.Type = string(domain.SourceGrid)
		data.GridPosition = &pos
	case strings.HasPrefix(from, "tier:"):
		data.Type = string(domain.SourceTier)
		data.TierID = strings.TrimPrefix(from, "tier:")
	default:
		return nil, fmt.Errorf("unknown source location %q", from)
	}
	return &drag.ElementRef{ID: itemID, Data: data}, nil
}

func overRef(to string) (*drag.ElementRef, error) {
	data := &drag.ElementData{}
	id := to
	switch {
	case to == "pool":
		data.Type = string(domain.TargetUnrankedPool)
	case strings.HasPrefix(to, "grid:"):
		pos, err := parsePos(strings.TrimPrefix(to, "grid:"))
		if err != nil {
			return nil, err
		}
		data.Type = string(domain.TargetGridSlot)
		data.Position = &pos
		id = fmt.Sprintf("grid-slot-%d", pos)
	case strings.HasPrefix(to, "tier:"):
		data.Type = string(domain.TargetTierRow)
		data.TierID = strings.TrimPrefix(to, "tier:")
		id = "tier-" + data.TierID
	default:
		return nil, fmt.Errorf("unknown target location %q", to)
	}
	return &drag.ElementRef{ID: id, Data: data}, nil
}

// parsePos converts a 1-based position argument to the 0-based index the
// pipeline uses.
func parsePos(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("position must be a positive number, got %q", s)
	}
	return n - 1, nil
}

func printNotification(n domain.Notification) {
	fmt.Printf("[%s] %s: %s\n", n.Type, n.Title, n.Description)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
