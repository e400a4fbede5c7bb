package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-chi/jwtauth"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/tendant/refenti-content/pkg/sitecontent"
	"github.com/tendant/refenti-content/pkg/sitecontent/config"
)

const kindInquiries = "inquiries"

// app carries the output stream shared by all commands
type app struct {
	out io.Writer
}

func newCommand(out io.Writer) *cli.Command {
	a := &app{out: out}
	kindArgs := "<projects|events|news>"

	return &cli.Command{
		Name:  "refenti-admin",
		Usage: "Maintain Refenti site content using the server configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional YAML config file",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output as JSON",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "List the records of a kind",
				ArgsUsage: "<projects|events|news|inquiries>",
				Action:    a.withRuntime(a.list),
			},
			{
				Name:      "assets",
				Usage:     "List the stored assets of a record",
				ArgsUsage: kindArgs + " <id>",
				Action:    a.withRuntime(a.assets),
			},
			{
				Name:      "purge-assets",
				Usage:     "Delete every stored asset of a record, keeping the record",
				ArgsUsage: kindArgs + " <id>",
				Action:    a.withRuntime(a.purgeAssets),
			},
			{
				Name:      "delete",
				Usage:     "Delete a record together with its assets",
				ArgsUsage: kindArgs + " <id>",
				Action:    a.withRuntime(a.delete),
			},
			{
				Name:   "stats",
				Usage:  "Count records and stored assets per kind",
				Action: a.withRuntime(a.stats),
			},
			{
				Name:  "token",
				Usage: "Mint an admin API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Value: "admin", Usage: "Token subject"},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "Token lifetime"},
				},
				Action: a.token,
			},
		},
	}
}

type runtimeAction func(ctx context.Context, cmd *cli.Command, rt *config.Runtime) error

// withRuntime loads the configuration and builds the service for one command
func (a *app) withRuntime(action runtimeAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := config.LoadServerConfig(cmd.String("config"))
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logger := cfg.NewLogger(os.Stderr)

		rt, err := cfg.BuildService(ctx, logger, nil)
		if err != nil {
			return fmt.Errorf("failed to build service: %w", err)
		}
		defer rt.Close()

		return action(ctx, cmd, rt)
	}
}

func (a *app) list(ctx context.Context, cmd *cli.Command, rt *config.Runtime) error {
	raw := cmd.Args().Get(0)
	if raw == kindInquiries {
		inquiries, err := rt.Service.ListInquiries(ctx)
		if err != nil {
			return err
		}
		return a.print(cmd, inquiries, []string{"ID", "DATE", "NAME", "EMAIL", "TYPE"}, func(row func(...interface{})) {
			for _, q := range inquiries {
				row(q.ID, q.Date.Format(time.RFC3339), q.Name, q.Email, q.Type)
			}
		})
	}

	kind, err := sitecontent.ParseAssetKind(raw)
	if err != nil {
		return err
	}

	switch kind {
	case sitecontent.KindProjects:
		projects, err := rt.Service.ListProjects(ctx)
		if err != nil {
			return err
		}
		return a.print(cmd, projects, []string{"ID", "NAME", "CLASS", "LOCATION"}, func(row func(...interface{})) {
			for _, p := range projects {
				row(p.ID, p.Name, p.AssetClass, p.Location)
			}
		})
	case sitecontent.KindEvents:
		events, err := rt.Service.ListEvents(ctx)
		if err != nil {
			return err
		}
		return a.print(cmd, events, []string{"ID", "TITLE", "DATE", "FEATURED"}, func(row func(...interface{})) {
			for _, e := range events {
				row(e.ID, e.Title, e.Date, e.IsFeatured)
			}
		})
	default:
		news, err := rt.Service.ListNews(ctx)
		if err != nil {
			return err
		}
		return a.print(cmd, news, []string{"ID", "TITLE", "CATEGORY", "DATE"}, func(row func(...interface{})) {
			for _, n := range news {
				row(n.ID, n.Title, n.Category, n.Date)
			}
		})
	}
}

func (a *app) assets(ctx context.Context, cmd *cli.Command, rt *config.Runtime) error {
	kind, id, err := kindAndID(cmd)
	if err != nil {
		return err
	}
	assets, err := rt.Service.ListAssets(ctx, kind, id)
	if err != nil {
		return err
	}
	return a.print(cmd, assets, []string{"PATH", "SIZE", "TYPE", "URL"}, func(row func(...interface{})) {
		for _, d := range assets {
			row(d.Path, d.Size, d.ContentType, d.URL)
		}
	})
}

func (a *app) purgeAssets(ctx context.Context, cmd *cli.Command, rt *config.Runtime) error {
	kind, id, err := kindAndID(cmd)
	if err != nil {
		return err
	}
	n, err := rt.Service.PurgeAssets(ctx, kind, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d asset(s) of %s %s\n", n, kind.Singular(), id)
	return nil
}

func (a *app) delete(ctx context.Context, cmd *cli.Command, rt *config.Runtime) error {
	kind, id, err := kindAndID(cmd)
	if err != nil {
		return err
	}

	var report *sitecontent.DeleteReport
	switch kind {
	case sitecontent.KindProjects:
		report, err = rt.Service.DeleteProject(ctx, id)
	case sitecontent.KindEvents:
		report, err = rt.Service.DeleteEvent(ctx, id)
	default:
		report, err = rt.Service.DeleteNews(ctx, id)
	}
	if report != nil {
		fmt.Fprintf(a.out, "Deleted %s %s: record=%t assets=%d\n", kind.Singular(), id, report.RecordDeleted, report.AssetsDeleted)
		for _, w := range report.WarningMessages() {
			fmt.Fprintf(a.out, "warning: %s\n", w)
		}
	}
	return err
}

// KindStatistics aggregates one kind's records and stored objects
type KindStatistics struct {
	Kind       string `json:"kind"`
	Records    int    `json:"records"`
	Assets     int    `json:"assets"`
	AssetBytes int64  `json:"asset_bytes"`
}

func (a *app) stats(ctx context.Context, cmd *cli.Command, rt *config.Runtime) error {
	var stats []KindStatistics
	for _, kind := range []sitecontent.AssetKind{sitecontent.KindProjects, sitecontent.KindEvents, sitecontent.KindNews} {
		n, err := countRecords(ctx, rt.Service, kind)
		if err != nil {
			return err
		}
		objects, err := rt.BlobStore.List(ctx, string(kind)+"/")
		if err != nil {
			return fmt.Errorf("failed to list %s assets: %w", kind, err)
		}
		st := KindStatistics{Kind: string(kind), Records: n, Assets: len(objects)}
		for _, obj := range objects {
			st.AssetBytes += obj.Size
		}
		stats = append(stats, st)
	}

	inquiries, err := rt.Service.ListInquiries(ctx)
	if err != nil {
		return err
	}
	stats = append(stats, KindStatistics{Kind: kindInquiries, Records: len(inquiries)})

	return a.print(cmd, stats, []string{"KIND", "RECORDS", "ASSETS", "BYTES"}, func(row func(...interface{})) {
		for _, st := range stats {
			row(st.Kind, st.Records, st.Assets, st.AssetBytes)
		}
	})
}

func countRecords(ctx context.Context, svc sitecontent.Service, kind sitecontent.AssetKind) (int, error) {
	switch kind {
	case sitecontent.KindProjects:
		items, err := svc.ListProjects(ctx)
		return len(items), err
	case sitecontent.KindEvents:
		items, err := svc.ListEvents(ctx)
		return len(items), err
	default:
		items, err := svc.ListNews(ctx)
		return len(items), err
	}
}

func (a *app) token(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadServerConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	auth := cfg.BuildAuth()
	if auth == nil {
		return errors.New("AUTH_JWT_SECRET is not set")
	}

	claims := map[string]interface{}{
		"sub": cmd.String("subject"),
		"iss": cfg.Auth.Issuer,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, cmd.Duration("ttl"))

	_, token, err := auth.Encode(claims)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(a.out, token)
	return nil
}

// print writes v as JSON with --json, otherwise as a table
func (a *app) print(cmd *cli.Command, v interface{}, header []string, rows func(row func(...interface{}))) error {
	if cmd.Bool("json") {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	rows(func(cols ...interface{}) {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = fmt.Sprint(c)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	})
	return w.Flush()
}

func kindAndID(cmd *cli.Command) (sitecontent.AssetKind, string, error) {
	if cmd.Args().Len() != 2 {
		return "", "", fmt.Errorf("expected <kind> <id>, got %d argument(s)", cmd.Args().Len())
	}
	kind, err := sitecontent.ParseAssetKind(cmd.Args().Get(0))
	if err != nil {
		return "", "", err
	}
	return kind, cmd.Args().Get(1), nil
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		slog.Error("admin command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
