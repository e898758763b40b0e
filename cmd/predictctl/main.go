package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vinprj/predictml/internal/client"
)

const usage = `usage: predictctl [flags] <command> [args]

commands:
  predict <model> key=value...     run a prediction
  models                           list model metadata
  model <name>                     show one model and its inputs
  importance <model>               feature importance of a served model
  catalog                          list every model's input schema
  history [-limit N] [-model M]    list recent predictions
  stats                            prediction counts per model
  fav add <name> <model> key=value...
  fav list
  fav rm <name>
  fav run <name>

flags:
`

func main() {
	var (
		envPath   string
		server    string
		favorites string
		timeout   time.Duration
	)
	flag.StringVar(&envPath, "env", "", "path to load env from")
	flag.StringVar(&server, "server", "", "API base URL (default $PREDICTML_URL or http://localhost:8000)")
	flag.StringVar(&favorites, "favorites", "", "favorites file (default in the user config dir)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			log.Fatalf("error loading env file '%s': %v", envPath, err)
		}
	}
	if server == "" {
		server = os.Getenv("PREDICTML_URL")
	}
	if server == "" {
		server = "http://localhost:8000"
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app := &app{api: client.New(server), favoritesPath: favorites, out: os.Stdout}
	if err := app.run(ctx, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

var errUsage = errors.New("usage")

type app struct {
	api           *client.Client
	favoritesPath string
	out           io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "predict":
		if len(args) < 2 {
			return errUsage
		}
		fields, err := parseFields(args[2:])
		if err != nil {
			return err
		}
		return a.predict(ctx, args[1], fields)

	case "models":
		return a.print(a.api.Models(ctx))

	case "model":
		if len(args) != 2 {
			return errUsage
		}
		return a.print(a.api.Model(ctx, args[1]))

	case "importance":
		if len(args) != 2 {
			return errUsage
		}
		return a.print(a.api.FeatureImportance(ctx, args[1]))

	case "catalog":
		return a.print(a.api.Catalog(ctx))

	case "history":
		fs := flag.NewFlagSet("history", flag.ContinueOnError)
		limit := fs.Int("limit", 0, "number of records")
		model := fs.String("model", "", "filter by model name")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		return a.print(a.api.History(ctx, *limit, *model))

	case "stats":
		return a.print(a.api.Stats(ctx))

	case "fav":
		return a.fav(ctx, args[1:])

	default:
		return errUsage
	}
}

func (a *app) predict(ctx context.Context, model string, fields map[string]any) error {
	return a.print(a.api.Predict(ctx, model, fields))
}

func (a *app) fav(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	path := a.favoritesPath
	if path == "" {
		p, err := client.DefaultFavoritesPath()
		if err != nil {
			return fmt.Errorf("locate favorites: %w", err)
		}
		path = p
	}
	favs, err := client.OpenFavorites(path)
	if err != nil {
		return err
	}

	switch args[0] {
	case "add":
		if len(args) < 3 {
			return errUsage
		}
		fields, err := parseFields(args[3:])
		if err != nil {
			return err
		}
		if err := favs.Save(client.Favorite{Name: args[1], Model: args[2], Fields: fields}); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "saved %s\n", args[1])
		return nil

	case "list":
		return a.print(favs.List(), nil)

	case "rm":
		if len(args) != 2 {
			return errUsage
		}
		if err := favs.Remove(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "removed %s\n", args[1])
		return nil

	case "run":
		if len(args) != 2 {
			return errUsage
		}
		fav, err := favs.Get(args[1])
		if err != nil {
			return err
		}
		return a.predict(ctx, fav.Model, fav.Fields)

	default:
		return errUsage
	}
}

func (a *app) print(v any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
