package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"duit/internal/amqp"
	"duit/internal/cli"
	"duit/internal/config"
	"duit/internal/core"
	"duit/internal/extract"
	"duit/internal/oracle"
	"duit/internal/rates"
	"duit/internal/services"
	"duit/internal/storage"
)

const usage = `duit - spending tracker

Usage:
  duit record  -user <id> <free-form text>     record a spend from text
  duit record  -user <id> -image <path>        record a spend from a receipt image
  duit list    -user <id>                      list transactions, newest first
  duit delete  -user <id> -id <tx>             delete a transaction
  duit budget  -user <id> -category <name> -amount <n> -period "September 2025"
  duit budgets -user <id> [-year <n>]          list budgets
  duit summary -user <id> [-month YYYY-MM | -year <n>]
  duit categories                              list known categories
  duit rates                                   show cached exchange rates
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx := context.Background()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	app, err := buildApp(ctx, cfg, repo, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.close()

	if err := app.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	extractor    *extract.Extractor
	resolver     *rates.Resolver
	transactions *services.TransactionService
	budgets      *services.BudgetService
	categories   *services.CategoryService
	amqpClient   *amqp.Client
}

func buildApp(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository, logger *slog.Logger) (*app, error) {
	gemini, err := oracle.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("init oracle: %w", err)
	}

	resolver := rates.NewResolver(
		rates.NewAPIQuoter(cfg.RateAPIURL, cfg.RateAPIKey),
		rates.Options{CacheTTL: cfg.RateCacheTTL, CacheSize: cfg.RateCacheSize},
	)
	extractor := extract.New(gemini, resolver, cfg.SettlementCurrency)

	// AMQP is optional: without a broker, events are simply not published.
	var amqpClient *amqp.Client
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			publisher = amqpClient
		}
	}

	categories := services.NewCategoryService(repo)
	return &app{
		extractor:    extractor,
		resolver:     resolver,
		transactions: services.NewTransactionService(repo, categories, publisher),
		budgets:      services.NewBudgetService(repo, categories),
		categories:   categories,
		amqpClient:   amqpClient,
	}, nil
}

func (a *app) close() {
	if a.amqpClient != nil {
		a.amqpClient.Close()
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "record":
		return a.record(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "budget":
		return a.budget(ctx, args)
	case "budgets":
		return a.listBudgets(ctx, args)
	case "summary":
		return a.summary(ctx, args)
	case "categories":
		return a.listCategories(ctx)
	case "rates":
		return a.rates(args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) record(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	image := fs.String("image", "", "path to a receipt image")
	fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("-user is required")
	}

	var draft *core.Draft
	var err error
	if *image != "" {
		data, readErr := os.ReadFile(*image)
		if readErr != nil {
			return fmt.Errorf("read image: %w", readErr)
		}
		draft, err = a.extractor.FromImage(ctx, data, mimeForPath(*image))
	} else {
		text := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if text == "" {
			return fmt.Errorf("nothing to record: pass text or -image")
		}
		draft, err = a.extractor.FromText(ctx, text)
	}
	if err != nil {
		return err
	}

	tx, err := a.transactions.Commit(ctx, *user, draft)
	if err != nil {
		return err
	}

	fmt.Printf("recorded %s: %s %s %s (%s) at %s\n",
		tx.ID, tx.Name, tx.Amount, tx.Currency, tx.CategoryName,
		tx.Datetime.Format("2006-01-02 15:04"))
	if tx.OriginalAmount != nil {
		fmt.Printf("  converted from %s %s\n", *tx.OriginalAmount, tx.OriginalCurrency)
	}
	if draft.ConversionFailed {
		fmt.Println("  note: exchange rate unavailable, amount kept in the original currency")
	}
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("-user is required")
	}

	txs, err := a.transactions.List(ctx, *user)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		fmt.Printf("%s  %-16s %12s %s  %-14s %s\n",
			tx.Datetime.Format("2006-01-02 15:04"), tx.Name, tx.Amount, tx.Currency,
			tx.CategoryName, tx.ID)
	}
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	id := fs.String("id", "", "transaction id")
	fs.Parse(args)

	if *user == "" || *id == "" {
		return fmt.Errorf("-user and -id are required")
	}
	if err := a.transactions.Delete(ctx, *user, *id); err != nil {
		return err
	}
	fmt.Println("deleted", *id)
	return nil
}

func (a *app) budget(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("budget", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	category := fs.String("category", "", "category name")
	amount := fs.String("amount", "", "allocation in the settlement currency")
	period := fs.String("period", "", `accounting period, e.g. "September 2025"`)
	fs.Parse(args)

	if *user == "" || *category == "" || *amount == "" || *period == "" {
		return fmt.Errorf("-user, -category, -amount and -period are required")
	}
	alloc, err := decimal.NewFromString(*amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q", *amount)
	}

	b, err := a.budgets.Create(ctx, *user, services.CreateBudgetInput{
		Category: *category,
		Amount:   alloc,
		Period:   *period,
	})
	if err != nil {
		return err
	}
	fmt.Printf("budget %s: %s %s for %s\n", b.ID, b.Amount, b.CategoryName, b.Period)
	return nil
}

func (a *app) listBudgets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("budgets", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	year := fs.Int("year", 0, "filter by the year the period starts in")
	fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("-user is required")
	}
	budgets, err := a.budgets.List(ctx, *user, *year)
	if err != nil {
		return err
	}
	for _, b := range budgets {
		fmt.Printf("%-16s %-14s %12s  %s\n", b.Period, b.CategoryName, b.Amount, b.ID)
	}
	return nil
}

func (a *app) summary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	month := fs.String("month", "", "YYYY-MM filter")
	year := fs.Int("year", 0, "year filter")
	fs.Parse(args)

	if *user == "" {
		return fmt.Errorf("-user is required")
	}

	sum, err := a.budgets.Summarize(ctx, *user, services.SummaryOptions{Month: *month, Year: *year})
	if err != nil {
		return err
	}
	for _, st := range sum.Budgets {
		fmt.Printf("%-16s %-14s budget %12s  spent %12s  remaining %12s\n",
			st.Period, st.CategoryName, st.Amount, st.Spent, st.Remaining)
	}
	fmt.Printf("%-31s budget %12s  spent %12s  remaining %12s\n",
		"total", sum.TotalBudget, sum.TotalSpent, sum.TotalRemaining)
	return nil
}

func (a *app) listCategories(ctx context.Context) error {
	cats, err := a.categories.List(ctx)
	if err != nil {
		return err
	}
	for _, cat := range cats {
		status := ""
		if !cat.IsActive {
			status = "  (inactive)"
		}
		fmt.Printf("%-20s %s%s\n", cat.Name, cat.ID, status)
	}
	return nil
}

func (a *app) rates(args []string) error {
	fs := flag.NewFlagSet("rates", flag.ExitOnError)
	refresh := fs.Bool("refresh", false, "drop the cache before printing")
	fs.Parse(args)

	if *refresh {
		a.resolver.Refresh()
	}
	cached := a.resolver.CachedRates()
	if len(cached) == 0 {
		fmt.Println("no cached rates")
		return nil
	}
	for pair, rate := range cached {
		fmt.Printf("%s: %s\n", pair, rate)
	}
	return nil
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
