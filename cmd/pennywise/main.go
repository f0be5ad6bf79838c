package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pennywise/internal/amqp"
	"pennywise/internal/cli"
	"pennywise/internal/config"
	"pennywise/internal/core"
	applog "pennywise/internal/log"
	"pennywise/internal/remote"
	"pennywise/internal/stats"
	"pennywise/internal/storage"
	"pennywise/internal/store"
)

var usage = `pennywise - personal expense tracker

Usage:
  pennywise <command> [flags]

Account:
  register -u <email>        create an account and sign in
  login    -u <email>        sign in
  logout                     sign out
  whoami                     show the signed-in user

Expenses:
  add   -title <t> -desc <d> -amount <a> [-category <c>]
  list  [-cached]            list expenses (cached skips the network)
  edit  -id <id> [-title <t>] [-desc <d>] [-amount <a>] [-category <c>]
  rm    -id <id>             delete an expense

Insights:
  stats                      totals, averages and budget status
  chart [-out <file>]        render the category pie chart

Settings:
  budget set <amount>        set the monthly budget limit
  budget clear               remove the budget limit
  notifications on|off       toggle budget alerts

Categories: ` + strings.Join(core.Categories(), ", ")

type app struct {
	cfg      *config.Config
	logger   *applog.Logger
	vault    *storage.Vault
	remote   *remote.Client
	session  *store.SessionStore
	expenses *store.ExpenseStore
	alerts   *amqp.Client
	gate     *core.AlertGate
	stdin    io.Reader
	stdout   io.Writer
}

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	vault := cli.InitVault(logger, cfg.SessionDBPath)
	defer vault.Close()

	client := cli.InitRemote(logger, cfg)
	alerts := cli.InitAMQP(logger, cfg)
	if alerts != nil {
		defer alerts.Close()
	}

	session := store.NewSessionStore(client, vault, logger)
	expenses := store.NewExpenseStore(client, vault, session, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		vault:    vault,
		remote:   client,
		session:  session,
		expenses: expenses,
		alerts:   alerts,
		gate:     core.NewAlertGate(),
		stdin:    os.Stdin,
		stdout:   os.Stdout,
	}

	session.Subscribe(func(tr store.Transition) {
		logger.Debug("Session state changed",
			"from", string(tr.From),
			"to", string(tr.To))
	})

	ctx := context.Background()
	session.Init(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		a.session.SignOut(ctx)
		fmt.Fprintln(a.stdout, "Signed out.")
		return nil
	case "whoami":
		return a.whoami()
	case "add":
		return a.add(ctx, args)
	case "list":
		return a.list(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "rm":
		return a.remove(ctx, args)
	case "stats":
		return a.stats(ctx)
	case "chart":
		return a.chart(ctx, args)
	case "budget":
		return a.budget(ctx, args)
	case "notifications":
		return a.notifications(ctx, args)
	case "help", "-h", "--help":
		fmt.Fprintln(a.stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q (try 'pennywise help')", command)
	}
}

func (a *app) requireUser() (*core.User, error) {
	user := a.session.CurrentUser()
	if user == nil {
		return nil, fmt.Errorf("not signed in (run 'pennywise login')")
	}
	return user, nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	username := fs.String("u", "", "email address to register")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("register requires -u <email>")
	}

	password, err := cli.ReadPassword(a.stdin, a.stdout, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := cli.ReadPassword(a.stdin, a.stdout, "Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	if err := a.session.SignUp(ctx, *username, password); err != nil {
		return fmt.Errorf("%s", a.session.Err())
	}
	fmt.Fprintf(a.stdout, "Welcome, %s!\n", *username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "email address to sign in with")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		return fmt.Errorf("login requires -u <email>")
	}

	password, err := cli.ReadPassword(a.stdin, a.stdout, "Password: ")
	if err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, *username, password); err != nil {
		return fmt.Errorf("%s", a.session.Err())
	}
	fmt.Fprintf(a.stdout, "Signed in as %s.\n", *username)
	return nil
}

func (a *app) whoami() error {
	user, err := a.requireUser()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s\n", user.Username)
	fmt.Fprintf(a.stdout, "  member since:  %s\n", core.FormatDate(user.CreatedAt))
	if user.BudgetLimit > 0 {
		fmt.Fprintf(a.stdout, "  budget limit:  %s/month\n", core.FormatCurrency(user.BudgetLimit))
	} else {
		fmt.Fprintf(a.stdout, "  budget limit:  not set\n")
	}
	fmt.Fprintf(a.stdout, "  notifications: %v\n", user.NotificationsEnabled)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	title := fs.String("title", "", "expense title")
	desc := fs.String("desc", "", "expense description")
	amountStr := fs.String("amount", "", "amount, e.g. 12.50 or 12,50")
	category := fs.String("category", "", "category (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	amount, err := core.ParseAmount(*amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", *amountStr, err)
	}

	draft := core.ExpenseDraft{
		Title:       *title,
		Description: *desc,
		Amount:      amount,
		Category:    *category,
	}
	if err := a.expenses.Add(ctx, draft); err != nil {
		return fmt.Errorf("%s", a.expenses.Err())
	}
	fmt.Fprintf(a.stdout, "Added %q (%s).\n", draft.Title, core.FormatCurrency(draft.Amount))

	a.maybeAlert(ctx)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	user, err := a.requireUser()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	cached := fs.Bool("cached", false, "read the last snapshot instead of the network")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var items []core.Expense
	if *cached {
		snapshot, savedAt, err := a.vault.LoadSnapshot(ctx, user.ID)
		if err != nil {
			return err
		}
		if snapshot == nil {
			return fmt.Errorf("no cached expenses for %s", user.Username)
		}
		fmt.Fprintf(a.stdout, "Cached snapshot from %s\n", savedAt.Format(time.RFC822))
		items = snapshot
	} else {
		// The store fetched on session restore; surface that failure here
		// instead of printing an empty list.
		if msg := a.expenses.Err(); msg != "" {
			return fmt.Errorf("%s (try 'pennywise list -cached')", msg)
		}
		items = a.expenses.Expenses()
	}

	if len(items) == 0 {
		fmt.Fprintln(a.stdout, "No expenses yet.")
		return nil
	}
	for _, e := range items {
		cat := e.Category
		if cat == "" {
			cat = "uncategorized"
		}
		fmt.Fprintf(a.stdout, "%-12s %-12s %10s  %-14s %s\n",
			e.ID, core.FormatDate(e.CreatedAt), core.FormatCurrency(e.Amount), cat, e.Title)
	}
	fmt.Fprintf(a.stdout, "Total: %s (%d expenses)\n",
		core.FormatCurrency(core.CalculateTotal(items)), len(items))
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	id := fs.String("id", "", "expense id")
	title := fs.String("title", "", "new title")
	desc := fs.String("desc", "", "new description")
	amountStr := fs.String("amount", "", "new amount")
	category := fs.String("category", "", "new category")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("edit requires -id <id>")
	}

	var patch core.ExpensePatch
	var touched bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
			touched = true
		case "desc":
			patch.Description = desc
			touched = true
		case "category":
			patch.Category = category
			touched = true
		case "amount":
			touched = true
		}
	})
	if *amountStr != "" {
		amount, err := core.ParseAmount(*amountStr)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", *amountStr, err)
		}
		patch.Amount = &amount
	}
	if !touched {
		return fmt.Errorf("edit requires at least one of -title, -desc, -amount, -category")
	}
	if patch.Category != nil && !core.IsValidCategory(*patch.Category) {
		return fmt.Errorf("unknown category %q", *patch.Category)
	}

	if err := a.expenses.Update(ctx, *id, patch); err != nil {
		return fmt.Errorf("%s", a.expenses.Err())
	}
	fmt.Fprintf(a.stdout, "Updated %s.\n", *id)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}

	fs := flag.NewFlagSet("rm", flag.ContinueOnError)
	id := fs.String("id", "", "expense id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("rm requires -id <id>")
	}

	if err := a.expenses.Delete(ctx, *id); err != nil {
		return fmt.Errorf("%s", a.expenses.Err())
	}
	fmt.Fprintf(a.stdout, "Deleted %s.\n", *id)
	return nil
}

// stats refreshes the user record and the expense list concurrently,
// then prints the summary and budget status.
func (a *app) stats(ctx context.Context) error {
	user, err := a.requireUser()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fresh, err := a.remote.GetUser(gctx, user.ID)
		if err != nil {
			return err
		}
		if fresh != nil {
			merged := core.MergeUser(*user, *fresh)
			user = &merged
		}
		return nil
	})
	g.Go(func() error {
		return a.expenses.Fetch(gctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	items := a.expenses.Expenses()
	summary := core.Summarize(items)

	fmt.Fprintf(a.stdout, "Expenses: %d\n", summary.Count)
	fmt.Fprintf(a.stdout, "Total:    %s\n", core.FormatCurrency(summary.Total))
	fmt.Fprintf(a.stdout, "Average:  %s\n", core.FormatCurrency(summary.Average))
	if len(summary.ByCategory) > 0 {
		fmt.Fprintln(a.stdout, "By category:")
		for _, ct := range summary.ByCategory {
			fmt.Fprintf(a.stdout, "  %-14s %10s\n", ct.Category, core.FormatCurrency(ct.Total))
		}
	}

	status := core.EvaluateBudget(summary.Total, user.BudgetLimit)
	if user.BudgetLimit > 0 {
		fmt.Fprintf(a.stdout, "Budget:   %s/month (%d%% used)\n",
			core.FormatCurrency(user.BudgetLimit), status.PercentUsed)
	}

	a.maybeAlert(ctx)
	return nil
}

func (a *app) chart(ctx context.Context, args []string) error {
	user, err := a.requireUser()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	out := fs.String("out", "", "output PNG path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.expenses.Fetch(ctx); err != nil {
		return fmt.Errorf("%s", a.expenses.Err())
	}
	summary := core.Summarize(a.expenses.Expenses())
	png, err := stats.RenderCategoryPie(summary.ByCategory)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		if err := os.MkdirAll(a.cfg.ChartDir, 0755); err != nil {
			return err
		}
		path = filepath.Join(a.cfg.ChartDir,
			fmt.Sprintf("spending-%s.png", time.Now().Format("2006-01-02")))
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return err
	}

	a.logger.Info("Chart written",
		applog.FieldPath, path,
		applog.FieldUserID, user.ID)
	fmt.Fprintf(a.stdout, "Chart written to %s\n", path)
	return nil
}

func (a *app) budget(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("budget requires 'set <amount>' or 'clear'")
	}

	var limit float64
	switch args[0] {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("budget set requires an amount")
		}
		parsed, err := core.ParseAmount(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
		limit = parsed
	case "clear":
		limit = 0
	default:
		return fmt.Errorf("unknown budget action %q", args[0])
	}

	if err := a.session.UpdateUser(ctx, core.UserPatch{BudgetLimit: &limit}); err != nil {
		return fmt.Errorf("%s", a.session.Err())
	}
	if limit > 0 {
		fmt.Fprintf(a.stdout, "Budget limit set to %s/month.\n", core.FormatCurrency(limit))
	} else {
		fmt.Fprintln(a.stdout, "Budget limit cleared.")
	}
	return nil
}

func (a *app) notifications(ctx context.Context, args []string) error {
	if _, err := a.requireUser(); err != nil {
		return err
	}
	if len(args) < 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("notifications requires 'on' or 'off'")
	}

	enabled := args[0] == "on"
	if err := a.session.UpdateUser(ctx, core.UserPatch{NotificationsEnabled: &enabled}); err != nil {
		return fmt.Errorf("%s", a.session.Err())
	}
	fmt.Fprintf(a.stdout, "Budget alerts %s.\n", args[0])
	return nil
}

// maybeAlert surfaces the budget warning at most once per invocation and
// fans it out over AMQP when the queue is connected. Alert failures never
// fail the command.
func (a *app) maybeAlert(ctx context.Context) {
	user := a.session.CurrentUser()
	if user == nil {
		return
	}

	total := core.CalculateTotal(a.expenses.Expenses())
	status, fire := a.gate.Check(*user, total)
	if !fire {
		return
	}

	fmt.Fprintf(a.stdout,
		"⚠ Budget alert: you have used %d%% of your monthly budget (%s of %s).\n",
		status.PercentUsed,
		core.FormatCurrency(status.TotalSpent),
		core.FormatCurrency(status.Limit))

	if a.alerts == nil {
		return
	}
	msg := amqp.NewBudgetAlertMessage(user.Username, status.PercentUsed, status.TotalSpent, status.Limit)
	if err := a.alerts.PublishBudgetAlert(ctx, msg); err != nil {
		a.logger.Warn("Failed to publish budget alert", applog.FieldError, err)
	}
}
