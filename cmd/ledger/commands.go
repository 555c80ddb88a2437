package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"ledger/internal/amqp"
	"ledger/internal/cli"
	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/render"
	"ledger/internal/report"
	"ledger/internal/services"
)

type environment struct {
	cfg    *config.Config
	logger *log.Logger
	stdin  io.Reader
	stdout io.Writer
}

type command func(ctx context.Context, env *environment, args []string) error

var commands = map[string]command{
	"add":        runAdd,
	"delete":     runDelete,
	"list":       runList,
	"categories": runCategories,
	"report":     runReport,
	"watch":      runWatch,
}

// withService opens the configured ledger for the duration of fn.
func (env *environment) withService(ctx context.Context, fn func(*services.LedgerService) error) error {
	session, err := cli.OpenSession(ctx, env.cfg, env.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Service.Close(); err != nil {
			env.logger.Error("Failed to close ledger", log.FieldError, err.Error())
		}
	}()
	return fn(session.Service)
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// dateFlag is a YYYY-MM-DD flag value; unset means zero.
type dateFlag struct{ core.Date }

func (d *dateFlag) Set(s string) error {
	v, err := core.ParseDate(s)
	if err != nil {
		return err
	}
	d.Date = v
	return nil
}

func rangeFlags(fs *flag.FlagSet) (start, end *dateFlag) {
	start, end = &dateFlag{}, &dateFlag{}
	fs.Var(start, "start", "first day to include (YYYY-MM-DD)")
	fs.Var(end, "end", "last day to include (YYYY-MM-DD)")
	return start, end
}

// parseTypeFilter maps "" and "all" to every type.
func parseTypeFilter(s string) (core.TxType, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return core.AnyType, nil
	}
	return core.ParseTxType(s)
}

func runAdd(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("add", env.stdout)
	date := &dateFlag{Date: core.Today()}
	fs.Var(date, "date", "transaction date (YYYY-MM-DD, default today)")
	typ := fs.String("type", "", "Income or Expense")
	category := fs.String("category", "", "category label")
	amount := fs.String("amount", "", "non-negative amount, dot or comma decimals")
	isNew := fs.Bool("new", false, "the category is new; normalize its capitalization")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := core.ParseTxType(*typ)
	if err != nil {
		return fmt.Errorf("-type: %w", err)
	}
	return env.withService(ctx, func(svc *services.LedgerService) error {
		if !*isNew && !svc.HasCategory(t, *category) {
			fmt.Fprintf(env.stdout, "note: %q is a new %s category\n", strings.TrimSpace(*category), t)
		}
		tx, err := svc.Add(ctx, services.AddRequest{
			Date:        date.Date,
			Type:        t,
			Category:    *category,
			Amount:      *amount,
			NewCategory: *isNew,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "Added %s %s %s on %s\n", tx.Type, tx.Category, core.FormatAmount(tx.Amount), tx.Date)
		return nil
	})
}

func runDelete(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("delete", env.stdout)
	date := &dateFlag{}
	fs.Var(date, "date", "transaction date (YYYY-MM-DD)")
	typ := fs.String("type", "", "Income or Expense")
	category := fs.String("category", "", "category label, matched exactly")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := core.ParseTxType(*typ)
	if err != nil {
		return fmt.Errorf("-type: %w", err)
	}
	id := core.Identity{Date: date.Date, Category: *category, Type: t}
	if err := id.Validate(); err != nil {
		return err
	}

	return env.withService(ctx, func(svc *services.LedgerService) error {
		matches := svc.List(report.ListQuery{Range: report.Between(id.Date, id.Date), Type: id.Type, Category: id.Category})
		if len(matches.Transactions) > 0 && !*yes {
			ok, err := confirm(env, fmt.Sprintf("Delete %d transaction(s) %s / %s / %s?", len(matches.Transactions), id.Date, id.Type, id.Category))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(env.stdout, "Nothing deleted")
				return nil
			}
		}

		removed, err := svc.Delete(ctx, id)
		if errors.Is(err, ledger.ErrIdentityNotFound) {
			fmt.Fprintln(env.stdout, "warning: no transaction matches that date, type and category")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(env.stdout, "Deleted %d transaction(s)\n", removed)
		return nil
	})
}

// confirm asks on a terminal; without one it refuses so scripts must pass
// -yes explicitly.
func confirm(env *environment, question string) (bool, error) {
	f, ok := env.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, errors.New("refusing to delete without -yes when stdin is not a terminal")
	}
	fmt.Fprintf(env.stdout, "%s [y/N] ", question)
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func runList(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("list", env.stdout)
	start, end := rangeFlags(fs)
	typ := fs.String("type", "", "Income, Expense or all")
	category := fs.String("category", "", "only this category")
	sortBy := fs.String("sort", "", "date, amount, category or type")
	desc := fs.Bool("desc", false, "sort descending")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := parseTypeFilter(*typ)
	if err != nil {
		return fmt.Errorf("-type: %w", err)
	}
	field, err := report.ParseSortField(*sortBy)
	if err != nil {
		return err
	}
	q := report.ListQuery{
		Range:      report.Between(start.Date, end.Date),
		Type:       t,
		Category:   strings.TrimSpace(*category),
		SortBy:     field,
		Descending: *desc,
	}
	return env.withService(ctx, func(svc *services.LedgerService) error {
		return render.Transactions(env.stdout, svc.List(q))
	})
}

func runCategories(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("categories", env.stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return env.withService(ctx, func(svc *services.LedgerService) error {
		return render.Categories(env.stdout, svc.CategoryIndex())
	})
}

func runReport(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("report", env.stdout)
	kind := fs.String("kind", string(report.KindBar), "bar, line, waterfall, stacked or pie")
	gran := fs.String("granularity", string(report.Daily), "Daily, Weekly, Monthly or Yearly")
	start, end := rangeFlags(fs)
	typ := fs.String("type", "", "Income or Expense (stacked and pie only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	k, err := report.ParseKind(*kind)
	if err != nil {
		return err
	}
	g, err := report.ParseGranularity(*gran)
	if err != nil {
		return fmt.Errorf("%w: %q", err, *gran)
	}
	t, err := parseTypeFilter(*typ)
	if err != nil {
		return fmt.Errorf("-type: %w", err)
	}
	req := report.Request{Kind: k, Granularity: g, Range: report.Between(start.Date, end.Date), Type: t}
	return env.withService(ctx, func(svc *services.LedgerService) error {
		rep, err := svc.Report(ctx, req)
		if err != nil {
			return err
		}
		return render.Report(env.stdout, rep)
	})
}

func runWatch(ctx context.Context, env *environment, args []string) error {
	fs := newFlagSet("watch", env.stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if env.cfg.AMQPURL == "" {
		return errors.New("watch needs AMQP_URL")
	}

	client, err := amqp.NewClient(amqp.Config{
		URL:        env.cfg.AMQPURL,
		Exchange:   env.cfg.AMQPExchange,
		RoutingKey: env.cfg.AMQPRoutingKey,
	}, env.logger.WithComponent(log.ComponentAMQP).Logger)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintln(env.stdout, "Watching ledger changes, press Ctrl+C to stop")
	err = client.Subscribe(ctx, func(e *amqp.LedgerEvent) error {
		_, err := fmt.Fprintln(env.stdout, describeEvent(e))
		return err
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func describeEvent(e *amqp.LedgerEvent) string {
	at := e.Timestamp.Local().Format("15:04:05")
	switch e.Op {
	case amqp.OpInsert:
		return fmt.Sprintf("%s rev %d added %s %s %s on %s", at, e.Revision, e.Type, e.Category, e.Amount, e.Date)
	case amqp.OpDelete:
		return fmt.Sprintf("%s rev %d deleted %d %s %s on %s", at, e.Revision, e.Removed, e.Type, e.Category, e.Date)
	default:
		return fmt.Sprintf("%s rev %d %s", at, e.Revision, e.Op)
	}
}
