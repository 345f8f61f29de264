// Command zaman is a terminal client for the Zaman banking assistant's
// savings goals ("aims"). It keeps an optimistic local ledger of the user's
// aims, records deposits and withdrawals against them, and reconciles local
// state with the backend after every transaction.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zaman-app/zaman-cli/internal/api"
	"github.com/zaman-app/zaman-cli/internal/config"
	"github.com/zaman-app/zaman-cli/internal/ledger"
	"github.com/zaman-app/zaman-cli/internal/models"
	"github.com/zaman-app/zaman-cli/internal/session"
	"github.com/zaman-app/zaman-cli/internal/storage"
	"github.com/zaman-app/zaman-cli/internal/storage/sqlite"
	"github.com/zaman-app/zaman-cli/pkg/logging"
)

const usage = `usage: zaman <command> [arguments]

commands:
  login <username>       sign in and store the access token
  signup <username> <email>  register a new account
  logout                 forget the stored token
  session                show session status and token expiry
  list [--all]           list aims (in progress, then completed with --all)
  create                 create an aim (-title, -desc, -target, -current)
  update <aim-id>        edit an aim (-title, -desc, -target, -current)
  delete <aim-id>        delete an aim
  deposit <aim-id> <amount>   move funds into an aim
  withdraw <aim-id> <amount>  move funds out of an aim
  history <aim-id>       show an aim's transaction history
  refresh <aim-id>       re-fetch the authoritative record for one aim
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	sess, err := session.Load(cfg.Session.TokenPath)
	if err != nil {
		slog.Error("failed to load session", "error", err)
		os.Exit(1)
	}
	sess.OnExpire(func() {
		fmt.Fprintln(os.Stderr, "session expired, run `zaman login` to sign in again")
	})

	a := &app{
		cfg:     cfg,
		session: sess,
		client:  api.New(cfg.API.BaseURL, sess, cfg.API.Timeout),
	}
	a.ledger = ledger.New(a.client)

	ctx := context.Background()
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg     config.Config
	session *session.Session
	client  *api.Client
	ledger  *ledger.Ledger
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "signup":
		return a.signup(ctx, args)
	case "logout":
		return a.session.Clear()
	case "session":
		return a.sessionInfo()
	case "list":
		return a.list(ctx, args)
	case "create":
		return a.create(ctx, args)
	case "update":
		return a.update(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "deposit":
		return a.transact(ctx, models.Deposit, args)
	case "withdraw":
		return a.transact(ctx, models.Withdrawal, args)
	case "history":
		return a.history(ctx, args)
	case "refresh":
		return a.refresh(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	fmt.Fprint(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", command)
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: zaman login <username>")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	if err := a.client.Login(ctx, args[0], password); err != nil {
		return err
	}
	fmt.Println("signed in as", args[0])
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: zaman signup <username> <email>")
	}
	password, err := readPassword()
	if err != nil {
		return err
	}
	if err := a.client.Signup(ctx, args[0], args[1], password); err != nil {
		return err
	}
	fmt.Println("account created, signed in as", args[0])
	return nil
}

func (a *app) sessionInfo() error {
	if !a.session.SignedIn() {
		fmt.Println("signed out")
		return nil
	}
	exp, err := a.session.ExpiresAt()
	if err != nil {
		fmt.Println("signed in (token expiry unknown)")
		return nil
	}
	if a.session.Expired() {
		fmt.Printf("signed in, but token expired at %s\n", exp.Format("2006-01-02 15:04"))
		return nil
	}
	fmt.Printf("signed in, token valid until %s\n", exp.Format("2006-01-02 15:04"))
	return nil
}

// list loads the aim set and prints the in-progress partition (both
// partitions with --all). When the backend is unreachable it falls back to
// the local snapshot and labels the data as stale.
func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	all := fs.Bool("all", false, "include completed aims")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stale := false
	if err := a.ledger.Load(ctx); err != nil {
		var fetchErr *api.FetchError
		if !errors.As(err, &fetchErr) {
			return err
		}
		snap, cacheErr := a.loadSnapshot(ctx)
		if cacheErr != nil {
			return fmt.Errorf("%w (and no usable offline snapshot: %v)", err, cacheErr)
		}
		a.ledger.Store().Replace(snap.Aims)
		stale = true
		fmt.Printf("backend unreachable, showing snapshot from %s\n\n",
			snap.FetchedAt.Format("2006-01-02 15:04"))
	}

	if !stale {
		a.saveSnapshot(ctx)
	}

	store := a.ledger.Store()
	fmt.Println("In progress:")
	printAims(store.InProgress())
	if *all {
		fmt.Println("\nCompleted:")
		printAims(store.Completed())
	}
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	title := fs.String("title", "", "aim title (required)")
	desc := fs.String("desc", "", "aim description")
	target := fs.String("target", "", "target amount (required)")
	current := fs.String("current", "0", "starting amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" || *target == "" {
		return errors.New("create requires -title and -target")
	}

	targetAmount, err := decimal.NewFromString(*target)
	if err != nil {
		return fmt.Errorf("invalid target amount %q: %w", *target, err)
	}
	currentAmount, err := decimal.NewFromString(*current)
	if err != nil {
		return fmt.Errorf("invalid starting amount %q: %w", *current, err)
	}

	aim, err := a.ledger.Create(ctx, models.AimCreate{
		Title:         *title,
		Description:   *desc,
		TargetAmount:  targetAmount,
		CurrentAmount: currentAmount,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created aim %d: %s\n", aim.ID, aim.Title)
	return nil
}

func (a *app) update(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	title := fs.String("title", "", "new title")
	desc := fs.String("desc", "", "new description")
	target := fs.String("target", "", "new target amount")
	current := fs.String("current", "", "new current amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: zaman update <aim-id> [flags]")
	}
	id, err := parseAimID(fs.Arg(0))
	if err != nil {
		return err
	}

	var payload models.AimUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			payload.Title = title
		case "desc":
			payload.Description = desc
		}
	})
	if *target != "" {
		v, err := decimal.NewFromString(*target)
		if err != nil {
			return fmt.Errorf("invalid target amount %q: %w", *target, err)
		}
		payload.TargetAmount = &v
	}
	if *current != "" {
		v, err := decimal.NewFromString(*current)
		if err != nil {
			return fmt.Errorf("invalid current amount %q: %w", *current, err)
		}
		payload.CurrentAmount = &v
	}

	aim, err := a.ledger.Update(ctx, id, payload)
	if err != nil {
		return err
	}
	fmt.Printf("updated aim %d: %s (%s / %s)\n",
		aim.ID, aim.Title, aim.CurrentAmount.StringFixed(2), aim.TargetAmount.StringFixed(2))
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: zaman delete <aim-id>")
	}
	id, err := parseAimID(args[0])
	if err != nil {
		return err
	}
	if err := a.ledger.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("deleted aim %d\n", id)
	return nil
}

// transact loads the aim set, applies the deposit/withdrawal, and prints the
// aim's reconciled state. A submission failure is reported loudly: the local
// figure shown may be optimistic until the next successful refresh.
func (a *app) transact(ctx context.Context, kind models.TransactionType, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: zaman %s <aim-id> <amount>", kind)
	}
	id, err := parseAimID(args[0])
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}

	if err := a.ledger.Load(ctx); err != nil {
		return err
	}
	if err := a.ledger.Apply(ctx, id, kind, amount); err != nil {
		return err
	}

	aim, ok := a.ledger.Store().Get(id)
	if !ok {
		return fmt.Errorf("aim %d disappeared from the store", id)
	}
	fmt.Printf("aim %d: %s / %s (%d%%)", aim.ID,
		aim.CurrentAmount.StringFixed(2), aim.TargetAmount.StringFixed(2), aim.ProgressPercent())
	if aim.IsCompleted {
		fmt.Print("  [completed]")
	}
	fmt.Println()
	a.saveSnapshot(ctx)
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: zaman history <aim-id>")
	}
	id, err := parseAimID(args[0])
	if err != nil {
		return err
	}
	txs, err := a.ledger.Transactions(ctx, id)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("no transactions")
		return nil
	}
	for _, tx := range txs {
		fmt.Printf("%s  %-10s  %s\n",
			tx.CreatedAt.Format("2006-01-02 15:04"), tx.TransactionType, tx.Amount.StringFixed(2))
	}
	return nil
}

func (a *app) refresh(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: zaman refresh <aim-id>")
	}
	id, err := parseAimID(args[0])
	if err != nil {
		return err
	}
	if err := a.ledger.Load(ctx); err != nil {
		return err
	}
	if err := a.ledger.Reconcile(ctx, id); err != nil {
		return err
	}
	aim, _ := a.ledger.Store().Get(id)
	fmt.Printf("aim %d: %s / %s (%d%%)\n", aim.ID,
		aim.CurrentAmount.StringFixed(2), aim.TargetAmount.StringFixed(2), aim.ProgressPercent())
	a.saveSnapshot(ctx)
	return nil
}

// loadSnapshot opens the cache and reads the last stored aim set.
func (a *app) loadSnapshot(ctx context.Context) (*storage.Snapshot, error) {
	cache, err := sqlite.New(a.cfg.Cache.Path)
	if err != nil {
		return nil, err
	}
	defer cache.Close()
	return cache.Load(ctx)
}

// saveSnapshot persists the store contents for offline use. Failures only
// cost the fallback, so they are logged rather than surfaced.
func (a *app) saveSnapshot(ctx context.Context) {
	cache, err := sqlite.New(a.cfg.Cache.Path)
	if err != nil {
		slog.Warn("failed to open snapshot cache", "error", err)
		return
	}
	defer cache.Close()
	if err := cache.Save(ctx, a.ledger.Store().All()); err != nil {
		slog.Warn("failed to save snapshot", "error", err)
	}
}

func printAims(aims []models.Aim) {
	if len(aims) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, aim := range aims {
		fmt.Printf("  [%d] %-24s %10s / %-10s %3d%%\n",
			aim.ID, aim.Title,
			aim.CurrentAmount.StringFixed(2), aim.TargetAmount.StringFixed(2),
			aim.ProgressPercent())
	}
}

func parseAimID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid aim id %q", s)
	}
	return id, nil
}

// readPassword takes the password from ZAMAN_PASSWORD if set, otherwise
// prompts on stdin.
func readPassword() (string, error) {
	if pw := os.Getenv("ZAMAN_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	pw := strings.TrimSpace(line)
	if pw == "" {
		return "", errors.New("empty password")
	}
	return pw, nil
}
