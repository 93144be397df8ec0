package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"finboss/internal/app"
	"finboss/internal/core"
	"finboss/internal/viewmodel"
)

var errNotLoggedIn = errors.New("not logged in: run `finboss login` first")

type exporter interface {
	Export(ctx context.Context, txs []core.Transaction) (int, error)
}

type runner struct {
	c           *app.Container
	out         io.Writer
	now         func() time.Time
	newExporter func(context.Context) (exporter, error)
}

type command struct {
	name  string
	usage string
	auth  bool
	run   func(ctx context.Context, r *runner, args []string) error
}

var commands = []command{
	{name: "login", usage: "login -email EMAIL -password PASSWORD", run: cmdLogin},
	{name: "register", usage: "register -first NAME -last NAME -email EMAIL -password PASSWORD", run: cmdRegister},
	{name: "logout", usage: "logout", run: cmdLogout},
	{name: "profile", usage: "profile", auth: true, run: cmdProfile},
	{name: "list", usage: "list", auth: true, run: cmdList},
	{name: "add", usage: "add -type income|expense -amount N -category NAME [-description TEXT] [-date YYYY-MM-DD]", auth: true, run: cmdAdd},
	{name: "update", usage: "update [-type T] [-amount N] [-category NAME] [-description TEXT] [-date YYYY-MM-DD] ID", auth: true, run: cmdUpdate},
	{name: "delete", usage: "delete ID", auth: true, run: cmdDelete},
	{name: "analytics", usage: "analytics", auth: true, run: cmdAnalytics},
	{name: "export", usage: "export", auth: true, run: cmdExport},
}

func run(ctx context.Context, r *runner, args []string) error {
	if len(args) == 0 {
		printUsage(r.out)
		return errors.New("missing command")
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		r.c.Auth.RestoreSession(ctx)
		if cmd.auth && !r.c.Auth.IsLoggedIn() {
			return errNotLoggedIn
		}
		return cmd.run(ctx, r, args[1:])
	}

	printUsage(r.out)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: finboss <command> [flags]")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s\n", cmd.usage)
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

// failure turns a state error message into an error.
func failure(msg string) error {
	if msg == "" {
		return nil
	}
	return errors.New(msg)
}

func failureOr(msg, fallback string) error {
	if msg == "" {
		msg = fallback
	}
	return errors.New(msg)
}

func cmdLogin(ctx context.Context, r *runner, args []string) error {
	fs := newFlagSet("login", r.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vm := r.c.MakeLoginViewModel()
	defer vm.Close()
	if !vm.Login(ctx, *email, *password) {
		return failureOr(vm.State().Message(), "login failed")
	}
	fmt.Fprintf(r.out, "Logged in as %s\n", strings.TrimSpace(*email))
	return nil
}

func cmdRegister(ctx context.Context, r *runner, args []string) error {
	fs := newFlagSet("register", r.out)
	var form viewmodel.RegisterForm
	fs.StringVar(&form.FirstName, "first", "", "first name")
	fs.StringVar(&form.LastName, "last", "", "last name")
	fs.StringVar(&form.Email, "email", "", "account email")
	fs.StringVar(&form.Password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	vm := r.c.MakeRegisterViewModel()
	defer vm.Close()
	if !vm.Register(ctx, form) {
		return failureOr(vm.State().Message(), "registration failed")
	}
	fmt.Fprintf(r.out, "Registered %s\n", strings.TrimSpace(form.Email))
	return nil
}

func cmdLogout(ctx context.Context, r *runner, _ []string) error {
	vm := r.c.MakeHomeViewModel()
	defer vm.Close()
	vm.Logout(ctx)
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "Logged out")
	return nil
}

func cmdProfile(ctx context.Context, r *runner, _ []string) error {
	vm := r.c.MakeHomeViewModel()
	defer vm.Close()
	vm.Refresh(ctx)
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}
	fmt.Fprintln(r.out, vm.Greeting())
	if u := vm.State().Data.User; u != nil {
		fmt.Fprintln(r.out, u.Email)
	}
	return nil
}

func cmdList(ctx context.Context, r *runner, _ []string) error {
	vm := r.c.MakeTransactionViewModel()
	defer vm.Close()
	vm.Load(ctx)
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, t := range vm.State().Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, viewmodel.FormatDate(t), viewmodel.FormatAmount(t), t.Category, t.DescriptionOrEmpty())
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	totals := vm.Totals()
	fmt.Fprintf(r.out, "\nIncome %s  Expense %s  Balance %s\n",
		totals.Income.Format(viewmodel.CurrencySymbol),
		totals.Expense.Format(viewmodel.CurrencySymbol),
		totals.Balance.Format(viewmodel.CurrencySymbol))
	return nil
}

func cmdAdd(ctx context.Context, r *runner, args []string) error {
	fs := newFlagSet("add", r.out)
	var form viewmodel.TransactionForm
	fs.StringVar(&form.Type, "type", "", "income or expense")
	fs.StringVar(&form.Amount, "amount", "", "amount, e.g. 12.50")
	fs.StringVar(&form.Category, "category", "", "category")
	fs.StringVar(&form.Description, "description", "", "optional description")
	fs.StringVar(&form.Date, "date", "", "date as YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req, err := form.Request(r.now())
	if err != nil {
		return fmt.Errorf("invalid transaction: %w", err)
	}

	vm := r.c.MakeTransactionViewModel()
	defer vm.Close()
	before := len(vm.State().Data)
	vm.Create(ctx, req)
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}

	data := vm.State().Data
	if len(data) > before {
		created := data[len(data)-1]
		fmt.Fprintf(r.out, "Created %s %s (%s)\n", created.ID, viewmodel.FormatAmount(created), created.Category)
		return nil
	}
	fmt.Fprintln(r.out, "Created transaction")
	return nil
}

func cmdUpdate(ctx context.Context, r *runner, args []string) error {
	fs := newFlagSet("update", r.out)
	txType := fs.String("type", "", "income or expense")
	amount := fs.String("amount", "", "amount")
	category := fs.String("category", "", "category")
	description := fs.String("description", "", "description")
	date := fs.String("date", "", "date as YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("update needs exactly one transaction id")
	}
	id := fs.Arg(0)

	var (
		req     core.UpdateTransactionRequest
		flagErr error
	)
	fs.Visit(func(f *flag.Flag) {
		if flagErr != nil {
			return
		}
		switch f.Name {
		case "type":
			t := core.TransactionType(strings.ToLower(strings.TrimSpace(*txType)))
			req.Type = &t
		case "amount":
			a, err := core.ParseAmount(*amount)
			if err != nil {
				flagErr = err
				return
			}
			req.Amount = &a
		case "category":
			req.Category = category
		case "description":
			req.Description = description
		case "date":
			d, err := time.Parse(time.DateOnly, strings.TrimSpace(*date))
			if err != nil {
				flagErr = core.ErrInvalidDate
				return
			}
			req.Date = &d
		}
	})
	if flagErr != nil {
		return fmt.Errorf("invalid update: %w", flagErr)
	}

	vm := r.c.MakeTransactionViewModel()
	defer vm.Close()
	vm.Update(ctx, id, req)
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Updated %s\n", id)
	return nil
}

func cmdDelete(ctx context.Context, r *runner, args []string) error {
	if len(args) != 1 {
		return errors.New("delete needs exactly one transaction id")
	}

	vm := r.c.MakeTransactionViewModel()
	defer vm.Close()
	vm.Delete(ctx, args[0])
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Deleted %s\n", args[0])
	return nil
}

func cmdAnalytics(ctx context.Context, r *runner, _ []string) error {
	vm := r.c.MakeAnalyticsViewModel()
	defer vm.Close()
	vm.Load(ctx)
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tAMOUNT\tSHARE\tCOUNT")
	for _, b := range vm.State().Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			b.Category, b.Amount.Format(viewmodel.CurrencySymbol), viewmodel.FormatPercentage(b), b.TransactionCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\nTotal %s\n", vm.Total().Format(viewmodel.CurrencySymbol))
	return nil
}

func cmdExport(ctx context.Context, r *runner, _ []string) error {
	if r.newExporter == nil {
		return errors.New("sheets export not configured: set GOOGLE_SPREADSHEET_ID")
	}

	vm := r.c.MakeTransactionViewModel()
	defer vm.Close()
	vm.Load(ctx)
	if err := failure(vm.State().ErrorMessage); err != nil {
		return err
	}

	exp, err := r.newExporter(ctx)
	if err != nil {
		return err
	}
	n, err := exp.Export(ctx, vm.State().Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Exported %d transactions\n", n)
	return nil
}
