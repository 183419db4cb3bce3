package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/client/client"
	"github.com/dmitrijs2005/cardkeeper/internal/client/queryview"
	"github.com/dmitrijs2005/cardkeeper/internal/client/session"
	"github.com/dmitrijs2005/cardkeeper/internal/client/store"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
)

// fetchLimit is how many records a list fetches; search, sort and paging
// then run locally.
const fetchLimit = 100

const dateLayout = "2006-01-02"

type column[T any] struct {
	key   string
	title string
	value func(T) string
}

// listView is the list currently on screen.
type listView interface {
	name() string
	load(ctx context.Context) error
	lastError() string
	search(term string)
	sortBy(key string) bool
	setPage(n int)
	next()
	prev()
	remove(id string) bool
	render(w io.Writer)
	unmount()
}

type tableView[T any] struct {
	title   string
	store   *store.Store[[]T]
	view    *queryview.View[T]
	columns []column[T]
}

func newTableView[T any](title string, fetch store.FetchFunc[[]T], pageSize int, id func(T) string, cols []column[T], log logging.Logger) *tableView[T] {
	return &tableView[T]{
		title:   title,
		store:   store.New(title, fetch, log),
		view:    queryview.New[T](nil, pageSize, id),
		columns: cols,
	}
}

func (v *tableView[T]) name() string { return v.title }

func (v *tableView[T]) load(ctx context.Context) error {
	items, err := v.store.Load(ctx)
	if err != nil {
		return err
	}
	v.view.Replace(items)
	return nil
}

func (v *tableView[T]) lastError() string { return v.store.Snapshot().Err }

func (v *tableView[T]) search(term string) { v.view.Search(term) }

func (v *tableView[T]) sortBy(key string) bool {
	if !slices.ContainsFunc(v.columns, func(c column[T]) bool { return c.key == key }) {
		return false
	}
	v.view.SortBy(key)
	return true
}

func (v *tableView[T]) setPage(n int) { v.view.SetPage(n) }
func (v *tableView[T]) next()         { v.view.Next() }
func (v *tableView[T]) prev()         { v.view.Prev() }

func (v *tableView[T]) remove(id string) bool { return v.view.DeleteItem(id) }

func (v *tableView[T]) unmount() { v.store.Unmount() }

func (v *tableView[T]) render(w io.Writer) {
	p := v.view.Page()
	st := v.view.State()

	if p.Total == 0 {
		if st.SearchTerm != "" {
			fmt.Fprintf(w, "No %s match %q.\n", v.title, st.SearchTerm)
		} else {
			fmt.Fprintf(w, "No %s found.\n", v.title)
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	titles := make([]string, len(v.columns))
	for i, c := range v.columns {
		titles[i] = strings.ToUpper(c.title)
		if c.key == st.SortKey {
			titles[i] += sortMarker(st.SortDirection)
		}
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))
	for _, item := range p.Items {
		cells := make([]string, len(v.columns))
		for i, c := range v.columns {
			cells[i] = c.value(item)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "Page %d of %d, %d-%d of %d %s\n", p.CurrentPage, p.TotalPages, p.StartIndex+1, p.EndIndex, p.Total, v.title)
}

func sortMarker(d queryview.Direction) string {
	if d == queryview.Descending {
		return " v"
	}
	return " ^"
}

// showList mounts v in place of the current list, loads and renders it.
func (a *App) showList(ctx context.Context, v listView) error {
	a.mountView(v)
	return a.reload(ctx, v)
}

// reload fetches v again and renders it; search, sort and page are kept.
func (a *App) reload(ctx context.Context, v listView) error {
	if err := v.load(ctx); err != nil {
		if errors.Is(err, store.ErrDiscarded) {
			return nil
		}
		if msg := v.lastError(); msg != "" {
			a.println(msg)
		}
		return err
	}
	v.render(a.out)
	return nil
}

func (a *App) Cards(ctx context.Context) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}
	return a.showList(ctx, a.cardsView())
}

func (a *App) Transactions(ctx context.Context) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}
	fetch := func(ctx context.Context) ([]client.Transaction, error) {
		res, err := a.api.ListTransactions(ctx, 1, fetchLimit)
		if err != nil {
			return nil, err
		}
		return res.Items, nil
	}
	cols := []column[client.Transaction]{
		{"id", "id", func(t client.Transaction) string { return t.ID }},
		{"createdAt", "date", func(t client.Transaction) string { return formatDate(t.CreatedAt) }},
		{"merchant", "merchant", func(t client.Transaction) string { return t.Merchant }},
		{"amount", "amount", func(t client.Transaction) string { return a.formatAmount(t.Amount, t.Currency) }},
		{"status", "status", func(t client.Transaction) string { return t.Status }},
		{"cardId", "card", func(t client.Transaction) string { return t.CardID }},
	}
	v := newTableView("transactions", fetch, a.config.PageSize, func(t client.Transaction) string { return t.ID }, cols, a.log)
	return a.showList(ctx, v)
}

func (a *App) Invoices(ctx context.Context) error {
	if !a.enter(ctx, session.RuleProtected) {
		return nil
	}
	fetch := func(ctx context.Context) ([]client.Invoice, error) {
		res, err := a.api.ListInvoices(ctx, 1, fetchLimit)
		if err != nil {
			return nil, err
		}
		return res.Items, nil
	}
	cols := []column[client.Invoice]{
		{"number", "number", func(i client.Invoice) string { return i.Number }},
		{"issuedAt", "issued", func(i client.Invoice) string { return formatDate(i.IssuedAt) }},
		{"amount", "amount", func(i client.Invoice) string { return a.formatAmount(i.Amount, i.Currency) }},
		{"status", "status", func(i client.Invoice) string { return i.Status }},
	}
	v := newTableView("invoices", fetch, a.config.PageSize, func(i client.Invoice) string { return i.ID }, cols, a.log)
	return a.showList(ctx, v)
}

func (a *App) cardsView() *tableView[client.Card] {
	fetch := func(ctx context.Context) ([]client.Card, error) {
		res, err := a.api.ListCards(ctx, 1, fetchLimit)
		if err != nil {
			return nil, err
		}
		return res.Items, nil
	}
	cols := []column[client.Card]{
		{"id", "id", func(c client.Card) string { return c.ID }},
		{"label", "label", func(c client.Card) string { return c.Label }},
		{"last4", "number", func(c client.Card) string { return "•••• " + c.Last4 }},
		{"status", "status", func(c client.Card) string { return c.Status }},
		{"balance", "balance", func(c client.Card) string { return a.formatAmount(c.Balance, c.Currency) }},
		{"createdAt", "created", func(c client.Card) string { return formatDate(c.CreatedAt) }},
	}
	return newTableView(cardsTitle, fetch, a.config.PageSize, func(c client.Card) string { return c.ID }, cols, a.log)
}

const cardsTitle = "cards"

// withView runs fn on the current list and re-renders it.
func (a *App) withView(fn func(v listView) bool) error {
	v := a.currentView()
	if v == nil {
		a.println("Open a list first: cards, transactions or invoices.")
		return nil
	}
	if fn(v) {
		v.render(a.out)
	}
	return nil
}

func (a *App) Search(ctx context.Context, term string) error {
	return a.withView(func(v listView) bool {
		v.search(term)
		return true
	})
}

func (a *App) Sort(ctx context.Context, key string) error {
	return a.withView(func(v listView) bool {
		if !v.sortBy(key) {
			a.println(fmt.Sprintf("Unknown field %q.", key))
			return false
		}
		return true
	})
}

func (a *App) Page(ctx context.Context, n int) error {
	return a.withView(func(v listView) bool {
		v.setPage(n)
		return true
	})
}

func (a *App) Next(ctx context.Context) error {
	return a.withView(func(v listView) bool {
		v.next()
		return true
	})
}

func (a *App) Prev(ctx context.Context) error {
	return a.withView(func(v listView) bool {
		v.prev()
		return true
	})
}

func (a *App) formatAmount(amount float64, currency string) string {
	return a.printer.Sprintf("%.2f %s", amount, currency)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}
