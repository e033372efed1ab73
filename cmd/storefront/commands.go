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
	"time"

	"github.com/Skotchmaster/pharmacy_storefront/internal/cart"
	"github.com/Skotchmaster/pharmacy_storefront/internal/catalog"
	"github.com/Skotchmaster/pharmacy_storefront/internal/checkout"
	"github.com/Skotchmaster/pharmacy_storefront/internal/es"
	"github.com/Skotchmaster/pharmacy_storefront/internal/httpserver"
	"github.com/Skotchmaster/pharmacy_storefront/internal/locations"
	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/models"
	"github.com/Skotchmaster/pharmacy_storefront/internal/orders"
	"github.com/Skotchmaster/pharmacy_storefront/internal/search"
	"github.com/Skotchmaster/pharmacy_storefront/internal/storage"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/config"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func cmdLogin(a *app, ctx context.Context, args []string) error {
	fs := newFlags("login")
	phone := fs.String("phone", "", "phone number (0xxxxxxxxx)")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	u, err := a.session.Login(ctx, *phone, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Đăng nhập thành công! Xin chào %s\n", u.Name)
	return nil
}

func cmdRegister(a *app, ctx context.Context, args []string) error {
	fs := newFlags("register")
	phone := fs.String("phone", "", "phone number")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.session.Register(ctx, *phone, *password, *confirm); err != nil {
		return err
	}
	fmt.Fprintln(a.out, messages.RegisterSucceeded)
	return nil
}

func cmdLogout(a *app, ctx context.Context, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Đã đăng xuất")
	return nil
}

func cmdWhoami(a *app, ctx context.Context, _ []string) error {
	u, err := a.session.Current(ctx)
	if err != nil {
		return err
	}
	if u == nil {
		fmt.Fprintln(a.out, "Chưa đăng nhập")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s) sub=%s roles=%s\n", u.Name, u.Phone, u.Subject, strings.Join(u.Roles, ","))
	if !u.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "Phiên hết hạn: %s\n", u.ExpiresAt.Local().Format("02/01/2006 15:04"))
	}
	return nil
}

func cmdProfile(a *app, ctx context.Context, args []string) error {
	fs := newFlags("profile")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email")
	birth := fs.String("birth", "", "birth date")
	gender := fs.String("gender", "", "gender")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := a.session.Profile(ctx)
	if err != nil {
		return err
	}

	if *name != "" || *email != "" || *birth != "" || *gender != "" {
		form := models.ProfileUpdate{
			FullName:  pick(*name, p.FullName),
			Email:     pick(*email, p.Email),
			BirthDate: pick(*birth, p.BirthDate),
			Gender:    pick(*gender, p.Gender),
		}
		if p, err = a.session.UpdateProfile(ctx, form); err != nil {
			return err
		}
		fmt.Fprintln(a.out, messages.ProfileUpdated)
	}

	fmt.Fprintf(a.out, "Họ tên: %s\nSĐT: %s\nEmail: %s\nNgày sinh: %s\nGiới tính: %s\n",
		p.FullName, p.Phone, p.Email, p.BirthDate, p.Gender)
	return nil
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func cmdCategories(a *app, ctx context.Context, _ []string) error {
	cats, err := a.catalog.TopCategories(ctx)
	if err != nil {
		return err
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "MÃ\tDANH MỤC\tSỐ LƯỢNG")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\t%d sản phẩm\n", c.ID, c.Name, c.Count)
	}
	return tw.Flush()
}

func cmdTypes(a *app, ctx context.Context, _ []string) error {
	ts, err := a.catalog.ProductTypes(ctx)
	if err != nil {
		return err
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "MÃ\tLOẠI")
	for _, t := range ts {
		fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.Name)
	}
	return tw.Flush()
}

func cmdSubcategories(a *app, ctx context.Context, args []string) error {
	fs := newFlags("subcategories")
	typeID := fs.String("type", "", "product type id (maloai)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *typeID == "" {
		return errors.New("-type is required")
	}

	cats, err := a.catalog.SubCategories(ctx, *typeID)
	if err != nil {
		return err
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "MÃ\tDANH MỤC")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
	}
	return tw.Flush()
}

func cmdFeatured(a *app, ctx context.Context, _ []string) error {
	ps, err := a.catalog.Featured(ctx)
	if err != nil {
		return err
	}
	printProducts(a.out, ps)
	return nil
}

func cmdProducts(a *app, ctx context.Context, args []string) error {
	fs := newFlags("products")
	category := fs.String("category", "", "category id (madanhmuc)")
	order := fs.String("sort", "asc", "price order: asc|desc")
	page := fs.Int("page", 0, "page number; 0 lists everything")
	size := fs.Int("size", catalog.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *category == "" {
		return errors.New("-category is required")
	}

	ps, err := a.catalog.ProductsByCategory(ctx, *category, catalog.PriceOrder(*order))
	if err != nil {
		return err
	}
	if *page > 0 {
		ps = catalog.Page(ps, *page, *size)
	}
	printProducts(a.out, ps)
	return nil
}

func cmdProduct(a *app, ctx context.Context, args []string) error {
	fs := newFlags("product")
	code := fs.String("code", "", "product code (masanpham)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" {
		return errors.New("-code is required")
	}

	p, err := a.catalog.Product(ctx, *code)
	if err != nil {
		return messages.New(err, messages.ProductNotFound)
	}
	printProduct(a.out, p)
	return nil
}

func (a *app) searcher(ctx context.Context, offline bool) (search.Searcher, error) {
	if !offline {
		return &search.RemoteSearcher{API: a.api}, nil
	}
	if a.cfg.ESURL == "" {
		return nil, errors.New("ES_URL is not set")
	}
	client, err := es.NewClient(ctx, es.Config{URL: a.cfg.ESURL, User: a.cfg.ESUser, Password: a.cfg.ESPassword})
	if err != nil {
		return nil, err
	}
	return &search.ESSearcher{ES: client, Index: a.cfg.ESIndex}, nil
}

func cmdSearch(a *app, ctx context.Context, args []string) error {
	fs := newFlags("search")
	offline := fs.Bool("offline", false, "search the Elasticsearch mirror instead of the backend")
	interactive := fs.Bool("interactive", false, "read queries from stdin as you type")
	page := fs.Int("page", 0, "page number; 0 lists everything")
	size := fs.Int("size", catalog.DefaultPageSize, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := a.searcher(ctx, *offline)
	if err != nil {
		return err
	}

	if !*interactive {
		q := strings.TrimSpace(strings.Join(fs.Args(), " "))
		if q == "" {
			return nil
		}
		ps, err := s.Search(ctx, q)
		if err != nil {
			a.logger.Warn("search_failed", "query", q, "error", err)
			ps = []models.Product{}
		}
		if *page > 0 {
			ps = catalog.Page(ps, *page, *size)
		}
		printProducts(a.out, ps)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d := search.NewDebouncer(s, a.cfg.SearchDebounce)
	defer d.Stop()

	last := make(chan string, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		printResults(ctx, a.out, d.Results(), last)
	}()

	sc := bufio.NewScanner(os.Stdin)
	var q string
	for sc.Scan() {
		q = sc.Text()
		d.Submit(ctx, q)
	}
	last <- q

	select {
	case <-done:
	case <-time.After(a.cfg.SearchDebounce + a.cfg.HTTPTimeout):
		cancel()
		<-done
	}
	return sc.Err()
}

// printResults prints search results until the final query (sent on last
// once input ends) has been shown.
func printResults(ctx context.Context, w io.Writer, results <-chan search.Result, last <-chan string) {
	final, printed, closed := "", "", false
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-last:
			final, closed = strings.TrimSpace(q), true
			if final == "" || final == printed {
				return
			}
		case res := <-results:
			if res.Query != "" {
				fmt.Fprintf(w, "== %s\n", res.Query)
				printProducts(w, res.Products)
				printed = res.Query
			}
			if closed && res.Query == final {
				return
			}
		}
	}
}

func cmdCart(a *app, ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "list":
		fs := newFlags("cart list")
		selected := fs.String("select", "", "comma separated item ids to total")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		items, err := a.cart.Items(ctx)
		if err != nil {
			return err
		}
		var sel *cart.Selection
		if *selected != "" {
			sel = cart.NewSelection(config.CSV(*selected)...)
			sel.Prune(items)
		}
		printCart(a.out, items, sel)
		return nil

	case "add":
		fs := newFlags("cart add")
		code := fs.String("code", "", "product code (masanpham)")
		unit := fs.Int("unit", 0, "unit index as listed by `product`")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *code == "" {
			return errors.New("-code is required")
		}
		p, err := a.catalog.Product(ctx, *code)
		if err != nil {
			return messages.New(err, messages.ProductNotFound)
		}
		res, err := a.cart.Add(ctx, *p, *unit)
		if err != nil {
			return err
		}
		if res.Merged {
			fmt.Fprintf(a.out, messages.CartIncreased+"\n", res.Item.Quantity)
		} else {
			fmt.Fprintln(a.out, messages.CartAdded)
		}
		return nil

	case "remove":
		if len(rest) == 0 {
			return errors.New("cart remove needs an item id")
		}
		for _, id := range rest {
			if err := a.cart.Remove(ctx, id); err != nil {
				return err
			}
		}
		return nil

	case "clear":
		return a.cart.Clear(ctx)

	case "watch":
		for items := range cart.NewWatcher(a.kv, a.cfg.CartPollInterval).Watch(ctx) {
			printCart(a.out, items, nil)
			fmt.Fprintln(a.out)
		}
		return nil
	}
	return fmt.Errorf("unknown cart command %q", sub)
}

func cmdPharmacies(a *app, ctx context.Context, args []string) error {
	fs := newFlags("pharmacies")
	province := fs.String("province", "", "province name")
	district := fs.String("district", "", "district name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ps, err := a.checkout.Pharmacies(ctx, *province, *district)
	if err != nil {
		return err
	}
	printPharmacies(a, ps)
	return nil
}

func printPharmacies(a *app, ps []models.Pharmacy) {
	if len(ps) == 0 {
		fmt.Fprintln(a.out, "(không có nhà thuốc)")
		return
	}
	tw := newTable(a.out)
	fmt.Fprintln(tw, "MÃ CHI NHÁNH\tĐỊA CHỈ")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\n", p.Code, p.Address)
	}
	_ = tw.Flush()
}

func cmdProvinces(a *app, ctx context.Context, args []string) error {
	fs := newFlags("provinces")
	province := fs.String("province", "", "list districts of this province")
	district := fs.String("district", "", "list wards of this district")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.loc.Provinces(ctx)
	if err != nil {
		return err
	}
	if *province != "" {
		p, ok := locations.Find(list, *province)
		if !ok {
			return fmt.Errorf("province %q not found", *province)
		}
		if list, err = a.loc.Districts(ctx, p.Code); err != nil {
			return err
		}
		if *district != "" {
			d, ok := locations.Find(list, *district)
			if !ok {
				return fmt.Errorf("district %q not found", *district)
			}
			if list, err = a.loc.Wards(ctx, d.Code); err != nil {
				return err
			}
		}
	}

	tw := newTable(a.out)
	for _, l := range list {
		fmt.Fprintf(tw, "%d\t%s\n", l.Code, l.Name)
	}
	return tw.Flush()
}

func cmdCheckout(a *app, ctx context.Context, args []string) error {
	fs := newFlags("checkout")
	pay := fs.String("payment", "cod", "cod|vnpay")
	delivery := fs.String("delivery", "home", "home|store")
	name := fs.String("name", "", "recipient name (defaults to profile)")
	phone := fs.String("phone", "", "recipient phone (defaults to profile)")
	email := fs.String("email", "", "recipient email (defaults to profile)")
	province := fs.String("province", "", "province")
	district := fs.String("district", "", "district")
	ward := fs.String("ward", "", "ward")
	address := fs.String("address", "", "street address")
	pharmacy := fs.String("pharmacy", "", "pickup branch code (machinhanh)")
	note := fs.String("note", "", "note for the order")
	items := fs.String("items", "", "comma separated cart item ids; empty orders the whole cart")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pm, err := checkout.ParsePaymentMethod(*pay)
	if err != nil {
		return err
	}
	dm, err := checkout.ParseDeliveryMethod(*delivery)
	if err != nil {
		return err
	}

	recipient, err := a.checkout.Prefill(ctx)
	if err != nil {
		return err
	}
	recipient.Name = pick(*name, recipient.Name)
	recipient.Phone = pick(*phone, recipient.Phone)
	recipient.Email = pick(*email, recipient.Email)

	req := checkout.Request{
		Payment:   pm,
		Delivery:  dm,
		Recipient: recipient,
		Address:   checkout.Address{Province: *province, District: *district, Ward: *ward, Detail: *address},
		Pharmacy:  *pharmacy,
		Note:      *note,
	}
	if *items != "" {
		req.ItemIDs = config.CSV(*items)
	}

	out, err := a.checkout.PlaceOrder(ctx, req)
	if err != nil {
		return err
	}

	switch out.Status {
	case checkout.StatusAwaitingPayment:
		fmt.Fprintf(a.out, "Đơn hàng %s (%s) đang chờ thanh toán.\n", out.OrderCode, formatPrice(out.Amount))
		fmt.Fprintf(a.out, "Mở liên kết VNPay: %s\n", out.PaymentURL)
		fmt.Fprintln(a.out, "Sau khi thanh toán, chạy `storefront verify <url trả về>` hoặc để `storefront serve` nhận kết quả.")
	default:
		fmt.Fprintln(a.out, messages.OrderPlaced)
		fmt.Fprintf(a.out, "Mã đơn hàng: %s, thành tiền: %s\n", out.OrderCode, formatPrice(out.Amount))
	}
	return nil
}

func cmdVerify(a *app, ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("verify needs the gateway return URL")
	}
	conf, err := a.verifier.Verify(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, messages.OrderPlaced)
	if conf.OrderRef != "" {
		fmt.Fprintf(a.out, "Mã giao dịch: %s\n", conf.OrderRef)
	}
	return nil
}

func cmdOrders(a *app, ctx context.Context, args []string) error {
	fs := newFlags("orders")
	status := fs.String("status", messages.AllStatuses, "status filter: "+strings.Join(orders.Statuses, " | "))
	order := fs.String("sort", string(orders.Newest), "newest|oldest by purchase date")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := a.orders.List(ctx)
	if err != nil {
		return err
	}
	printOrders(a.out, orders.Filter(list, *status, orders.SortOrder(*order)))
	return nil
}

func cmdSyncIndex(a *app, ctx context.Context, _ []string) error {
	config.MustNonEmpty(a.cfg.ESURL, "ES_URL")

	client, err := es.NewClient(ctx, es.Config{URL: a.cfg.ESURL, User: a.cfg.ESUser, Password: a.cfg.ESPassword})
	if err != nil {
		return err
	}
	ix := &search.Indexer{ES: client, Index: a.cfg.ESIndex, Source: a.api}
	n, err := ix.Sync(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Đã đồng bộ %d sản phẩm vào chỉ mục %q\n", n, a.cfg.ESIndex)
	return nil
}

func cmdServe(a *app, ctx context.Context, args []string) error {
	fs := newFlags("serve")
	addr := fs.String("addr", a.cfg.CallbackAddr, "listen address for the payment return")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e := httpserver.New(a.logger, &httpserver.Deps{
		PaymentHandler: &httpserver.PaymentHTTP{Verifier: a.verifier},
		CartHandler:    &httpserver.CartHTTP{Cart: a.cart},
		Ready: func(ctx context.Context) error {
			_, _, err := a.kv.Get(ctx, storage.KeyUserPhone)
			return err
		},
	})
	return httpserver.Run(ctx, a.logger, *addr, e)
}
