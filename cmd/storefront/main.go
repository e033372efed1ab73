package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/pharmacy_storefront/internal/apiclient"
	"github.com/Skotchmaster/pharmacy_storefront/internal/cart"
	"github.com/Skotchmaster/pharmacy_storefront/internal/catalog"
	"github.com/Skotchmaster/pharmacy_storefront/internal/checkout"
	"github.com/Skotchmaster/pharmacy_storefront/internal/events"
	"github.com/Skotchmaster/pharmacy_storefront/internal/locations"
	"github.com/Skotchmaster/pharmacy_storefront/internal/messages"
	"github.com/Skotchmaster/pharmacy_storefront/internal/orders"
	"github.com/Skotchmaster/pharmacy_storefront/internal/payment"
	"github.com/Skotchmaster/pharmacy_storefront/internal/session"
	"github.com/Skotchmaster/pharmacy_storefront/internal/storage"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/pharmacy_storefront/pkg/db"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/logging"
	"github.com/Skotchmaster/pharmacy_storefront/pkg/mykafka"
)

type app struct {
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer

	db       *gorm.DB
	kv       storage.KV
	api      *apiclient.Client
	loc      *locations.Client
	pub      events.Publisher
	producer *mykafka.Producer

	session  *session.Service
	cart     *cart.Service
	catalog  *catalog.CatalogService
	checkout *checkout.CheckoutService
	verifier *payment.Verifier
	orders   *orders.OrdersService
}

type command struct {
	usage string
	run   func(a *app, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"login":         {"login -phone 0912345678 -password ...", cmdLogin},
	"register":      {"register -phone ... -password ... -confirm ...", cmdRegister},
	"logout":        {"logout", cmdLogout},
	"whoami":        {"whoami", cmdWhoami},
	"profile":       {"profile [-name ... -email ... -birth ... -gender ...]", cmdProfile},
	"categories":    {"categories", cmdCategories},
	"types":         {"types", cmdTypes},
	"subcategories": {"subcategories -type MALOAI", cmdSubcategories},
	"featured":      {"featured", cmdFeatured},
	"products":      {"products -category MADANHMUC [-sort asc|desc] [-page N -size N]", cmdProducts},
	"product":       {"product -code MASANPHAM", cmdProduct},
	"search":        {"search [-offline] [-interactive] [-page N -size N] QUERY", cmdSearch},
	"cart":          {"cart list|add|remove|clear|watch ...", cmdCart},
	"pharmacies":    {"pharmacies -province ... -district ...", cmdPharmacies},
	"provinces":     {"provinces [-province NAME] [-district NAME]", cmdProvinces},
	"checkout":      {"checkout -payment cod|vnpay -delivery home|store ...", cmdCheckout},
	"verify":        {"verify RETURN_URL", cmdVerify},
	"orders":        {"orders [-status ...] [-sort newest|oldest]", cmdOrders},
	"sync-index":    {"sync-index", cmdSyncIndex},
	"serve":         {"serve [-addr :8089]", cmdServe},
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "storefront", "command", name)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logging.IntoContext(ctx, logger)

	a, err := newApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		stop()
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}

	err = cmd.run(a, ctx, os.Args[2:])
	a.close()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.StorageDSN)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	gkv, err := storage.NewGormKV(db)
	if err != nil {
		_ = pkgdb.Close(db)
		return nil, fmt.Errorf("migrate storage: %w", err)
	}
	var kv storage.KV = gkv
	if cfg.StorageKey != "" {
		sealed, err := storage.NewSealed(gkv, cfg.StorageKey, storage.KeyAccessToken)
		if err != nil {
			_ = pkgdb.Close(db)
			return nil, err
		}
		kv = sealed
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    out,
		db:     db,
		kv:     kv,
		api:    apiclient.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout, apiclient.WithRateLimit(cfg.APIRateLimit)),
		loc:    locations.NewClient(cfg.LocationsBaseURL, cfg.HTTPTimeout),
		pub:    events.Noop{},
	}

	if len(cfg.KafkaBrokers) > 0 {
		p, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Warn("kafka_disabled", "error", err)
		} else {
			a.producer = p
			a.pub = events.NewKafka(p)
		}
	}

	a.session = session.NewService(kv, a.api)
	a.cart = cart.NewService(kv, a.pub)
	a.catalog = &catalog.CatalogService{API: a.api}
	a.checkout = &checkout.CheckoutService{API: a.api, Session: a.session, Cart: a.cart, Pub: a.pub}
	a.verifier = &payment.Verifier{API: a.api, Session: a.session, Cart: a.cart, Pub: a.pub}
	a.orders = &orders.OrdersService{API: a.api, Session: a.session}
	return a, nil
}

func (a *app) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("kafka_close_failed", "error", err)
		}
	}
	if err := pkgdb.Close(a.db); err != nil {
		a.logger.Warn("storage_close_failed", "error", err)
	}
}

// userMessage picks the text shown to the user for err.
func userMessage(err error) string {
	var me *messages.Error
	if errors.As(err, &me) {
		return me.Text
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return messages.ServerUnreachable
	}
	return err.Error()
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: storefront <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", commands[n].usage)
	}
}
