package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/storefront/internal/adapter/catalog"
	"github.com/rl1809/storefront/internal/adapter/metrics"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/logger"
)

const (
	totalBrowsers   = 50
	addsPerBrowser  = 20
	sharedCartAdds  = 100
	stressProductID = "prod-water-bottle"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New("stress-test", "warn", cfg.LogFormat, os.Stderr)
	fee, err := cfg.DeliveryFee()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	provider, closeStorage, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open storage")
	}
	defer closeStorage()

	products, err := service.NewCatalog(catalog.FromFile(cfg.CatalogPath))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}
	product, ok := products.Product(stressProductID)
	if !ok {
		log.Fatal().Str("product_id", stressProductID).Msg("stress product missing from catalog")
	}

	m := metrics.NewPrometheus()
	browsers := service.NewBrowsers(service.Deps{
		Catalog:         products,
		Auth:            service.NewAuthService(provider, log).WithCost(bcrypt.MinCost),
		Storage:         provider,
		Metrics:         m,
		Logger:          log,
		FastDeliveryFee: fee,
	})

	run := uuid.NewString()[:8]
	address := domain.Address{StreetAddress: "1 Load St", City: "Testville", State: "TS", PostalCode: "00000"}

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Each browser shops concurrently with itself: adds race with each other
	// and must all land in one cart before checkout.
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalBrowsers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := shop(ctx, browsers, fmt.Sprintf("stress-%s-%d", run, n), address); err != nil {
				log.Warn().Err(err).Int("browser", n).Msg("shopper failed")
				failCount.Add(1)
				return
			}
			successCount.Add(1)
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Shared cart: one browser hammered by many goroutines.
	shared, err := browsers.Open(ctx, "stress-"+run+"-shared")
	if err != nil {
		log.Fatal().Err(err).Msg("open shared browser")
	}
	if _, err := shared.Register(ctx, service.RegisterInput{Email: "shared-" + run + "@stress.test", Password: "stress-pw"}); err != nil {
		log.Fatal().Err(err).Msg("register shared browser")
	}
	var sharedWG sync.WaitGroup
	for i := 0; i < sharedCartAdds; i++ {
		sharedWG.Add(1)
		go func() {
			defer sharedWG.Done()
			if err := shared.AddToCart(ctx, stressProductID, 1); err != nil {
				log.Warn().Err(err).Msg("shared add failed")
			}
		}()
	}
	sharedWG.Wait()

	// Results
	success := successCount.Load()
	fail := failCount.Load()
	expectedTotal := product.EffectivePrice().Mul(decimal.NewFromInt(addsPerBrowser))

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Storage Backend:  %s\n", cfg.StorageBackend)
	fmt.Printf("Browsers:         %d\n", totalBrowsers)
	fmt.Printf("Adds per Browser: %d\n", addsPerBrowser)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Order Total:      $%s each\n", expectedTotal.StringFixed(2))
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == totalBrowsers && fail == 0 {
		fmt.Printf("PASS: All %d browsers checked out exactly once\n", totalBrowsers)
	} else {
		fmt.Printf("FAIL: Expected %d success/0 fail, got %d/%d\n", totalBrowsers, success, fail)
	}

	if got := shared.Cart().Count; got == sharedCartAdds {
		fmt.Printf("PASS: Shared cart holds %d items\n", got)
	} else {
		fmt.Printf("FAIL: Expected shared cart count %d, got %d\n", sharedCartAdds, got)
	}
}

// shop registers, fills the cart concurrently, checks out and verifies that
// the ledger holds exactly the placed order at the expected total.
func shop(ctx context.Context, browsers *service.Browsers, browserID string, address domain.Address) error {
	sf, err := browsers.Open(ctx, browserID)
	if err != nil {
		return err
	}
	if _, err := sf.Register(ctx, service.RegisterInput{Email: browserID + "@stress.test", Password: "stress-pw"}); err != nil {
		return fmt.Errorf("register: %w", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, addsPerBrowser)
	for i := 0; i < addsPerBrowser; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sf.AddToCart(ctx, stressProductID, 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	if err, failed := <-errs; failed {
		return fmt.Errorf("add to cart: %w", err)
	}

	if got := sf.Cart().Count; got != addsPerBrowser {
		return fmt.Errorf("cart count %d, want %d", got, addsPerBrowser)
	}

	order, err := sf.PlaceOrder(ctx, service.CheckoutRequest{Address: address, PaymentMethod: domain.PaymentMethodCard})
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	orders, err := sf.Orders(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	if len(orders) != 1 || orders[0].ID != order.ID {
		return fmt.Errorf("ledger has %d orders", len(orders))
	}
	if sf.Cart().Count != 0 {
		return fmt.Errorf("cart not cleared after checkout")
	}
	return nil
}
