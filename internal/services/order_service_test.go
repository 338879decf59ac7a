package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AbdRaqeeb/fastfood-api/internal/config"
	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/testdb"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

type fixture struct {
	db    *gorm.DB
	user  utils.Principal
	other utils.Principal
	rice  models.Food
	soup  models.Food
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testdb.New(t)

	users := []models.User{
		{Account: models.Account{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}},
		{Account: models.Account{Name: "Bola", Email: "bola@example.com", PasswordHash: "x"}},
	}
	if err := db.Create(&users).Error; err != nil {
		t.Fatalf("seed users: %v", err)
	}

	category := models.Category{Name: "Mains"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	rice := models.Food{Name: "Jollof rice", UnitCost: decimal.RequireFromString("5.00"), CategoryID: category.ID}
	soup := models.Food{Name: "Pepper soup", UnitCost: decimal.RequireFromString("3.50"), CategoryID: category.ID}
	if err := db.Create(&rice).Error; err != nil {
		t.Fatalf("seed food: %v", err)
	}
	if err := db.Create(&soup).Error; err != nil {
		t.Fatalf("seed food: %v", err)
	}

	return fixture{
		db:    db,
		user:  utils.Principal{ID: users[0].ID, Name: "Ada", Email: "ada@example.com", Role: models.RoleUser},
		other: utils.Principal{ID: users[1].ID, Name: "Bola", Email: "bola@example.com", Role: models.RoleUser},
		rice:  rice,
		soup:  soup,
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f fixture) validInput() CreateOrderInput {
	return CreateOrderInput{
		Amount:  dec("13.50"),
		Payment: models.PaymentCashOnDelivery,
		Phone:   "08000000000",
		Lines: []OrderLineInput{
			{FoodID: f.rice.ID, Quantity: 2, UnitCost: dec("5.00")},
			{FoodID: f.soup.ID, Quantity: 1, UnitCost: dec("3.50")},
		},
	}
}

func counts(t *testing.T, db *gorm.DB) (orders, details int64) {
	t.Helper()
	if err := db.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if err := db.Model(&models.OrderDetail{}).Count(&details).Error; err != nil {
		t.Fatalf("count details: %v", err)
	}
	return orders, details
}

func TestCreateOrderPersistsHeaderAndLines(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{})

	order, err := svc.Create(context.Background(), f.user, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(order.Reference) != 6 {
		t.Fatalf("unexpected reference %q", order.Reference)
	}
	if order.Status != models.StatusPending || order.Delivery != models.DeliveryEatIn {
		t.Fatalf("unexpected defaults: %s / %s", order.Status, order.Delivery)
	}
	if order.UserID != f.user.ID || order.Name != "Ada" {
		t.Fatalf("unexpected owner %d %q", order.UserID, order.Name)
	}

	got, err := svc.Get(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(got.Details))
	}
	total := decimal.Zero
	for _, d := range got.Details {
		if d.OrderID != order.ID {
			t.Fatalf("detail points at order %d", d.OrderID)
		}
		total = total.Add(d.LineTotal())
	}
	if !total.Equal(got.Amount) {
		t.Fatalf("amount %s does not match lines %s", got.Amount, total)
	}
	if got.Details[0].FoodName != "Jollof rice" {
		t.Fatalf("food name not captured: %q", got.Details[0].FoodName)
	}
}

func TestCreateOrderRejectsInvalidInputWithoutTouchingStorage(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{})

	cases := map[string]func(*CreateOrderInput){
		"empty lines":       func(in *CreateOrderInput) { in.Lines = nil },
		"amount mismatch":   func(in *CreateOrderInput) { in.Amount = dec("14.00") },
		"missing amount":    func(in *CreateOrderInput) { in.Amount = nil },
		"bad payment":       func(in *CreateOrderInput) { in.Payment = "card" },
		"zero quantity":     func(in *CreateOrderInput) { in.Lines[0].Quantity = 0 },
		"missing phone":     func(in *CreateOrderInput) { in.Phone = "" },
		"delivery no addr":  func(in *CreateOrderInput) { in.Delivery = models.DeliveryDelivery },
		"bad delivery mode": func(in *CreateOrderInput) { in.Delivery = "drone" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := f.validInput()
			mutate(&input)
			_, err := svc.Create(context.Background(), f.user, input)
			if !errors.Is(err, ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder, got %v", err)
			}
		})
	}

	if orders, details := counts(t, f.db); orders != 0 || details != 0 {
		t.Fatalf("expected no rows, got %d orders %d details", orders, details)
	}
}

func TestCreateOrderRollsBackWhenLineInsertFails(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{})

	injected := errors.New("injected line failure")
	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_details", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "order_details" {
			_ = tx.AddError(injected)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = svc.Create(context.Background(), f.user, f.validInput())
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}

	if orders, details := counts(t, f.db); orders != 0 || details != 0 {
		t.Fatalf("expected rollback, got %d orders %d details", orders, details)
	}
}

func TestCreateOrderRejectsDanglingFood(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{})

	input := f.validInput()
	input.Lines[1].FoodID = 9999

	_, err := svc.Create(context.Background(), f.user, input)
	if !errors.Is(err, ErrFoodNotFound) {
		t.Fatalf("expected ErrFoodNotFound, got %v", err)
	}
	if orders, details := counts(t, f.db); orders != 0 || details != 0 {
		t.Fatalf("expected no rows, got %d orders %d details", orders, details)
	}
}

func TestCreateOrderReferencesAreDistinct(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{})

	first, err := svc.Create(context.Background(), f.user, f.validInput())
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Create(context.Background(), f.other, f.validInput())
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if first.Reference == second.Reference {
		t.Fatalf("references collide: %s", first.Reference)
	}
	if first.UserID == second.UserID {
		t.Fatal("orders should belong to different users")
	}
}

func TestCreateOrderRetriesOnReferenceCollision(t *testing.T) {
	f := newFixture(t)
	refs := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	var calls int
	svc := NewOrderService(f.db, OrderServiceOptions{
		Generate: func(int) (string, error) {
			ref := refs[calls]
			calls++
			return ref, nil
		},
	})

	if _, err := svc.Create(context.Background(), f.user, f.validInput()); err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Create(context.Background(), f.user, f.validInput())
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Reference != "BBBBBB" || calls != 3 {
		t.Fatalf("expected retry to BBBBBB after 3 calls, got %s after %d", second.Reference, calls)
	}
}

func TestCreateOrderRetriesWhenUniqueIndexRejectsReference(t *testing.T) {
	f := newFixture(t)
	refs := []string{"DUP001", "FRESH1"}
	var calls int
	svc := NewOrderService(f.db, OrderServiceOptions{
		Generate: func(int) (string, error) {
			ref := refs[calls]
			calls++
			return ref, nil
		},
	})

	// Claim DUP001 after the pre-insert lookup so only the unique index can catch it.
	claimed := false
	err := f.db.Callback().Create().Before("gorm:create").Register("test:claim_reference", func(tx *gorm.DB) {
		order, ok := tx.Statement.Dest.(*models.Order)
		if !ok || claimed || order.Reference != "DUP001" {
			return
		}
		claimed = true
		err := tx.Session(&gorm.Session{NewDB: true}).Exec(
			`INSERT INTO orders (reference, name, amount, payment, status, delivery, phone, user_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			"DUP001", "Bola", "1.00", models.PaymentCashOnDelivery, models.StatusPending, models.DeliveryEatIn, "08000000001", f.other.ID,
		).Error
		if err != nil {
			_ = tx.AddError(err)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	order, err := svc.Create(context.Background(), f.user, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !claimed {
		t.Fatal("expected the conflicting row to be inserted")
	}
	if order.Reference != "FRESH1" || calls != 2 {
		t.Fatalf("expected retry to FRESH1 after 2 calls, got %s after %d", order.Reference, calls)
	}

	if orders, details := counts(t, f.db); orders != 1 || details != 2 {
		t.Fatalf("expected 1 order with 2 details, got %d orders %d details", orders, details)
	}
	var dup int64
	if err := f.db.Model(&models.Order{}).Where("reference = ?", "DUP001").Count(&dup).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if dup != 0 {
		t.Fatalf("expected the aborted attempt to leave no DUP001 row, got %d", dup)
	}
}

func TestNewOrderServiceDefaults(t *testing.T) {
	svc := NewOrderService(testdb.New(t), OrderServiceOptions{})
	if svc.attempts != config.DefaultReferenceAttempts {
		t.Fatalf("expected %d attempts, got %d", config.DefaultReferenceAttempts, svc.attempts)
	}
	if svc.length != config.DefaultReferenceLength {
		t.Fatalf("expected reference length %d, got %d", config.DefaultReferenceLength, svc.length)
	}
	if svc.timeout != config.DefaultOrderTxTimeout {
		t.Fatalf("expected timeout %s, got %s", config.DefaultOrderTxTimeout, svc.timeout)
	}
}

func TestConcurrentCreatesWithFixedReference(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{
		Generate: func(int) (string, error) { return "ABC123", nil },
	})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	owners := []utils.Principal{f.user, f.other}
	for i := range owners {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(context.Background(), owners[i], f.validInput())
		}(i)
	}
	wg.Wait()

	var ok, collided int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrReferenceCollision):
			collided++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || collided != 1 {
		t.Fatalf("expected one success and one collision, got %d/%d", ok, collided)
	}

	if orders, details := counts(t, f.db); orders != 1 || details != 2 {
		t.Fatalf("expected 1 order with 2 details, got %d/%d", orders, details)
	}
}

func TestCreateOrderTimeout(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{
		Timeout: 5 * time.Millisecond,
		Generate: func(n int) (string, error) {
			time.Sleep(50 * time.Millisecond)
			return utils.GenerateReference(n)
		},
	})

	if _, err := svc.Create(context.Background(), f.user, f.validInput()); err == nil {
		t.Fatal("expected timeout error")
	}
	if orders, details := counts(t, f.db); orders != 0 || details != 0 {
		t.Fatalf("expected no rows, got %d orders %d details", orders, details)
	}
}

type recordingNotifier struct {
	ch chan OrderNotification
}

func (n recordingNotifier) NotifyNewOrder(o OrderNotification) error {
	n.ch <- o
	return nil
}

func TestCreateOrderNotifiesKitchen(t *testing.T) {
	f := newFixture(t)
	notifier := recordingNotifier{ch: make(chan OrderNotification, 1)}
	svc := NewOrderService(f.db, OrderServiceOptions{Notifier: notifier})

	order, err := svc.Create(context.Background(), f.user, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case got := <-notifier.ch:
		if got.Reference != order.Reference || len(got.Items) != 2 {
			t.Fatalf("unexpected notification %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}
}

func TestUpdateAndRateOrder(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{})
	ctx := context.Background()

	cook := models.Cook{Account: models.Account{Name: "Chef", Email: "chef@example.com", PasswordHash: "x"}}
	if err := f.db.Create(&cook).Error; err != nil {
		t.Fatalf("seed cook: %v", err)
	}

	order, err := svc.Create(ctx, f.user, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Rate(ctx, f.user, order.ID, models.RatingNice); !errors.Is(err, ErrOrderNotReady) {
		t.Fatalf("expected ErrOrderNotReady, got %v", err)
	}

	processing := models.StatusProcessing
	updated, err := svc.Update(ctx, order.ID, UpdateOrderInput{Status: &processing, CookID: &cook.ID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != models.StatusProcessing || updated.CookID == nil || *updated.CookID != cook.ID {
		t.Fatalf("unexpected update result %+v", updated)
	}

	pending := models.StatusPending
	if _, err := svc.Update(ctx, order.ID, UpdateOrderInput{Status: &pending}); !errors.Is(err, ErrStatusRegression) {
		t.Fatalf("expected ErrStatusRegression, got %v", err)
	}

	missingCook := uint(999)
	if _, err := svc.Update(ctx, order.ID, UpdateOrderInput{CookID: &missingCook}); !errors.Is(err, ErrCookNotFound) {
		t.Fatalf("expected ErrCookNotFound, got %v", err)
	}

	ready := models.StatusReady
	if _, err := svc.Update(ctx, order.ID, UpdateOrderInput{Status: &ready}); err != nil {
		t.Fatalf("advance to ready: %v", err)
	}

	if _, err := svc.Rate(ctx, f.other, order.ID, models.RatingNice); !errors.Is(err, ErrNotOrderOwner) {
		t.Fatalf("expected ErrNotOrderOwner, got %v", err)
	}

	rated, err := svc.Rate(ctx, f.user, order.ID, models.RatingExcellent)
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rated.Rating == nil || *rated.Rating != models.RatingExcellent {
		t.Fatalf("rating not stored: %v", rated.Rating)
	}

	if _, err := svc.Rate(ctx, f.user, order.ID, models.RatingPoor); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated, got %v", err)
	}
}

func TestListAndDeleteOrders(t *testing.T) {
	f := newFixture(t)
	svc := NewOrderService(f.db, OrderServiceOptions{})
	ctx := context.Background()

	mine, err := svc.Create(ctx, f.user, f.validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, f.other, f.validInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	pg := utils.Pagination{Page: 1, Limit: 20}
	orders, total, err := svc.List(ctx, OrderFilter{UserID: &f.user.ID}, pg)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].ID != mine.ID {
		t.Fatalf("unexpected own listing: total=%d len=%d", total, len(orders))
	}

	_, total, err = svc.List(ctx, OrderFilter{Status: models.StatusPending}, pg)
	if err != nil || total != 2 {
		t.Fatalf("expected 2 pending orders, got %d (%v)", total, err)
	}

	if err := svc.Delete(ctx, mine.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, mine.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, mine.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on second delete, got %v", err)
	}
	if orders, details := counts(t, f.db); orders != 1 || details != 2 {
		t.Fatalf("expected remaining 1 order with 2 details, got %d/%d", orders, details)
	}
}
