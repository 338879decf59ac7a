package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AbdRaqeeb/fastfood-api/internal/config"
	"github.com/AbdRaqeeb/fastfood-api/internal/models"
	"github.com/AbdRaqeeb/fastfood-api/internal/utils"
)

var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrFoodNotFound       = errors.New("food not found")
	ErrReferenceCollision = errors.New("could not allocate a unique order reference")
	ErrOrderNotFound      = errors.New("order not found")
	ErrCookNotFound       = errors.New("cook not found")
	ErrStatusRegression   = errors.New("order status cannot move backwards")
	ErrNotOrderOwner      = errors.New("order belongs to another user")
	ErrOrderNotReady      = errors.New("order can only be rated once it is ready")
	ErrAlreadyRated       = errors.New("order has already been rated")
)

// errReferenceTaken aborts a single unit of work; Create retries with a fresh reference.
var errReferenceTaken = errors.New("reference taken")

// OrderLineInput is one requested line of an order.
type OrderLineInput struct {
	FoodID   uint             `json:"food_id" validate:"required"`
	Quantity int              `json:"quantity" validate:"gt=0"`
	UnitCost *decimal.Decimal `json:"unit_cost" validate:"required"`
}

// CreateOrderInput is the validated body of POST /orders.
type CreateOrderInput struct {
	Amount   *decimal.Decimal     `json:"amount" validate:"required"`
	Payment  models.PaymentMethod `json:"payment" validate:"required,oneof='cash on delivery' 'transfer'"`
	Delivery models.DeliveryMode  `json:"delivery" validate:"omitempty,oneof='eat in house' 'delivery'"`
	Address  string               `json:"address" validate:"required_if=Delivery delivery,max=200"`
	Comments string               `json:"comments" validate:"max=200"`
	Phone    string               `json:"phone" validate:"required,max=32"`
	Lines    []OrderLineInput     `json:"data" validate:"required,min=1,dive"`
}

// OrderServiceOptions tunes the create-order unit of work.
type OrderServiceOptions struct {
	Timeout           time.Duration
	ReferenceLength   int
	ReferenceAttempts int
	Generate          utils.ReferenceGenerator
	Notifier          OrderNotifier
}

// OrderService owns the order lifecycle: atomic creation and later updates.
type OrderService struct {
	db       *gorm.DB
	timeout  time.Duration
	length   int
	attempts int
	generate utils.ReferenceGenerator
	notifier OrderNotifier
}

// NewOrderService constructs OrderService, filling unset options with defaults.
func NewOrderService(db *gorm.DB, opts OrderServiceOptions) *OrderService {
	s := &OrderService{
		db:       db,
		timeout:  opts.Timeout,
		length:   opts.ReferenceLength,
		attempts: opts.ReferenceAttempts,
		generate: opts.Generate,
		notifier: opts.Notifier,
	}
	if s.timeout <= 0 {
		s.timeout = config.DefaultOrderTxTimeout
	}
	if s.length <= 0 {
		s.length = config.DefaultReferenceLength
	}
	if s.attempts <= 0 {
		s.attempts = config.DefaultReferenceAttempts
	}
	if s.generate == nil {
		s.generate = utils.GenerateReference
	}
	return s
}

// Create persists the order header and all of its lines in one unit of work, or nothing.
func (s *OrderService) Create(ctx context.Context, owner utils.Principal, input CreateOrderInput) (*models.Order, error) {
	if err := validateOrderInput(&input); err != nil {
		return nil, err
	}
	if input.Delivery == "" {
		input.Delivery = models.DeliveryEatIn
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		order   *models.Order
		details []models.OrderDetail
		err     error
	)
	for attempt := 1; attempt <= s.attempts; attempt++ {
		order, details, err = s.createOnce(ctx, owner, input)
		if !errors.Is(err, errReferenceTaken) {
			break
		}
		log.Printf("[Order] reference collision for user %d (attempt %d/%d)", owner.ID, attempt, s.attempts)
	}
	if errors.Is(err, errReferenceTaken) {
		return nil, ErrReferenceCollision
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[Order] order %s created for user %d with %d lines", order.Reference, owner.ID, len(details))

	if s.notifier != nil {
		go s.dispatchNotification(*order, details)
	}

	return order, nil
}

func (s *OrderService) createOnce(ctx context.Context, owner utils.Principal, input CreateOrderInput) (*models.Order, []models.OrderDetail, error) {
	reference, err := s.generate(s.length)
	if err != nil {
		return nil, nil, fmt.Errorf("generate reference: %w", err)
	}

	order := &models.Order{
		Reference: reference,
		Name:      owner.Name,
		Amount:    input.Amount.Round(2),
		Payment:   input.Payment,
		Status:    models.StatusPending,
		Delivery:  input.Delivery,
		Address:   input.Address,
		Comments:  input.Comments,
		Phone:     input.Phone,
		UserID:    owner.ID,
	}

	var details []models.OrderDetail
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var taken int64
		if err := tx.Model(&models.Order{}).Where("reference = ?", reference).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return errReferenceTaken
		}

		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errReferenceTaken
			}
			return fmt.Errorf("insert order: %w", err)
		}

		foods, err := loadFoods(tx, input.Lines)
		if err != nil {
			return err
		}

		details = make([]models.OrderDetail, 0, len(input.Lines))
		for _, line := range input.Lines {
			food, ok := foods[line.FoodID]
			if !ok {
				return fmt.Errorf("%w: %d", ErrFoodNotFound, line.FoodID)
			}
			details = append(details, models.OrderDetail{
				OrderID:  order.ID,
				FoodID:   food.ID,
				FoodName: food.Name,
				Quantity: line.Quantity,
				UnitCost: line.UnitCost.Round(2),
			})
		}

		if err := tx.Omit(clause.Associations).Create(&details).Error; err != nil {
			return fmt.Errorf("insert order details: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return order, details, nil
}

func loadFoods(tx *gorm.DB, lines []OrderLineInput) (map[uint]models.Food, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.FoodID)
	}

	var foods []models.Food
	if err := tx.Select("id", "name").Where("id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("load foods: %w", err)
	}

	byID := make(map[uint]models.Food, len(foods))
	for _, food := range foods {
		byID[food.ID] = food
	}
	return byID, nil
}

func validateOrderInput(input *CreateOrderInput) error {
	if err := utils.ValidateStruct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	if input.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidOrder)
	}

	total := decimal.Zero
	for i, line := range input.Lines {
		if line.UnitCost.IsNegative() {
			return fmt.Errorf("%w: data[%d].unit_cost must not be negative", ErrInvalidOrder, i)
		}
		total = total.Add(line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if !total.Round(2).Equal(input.Amount.Round(2)) {
		return fmt.Errorf("%w: amount %s does not match line total %s", ErrInvalidOrder, input.Amount.StringFixed(2), total.StringFixed(2))
	}
	return nil
}

func (s *OrderService) dispatchNotification(order models.Order, details []models.OrderDetail) {
	if err := s.notifier.NotifyNewOrder(newOrderNotification(order, details)); err != nil {
		log.Printf("[Order] kitchen notification failed for %s: %v", order.Reference, err)
	}
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID *uint
	Status models.OrderStatus
}

// List returns a page of orders, newest first, and the total matching count.
func (s *OrderService) List(ctx context.Context, filter OrderFilter, pg utils.Pagination) ([]models.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := query.Preload("Details").
		Order("created_at desc").Order("id desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Get loads an order with its lines and assigned cook.
func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Cook").
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderInput carries staff-side changes; nil fields are left untouched.
type UpdateOrderInput struct {
	Status *models.OrderStatus `json:"status" validate:"omitempty,oneof=pending processing ready"`
	CookID *uint               `json:"cook_id" validate:"omitempty,gt=0"`
}

// Update advances status and/or assigns a cook.
func (s *OrderService) Update(ctx context.Context, id uint, input UpdateOrderInput) (*models.Order, error) {
	if err := utils.ValidateStruct(&input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Status != nil && *input.Status != order.Status {
		if !order.Status.CanAdvanceTo(*input.Status) {
			return nil, fmt.Errorf("%w: %s to %s", ErrStatusRegression, order.Status, *input.Status)
		}
		updates["status"] = *input.Status
	}
	if input.CookID != nil {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Cook{}).Where("id = ?", *input.CookID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrCookNotFound
		}
		updates["cook_id"] = *input.CookID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

// Rate records the owner's rating of a ready order. A rating is set once.
func (s *OrderService) Rate(ctx context.Context, owner utils.Principal, id uint, rating models.Rating) (*models.Order, error) {
	if !rating.Valid() {
		return nil, fmt.Errorf("%w: rating must be one of [poor fair nice excellent]", ErrInvalidOrder)
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != owner.ID {
		return nil, ErrNotOrderOwner
	}
	if order.Status != models.StatusReady {
		return nil, ErrOrderNotReady
	}

	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND rating IS NULL", id).
		Update("rating", rating)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyRated
	}

	return s.Get(ctx, id)
}

// Delete removes an order; its lines go with it.
func (s *OrderService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOrderNotFound
		}
		return nil
	})
}
