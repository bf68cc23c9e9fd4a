package store

import (
	"context"
	"fmt"
	"time"

	"fortmix-erp/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Options struct {
	// StrictStock rejects sales and adjustments that would leave a product
	// with negative stock.
	StrictStock bool
	// Location decides where "today" and "this month" start. Defaults to time.Local.
	Location *time.Location
	// Now is overridable for tests.
	Now func() time.Time
}

// GormStore implements Store on top of any GORM dialect.
type GormStore struct {
	db          *gorm.DB
	strictStock bool
	loc         *time.Location
	now         func() time.Time
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB, opts Options) *GormStore {
	s := &GormStore{
		db:          db,
		strictStock: opts.StrictStock,
		loc:         opts.Location,
		now:         opts.Now,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// execute runs fn inside a single database transaction. Any error or panic
// rolls back every write made through tx.
func (s *GormStore) execute(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "failed to begin transaction")
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func appendAudit(tx *gorm.DB, userID uint, action, entity, details string) error {
	entry := models.AuditLog{UserID: userID, Action: action, Entity: entity, Details: details}
	return errors.Wrap(tx.Create(&entry).Error, "insert audit log")
}

// translate maps driver errors onto the package's sentinel errors.
func translate(err error, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}

// --- Products ---

func (s *GormStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.WithContext(ctx).Order("name, id").Find(&products).Error; err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return products, nil
}

func (s *GormStore) ListCriticalProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.WithContext(ctx).
		Where("stock_quantity <= min_stock").
		Order("stock_quantity - min_stock, name").
		Find(&products).Error
	if err != nil {
		return nil, errors.Wrap(err, "list critical products")
	}
	return products, nil
}

func (s *GormStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err, ErrProductNotFound)
	}
	return &product, nil
}

// CreateProduct inserts the product and, when it starts with stock, the
// matching IN movement.
func (s *GormStore) CreateProduct(ctx context.Context, actorID uint, product *models.Product) error {
	product.ID = 0
	return s.execute(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return translate(err, ErrNotFound)
		}

		if product.StockQuantity != 0 {
			movement := models.StockMovement{
				ProductID: product.ID,
				UserID:    actorID,
				Type:      models.MovementIn,
				Quantity:  product.StockQuantity,
				Reason:    "Initial stock",
			}
			if product.StockQuantity < 0 {
				movement.Type = models.MovementAdjust
			}
			if err := tx.Create(&movement).Error; err != nil {
				return errors.Wrap(err, "insert initial movement")
			}
		}

		return appendAudit(tx, actorID, "CREATE", "product",
			fmt.Sprintf("Product #%d %s (%s) created", product.ID, product.Code, product.Name))
	})
}

// UpdateProduct rewrites the catalog fields. Stock only changes through the
// stock ledger, so stock_quantity is never written here.
func (s *GormStore) UpdateProduct(ctx context.Context, actorID uint, product *models.Product) error {
	return s.execute(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{ID: product.ID}).
			Select("code", "name", "category", "price", "cost_price", "min_stock", "unit", "updated_at").
			Updates(product)
		if res.Error != nil {
			return translate(res.Error, ErrProductNotFound)
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}

		return appendAudit(tx, actorID, "UPDATE", "product",
			fmt.Sprintf("Product #%d %s (%s) updated, price %s, cost %s",
				product.ID, product.Code, product.Name, product.Price.StringFixed(2), product.CostPrice.StringFixed(2)))
	})
}

// --- Users ---

func (s *GormStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return n, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return &user, nil
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, ErrNotFound)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	return users, nil
}

func (s *GormStore) CreateUser(ctx context.Context, actorID uint, user *models.User) error {
	if !user.Role.Valid() || user.Username == "" || user.PasswordHash == "" {
		return ErrInvalidInput
	}
	user.ID = 0
	return s.execute(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translate(err, ErrNotFound)
		}
		return appendAudit(tx, actorID, "CREATE", "user",
			fmt.Sprintf("User #%d %s created with role %s", user.ID, user.Username, user.Role))
	})
}

func (s *GormStore) UpdateUser(ctx context.Context, actorID uint, id uint, update UserUpdate) error {
	changes := map[string]any{}
	if update.Name != "" {
		changes["name"] = update.Name
	}
	if update.Role != "" {
		if !update.Role.Valid() {
			return ErrInvalidInput
		}
		changes["role"] = update.Role
	}
	if update.PasswordHash != "" {
		changes["password_hash"] = update.PasswordHash
	}
	if len(changes) == 0 {
		return ErrInvalidInput
	}

	return s.execute(ctx, func(tx *gorm.DB) error {
		var existing models.User
		if err := tx.Select("id").First(&existing, id).Error; err != nil {
			return translate(err, ErrNotFound)
		}
		if err := tx.Model(&existing).Updates(changes).Error; err != nil {
			return errors.Wrap(err, "update user")
		}

		details := fmt.Sprintf("User #%d updated", id)
		if update.Role != "" {
			details += fmt.Sprintf(", role %s", update.Role)
		}
		if update.PasswordHash != "" {
			details += ", password changed"
		}
		return appendAudit(tx, actorID, "UPDATE", "user", details)
	})
}

// --- Audit ---

func (s *GormStore) AppendAudit(ctx context.Context, entry models.AuditLog) error {
	entry.ID = 0
	return errors.Wrap(s.db.WithContext(ctx).Create(&entry).Error, "insert audit log")
}

func (s *GormStore) ListAuditLogs(ctx context.Context, r Range, limit int) ([]AuditLogView, error) {
	logs := []AuditLogView{}
	q := s.db.WithContext(ctx).Table("audit_logs").
		Select("audit_logs.*, COALESCE(users.name, '') AS user_name").
		Joins("LEFT JOIN users ON users.id = audit_logs.user_id")
	q = applyRange(q, "audit_logs.created_at", r)

	err := q.Order("audit_logs.created_at DESC, audit_logs.id DESC").Limit(limit).Scan(&logs).Error
	if err != nil {
		return nil, errors.Wrap(err, "list audit logs")
	}
	return logs, nil
}

// applyRange filters column by whichever bounds of r are set.
func applyRange(q *gorm.DB, column string, r Range) *gorm.DB {
	if !r.From.IsZero() {
		q = q.Where(column+" >= ?", r.From.UTC())
	}
	if !r.To.IsZero() {
		q = q.Where(column+" <= ?", r.To.UTC())
	}
	return q
}
