package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kindora/therapy-platform/internal/model"
)

type SlotRepository interface {
	// Найти слот по ID.
	GetByID(ctx context.Context, id string) (*model.TimeSlot, error)
	// Слоты провайдера в интервале [from, to), любые статусы.
	ListByProviderRange(ctx context.Context, providerID string, from, to time.Time) ([]model.TimeSlot, error)
	// Пакетная вставка слотов.
	CreateBatch(ctx context.Context, slots []model.TimeSlot) error
	// Удалить незабронированные слоты провайдера, начинающиеся после after.
	// Фильтр is_booked=false обязателен: параллельный клейм не должен
	// потерять свой слот при перегенерации.
	DeleteUnbookedAfter(ctx context.Context, providerID string, after time.Time) error
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) ListByProviderRange(
	ctx context.Context,
	providerID string,
	from, to time.Time,
) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) CreateBatch(ctx context.Context, slots []model.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *GormSlotRepository) DeleteUnbookedAfter(
	ctx context.Context,
	providerID string,
	after time.Time,
) error {
	return r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Where("starts_at > ?", after).
		Where("is_booked = ?", false).
		Delete(&model.TimeSlot{}).
		Error
}

// LockSlotForUpdate читает слот под блокировкой строки (SELECT ... FOR UPDATE).
// Используется внутри транзакции клейма; tx обязан быть транзакцией.
// sqlite (тесты) синтаксис FOR UPDATE не поддерживает — там победителя
// определяет условный апдейт ClaimSlot.
func LockSlotForUpdate(tx *gorm.DB, id string) (*model.TimeSlot, error) {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var slot model.TimeSlot
	if err := q.First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

// ClaimSlot — условный апдейт, единственная точка сериализации клейма:
// из N конкурентных вызовов ровно у одного RowsAffected == 1.
func ClaimSlot(tx *gorm.DB, id string) (bool, error) {
	res := tx.Model(&model.TimeSlot{}).
		Where("id = ? AND is_booked = ? AND is_active = ?", id, false, true).
		Update("is_booked", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
