package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"category-dashboard/internal/model"
)

// CategoryRepository manages categories. Every call that targets a category
// is scoped to the owning user.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByUserID lists the categories created by userID in store order.
func (r *CategoryRepository) FindByUserID(ctx context.Context, userID uint) ([]model.Category, error) {
	categories := make([]model.Category, 0)
	if err := r.db.WithContext(ctx).Where("created_by = ?", userID).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Create(ctx context.Context, input model.NewCategory) (*model.Category, error) {
	category := model.Category{
		Name:      input.Name,
		ItemCount: input.ItemCount,
		Image:     input.Image,
		CreatedBy: input.CreatedBy,
	}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return &category, nil
}

// Update applies a partial update to the category id owned by userID and
// returns the stored row. A nil category with a nil error means no such
// category exists for that owner.
func (r *CategoryRepository) Update(ctx context.Context, id, userID uint, data model.CategoryUpdate) (*model.Category, error) {
	updates := map[string]interface{}{
		"name": data.Name,
	}
	if data.ItemCount != nil {
		updates["item_count"] = *data.ItemCount
	}
	if data.Image != nil {
		updates["image"] = *data.Image
	}

	db := r.db.WithContext(ctx)
	res := db.Model(&model.Category{}).Where("id = ? AND created_by = ?", id, userID).Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	var category model.Category
	err := db.Where("id = ? AND created_by = ?", id, userID).Take(&category).Error
	switch {
	case err == nil:
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Deleted between the write and the read.
		return nil, nil
	default:
		return nil, fmt.Errorf("reload category: %w", err)
	}
}

// Delete removes the category id owned by userID. It reports false when no
// matching row existed.
func (r *CategoryRepository) Delete(ctx context.Context, id, userID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND created_by = ?", id, userID).Delete(&model.Category{})
	if res.Error != nil {
		return false, fmt.Errorf("delete category: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ImagePaths returns every non-empty image path referenced by any category.
func (r *CategoryRepository) ImagePaths(ctx context.Context) ([]string, error) {
	var paths []string
	if err := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("image <> ?", "").
		Pluck("image", &paths).Error; err != nil {
		return nil, fmt.Errorf("list category images: %w", err)
	}
	return paths, nil
}
