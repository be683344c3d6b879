package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"category-dashboard/internal/model"
	"category-dashboard/internal/repository"
)

// CategoryInput is the raw form of a create or update request.
// A nil ItemCount means the field was not sent.
type CategoryInput struct {
	Name      string
	ItemCount *string
}

// ValidCategory is a CategoryInput that passed validation.
type ValidCategory struct {
	Name      string
	ItemCount *int
}

// ValidateCategory trims the name and parses the item count.
// A blank item count is treated as absent.
func ValidateCategory(in CategoryInput) (ValidCategory, error) {
	out := ValidCategory{Name: strings.TrimSpace(in.Name)}
	verr := &ValidationError{}

	if out.Name == "" {
		verr.add("name", "Category name is required")
	}

	if in.ItemCount != nil {
		if raw := strings.TrimSpace(*in.ItemCount); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				verr.add("itemCount", "Item count must be a non-negative integer")
			} else {
				out.ItemCount = &n
			}
		}
	}

	return out, verr.orNil()
}

// CategoryService provides ownership-scoped category operations.
type CategoryService struct {
	repo *repository.CategoryRepository
	log  logrus.FieldLogger
}

func NewCategoryService(repo *repository.CategoryRepository, log logrus.FieldLogger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

func (s *CategoryService) List(ctx context.Context, userID uint) ([]model.Category, error) {
	return s.repo.FindByUserID(ctx, userID)
}

// Create stores a category for userID. An absent item count defaults to zero.
func (s *CategoryService) Create(ctx context.Context, userID uint, in ValidCategory, image string) (*model.Category, error) {
	count := 0
	if in.ItemCount != nil {
		count = *in.ItemCount
	}
	category, err := s.repo.Create(ctx, model.NewCategory{
		Name:      in.Name,
		ItemCount: count,
		Image:     image,
		CreatedBy: userID,
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": category.ID}).Info("category created")
	return category, nil
}

// Update renames the category and applies the item count and image when
// given. It returns nil when userID owns no category with that id.
func (s *CategoryService) Update(ctx context.Context, userID, id uint, in ValidCategory, image *string) (*model.Category, error) {
	category, err := s.repo.Update(ctx, id, userID, model.CategoryUpdate{
		Name:      in.Name,
		ItemCount: in.ItemCount,
		Image:     image,
	})
	if err != nil || category == nil {
		return category, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": id}).Info("category updated")
	return category, nil
}

// Delete removes the category and reports whether it existed for userID.
func (s *CategoryService) Delete(ctx context.Context, userID, id uint) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.WithFields(logrus.Fields{"user_id": userID, "category_id": id}).Info("category deleted")
	}
	return deleted, nil
}
