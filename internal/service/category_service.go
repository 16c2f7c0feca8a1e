package service

import (
	"strings"

	"github.com/ecommapi/internal/models"
	"github.com/ecommapi/internal/repository"
)

// CategoryService 分类业务服务
type CategoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(repo repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CategoryInput 创建/更新分类输入
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=50"`
}

// List 获取分类列表
func (s *CategoryService) List() ([]models.Category, error) {
	return s.repo.List()
}

// Create 创建分类
func (s *CategoryService) Create(input CategoryInput) (*models.Category, error) {
	if err := s.validateInput(&input, 0); err != nil {
		return nil, err
	}
	category := models.Category{Name: input.Name}
	if err := s.repo.Create(&category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Update 更新分类
func (s *CategoryService) Update(id uint, input CategoryInput) (*models.Category, error) {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	if err := s.validateInput(&input, id); err != nil {
		return nil, err
	}

	category.Name = input.Name
	if err := s.repo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

// Delete 删除分类，原有商品变为未分类
func (s *CategoryService) Delete(id uint) error {
	category, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	return s.repo.Delete(id)
}

func (s *CategoryService) validateInput(input *CategoryInput, selfID uint) error {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return err
	}
	existing, err := s.repo.GetByName(input.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrCategoryNameTaken
	}
	return nil
}
