package public

import (
	"strconv"
	"strings"

	handlershared "github.com/ecommapi/internal/http/handlers/shared"
	"github.com/ecommapi/internal/http/response"
	"github.com/ecommapi/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListProducts 商品列表，非员工看不到无库存商品
func (h *Handler) ListProducts(c *gin.Context) {
	filter, err := parseProductFilter(c)
	if err != nil {
		response.ErrorWithData(c, response.CodeBadRequest, err.Error(), gin.H{"field": "query"})
		return
	}
	filter.Page, filter.PageSize = handlershared.ParsePagination(c)
	products, total, err := h.ProductService.List(optionalActor(c), filter)
	if err != nil {
		respondServiceError(c, err, "list products failed")
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(filter.Page, filter.PageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.Get(c.Request.Context(), optionalActor(c), id)
	if err != nil {
		respondServiceError(c, err, "get product failed")
		return
	}
	response.Success(c, product)
}

// ListCategories 分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondServiceError(c, err, "list categories failed")
		return
	}
	response.Success(c, categories)
}

func parseProductFilter(c *gin.Context) (repository.ProductListFilter, error) {
	filter := repository.ProductListFilter{
		Search: strings.TrimSpace(c.Query("search")),
	}
	for _, raw := range c.QueryArray("category") {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				filter.CategoryNames = append(filter.CategoryNames, name)
			}
		}
	}
	var err error
	if filter.Uncategorized, err = queryBool(c, "uncategorized"); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(c.Query("discounted")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errInvalidQuery("discounted")
		}
		filter.Discounted = &value
	}
	if filter.Price, err = queryDecimal(c, "price"); err != nil {
		return filter, err
	}
	if filter.PriceGT, err = queryDecimal(c, "price__gt"); err != nil {
		return filter, err
	}
	if filter.PriceLT, err = queryDecimal(c, "price__lt"); err != nil {
		return filter, err
	}
	if filter.Rating, err = queryFloat(c, "average_rating"); err != nil {
		return filter, err
	}
	if filter.RatingGT, err = queryFloat(c, "average_rating__gt"); err != nil {
		return filter, err
	}
	if filter.RatingLT, err = queryFloat(c, "average_rating__lt"); err != nil {
		return filter, err
	}
	return filter, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func errInvalidQuery(name string) error {
	return queryError("invalid value for " + name)
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errInvalidQuery(name)
	}
	return value, nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, errInvalidQuery(name)
	}
	return &value, nil
}

func queryFloat(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errInvalidQuery(name)
	}
	return &value, nil
}
