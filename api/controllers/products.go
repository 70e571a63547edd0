package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dovl-commerce/dovl-backend/api/responses"
	"github.com/dovl-commerce/dovl-backend/api/validators"
	"github.com/dovl-commerce/dovl-backend/pkg/db/models"
	pkgerrors "github.com/dovl-commerce/dovl-backend/pkg/errors"
	"github.com/dovl-commerce/dovl-backend/pkg/logger"
	"github.com/dovl-commerce/dovl-backend/pkg/types"
)

type productFetcher interface {
	FetchForDisplay(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

type productResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Slug        string                 `json:"slug"`
	Description string                 `json:"description,omitempty"`
	Images      []productImageResponse `json:"images"`
	Price       types.Money            `json:"price"`
	SalePrice   *types.Money           `json:"sale_price,omitempty"`
	CategoryID  *string                `json:"category_id,omitempty"`
	Variants    []variantResponse      `json:"variants"`
	TotalStock  int                    `json:"total_stock"`
	ViewCount   int                    `json:"view_count"`
}

type productImageResponse struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	IsMain bool   `json:"is_main"`
}

type variantResponse struct {
	Size      string `json:"size"`
	ColorName string `json:"color_name"`
	ColorHex  string `json:"color_hex"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
}

func newProductResponse(p *models.Product) productResponse {
	images := make([]productImageResponse, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, productImageResponse{URL: img.URL, Alt: img.Alt, IsMain: img.IsMain})
	}
	variants := make([]variantResponse, 0, len(p.Variants))
	for _, v := range p.Variants {
		variants = append(variants, variantResponse{Size: v.Size, ColorName: v.ColorName, ColorHex: v.ColorHex, SKU: v.SKU, Stock: v.Stock})
	}
	out := productResponse{
		ID:          p.ID.Hex(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Images:      images,
		Price:       types.NewMoney(p.Price),
		CategoryID:  types.FormatOptionalID(&p.Category),
		Variants:    variants,
		TotalStock:  p.TotalStock,
		ViewCount:   p.ViewCount,
	}
	if p.SalePrice != nil {
		sale := types.NewMoney(*p.SalePrice)
		out.SalePrice = &sale
	}
	return out
}

// ProductDetail returns an active product and counts the view.
func ProductDetail(repo productFetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id, err := validators.ParseID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := repo.FetchForDisplay(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product"))
			return
		}
		if product == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		responses.WriteSuccess(w, newProductResponse(product))
	}
}
