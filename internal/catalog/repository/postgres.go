package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-aisle-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type membership struct {
	OwnerID  string `db:"owner_id"`
	MemberID string `db:"member_id"`
}

func (r *PGRepository) FindStore(ctx context.Context, id string) (*model.Store, error) {
	var store model.Store
	query := `SELECT id, name, address, phone, is_active, created_at, updated_at FROM stores WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &store, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *PGRepository) FindAisle(ctx context.Context, id string) (*model.Aisle, error) {
	var aisle model.Aisle
	query := `SELECT id, store_id, number, name, created_at, updated_at FROM aisles WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &aisle, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	allowed, err := r.members(ctx, `SELECT aisle_id AS owner_id, category_id AS member_id FROM aisle_categories WHERE aisle_id IN (?)`, []string{id})
	if err != nil {
		return nil, err
	}
	aisle.AllowedCategoryIDs = allowed[id]
	if aisle.AllowedCategoryIDs == nil {
		aisle.AllowedCategoryIDs = model.NewIDSet()
	}
	return &aisle, nil
}

func (r *PGRepository) ListAisles(ctx context.Context, storeID string) ([]model.Aisle, error) {
	var aisles []model.Aisle
	query := `SELECT id, store_id, number, name, created_at, updated_at FROM aisles WHERE store_id = $1 ORDER BY number ASC`
	if err := r.DB.SelectContext(ctx, &aisles, query, storeID); err != nil {
		return nil, err
	}

	ids := make([]string, len(aisles))
	for i, a := range aisles {
		ids[i] = a.ID
	}
	allowed, err := r.members(ctx, `SELECT aisle_id AS owner_id, category_id AS member_id FROM aisle_categories WHERE aisle_id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	for i := range aisles {
		aisles[i].AllowedCategoryIDs = allowed[aisles[i].ID]
		if aisles[i].AllowedCategoryIDs == nil {
			aisles[i].AllowedCategoryIDs = model.NewIDSet()
		}
	}
	return aisles, nil
}

const productColumns = `id, name, sku, description, price, shelf_life_days, is_active, created_at, updated_at`

func (r *PGRepository) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	products := []model.Product{product}
	if err := r.attachSets(ctx, products); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (r *PGRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = TRUE ORDER BY name ASC`
	if err := r.DB.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	if err := r.attachSets(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	query := `SELECT id, parent_id, name, description, icon, created_at, updated_at FROM categories ORDER BY name ASC`
	err := r.DB.SelectContext(ctx, &categories, query)
	return categories, err
}

func (r *PGRepository) ListNutrients(ctx context.Context) ([]model.NutrientType, error) {
	var nutrients []model.NutrientType
	query := `SELECT id, name, classification, description, created_at, updated_at FROM nutrient_types ORDER BY name ASC`
	err := r.DB.SelectContext(ctx, &nutrients, query)
	return nutrients, err
}

func (r *PGRepository) attachSets(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	categories, err := r.members(ctx, `SELECT product_id AS owner_id, category_id AS member_id FROM product_categories WHERE product_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to load product categories: %w", err)
	}
	nutrients, err := r.members(ctx, `SELECT product_id AS owner_id, nutrient_id AS member_id FROM product_nutrients WHERE product_id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to load product nutrients: %w", err)
	}

	for i := range products {
		products[i].CategoryIDs = orEmpty(categories[products[i].ID])
		products[i].NutrientIDs = orEmpty(nutrients[products[i].ID])
	}
	return nil
}

// members runs a join-table query and groups member ids by owner.
func (r *PGRepository) members(ctx context.Context, query string, ownerIDs []string) (map[string]model.IDSet, error) {
	out := make(map[string]model.IDSet)
	if len(ownerIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(query, ownerIDs)
	if err != nil {
		return nil, err
	}
	// Rebind for Postgres ($1, $2...)
	query = r.DB.Rebind(query)

	var rows []membership
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if out[row.OwnerID] == nil {
			out[row.OwnerID] = model.NewIDSet()
		}
		out[row.OwnerID].Add(row.MemberID)
	}
	return out, nil
}

func orEmpty(s model.IDSet) model.IDSet {
	if s == nil {
		return model.NewIDSet()
	}
	return s
}
