package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopcart/backend/internal/domain/account"
	"github.com/shopcart/backend/internal/domain/catalog"
	"github.com/shopcart/backend/internal/domain/order"
)

// CartLines is the cart stored as a JSON array column
type CartLines []account.CartLine

// Value implements driver.Valuer
func (c CartLines) Value() (driver.Value, error) {
	return marshalJSONColumn([]account.CartLine(c))
}

// Scan implements sql.Scanner
func (c *CartLines) Scan(src any) error {
	var lines []account.CartLine
	if err := unmarshalJSONColumn(src, &lines); err != nil {
		return err
	}
	*c = lines
	return nil
}

// ProductIDs is a list of product references stored as a JSON array column
type ProductIDs []catalog.ProductID

// Value implements driver.Valuer
func (p ProductIDs) Value() (driver.Value, error) {
	return marshalJSONColumn([]catalog.ProductID(p))
}

// Scan implements sql.Scanner
func (p *ProductIDs) Scan(src any) error {
	var ids []catalog.ProductID
	if err := unmarshalJSONColumn(src, &ids); err != nil {
		return err
	}
	*p = ids
	return nil
}

// OrderLines is an order's line snapshot stored as a JSON array column
type OrderLines []order.Line

// Value implements driver.Valuer
func (o OrderLines) Value() (driver.Value, error) {
	return marshalJSONColumn([]order.Line(o))
}

// Scan implements sql.Scanner
func (o *OrderLines) Scan(src any) error {
	var lines []order.Line
	if err := unmarshalJSONColumn(src, &lines); err != nil {
		return err
	}
	*o = lines
	return nil
}

// marshalJSONColumn always writes an array, never SQL NULL
func marshalJSONColumn[T any](v []T) (driver.Value, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalJSONColumn(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}
