package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// prices go over the wire as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Money is a decimal amount stored as Decimal128 in mongo.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money { return Money{Decimal: d} }

// MoneyFromString panics on malformed input; meant for constants and tests.
func MoneyFromString(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

func MoneyFromInt(v int64) Money { return Money{Decimal: decimal.NewFromInt(v)} }

func (m Money) Add(o Money) Money { return Money{Decimal: m.Decimal.Add(o.Decimal)} }

func (m Money) Times(qty int) Money {
	return Money{Decimal: m.Decimal.Mul(decimal.NewFromInt(int64(qty)))}
}

func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("money: %w", err)
	}
	return bson.MarshalValue(d)
}

// UnmarshalBSONValue also accepts numeric types so documents written by
// other tools (doubles, ints) still decode.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d, ok := rv.Decimal128OK()
		if !ok {
			return fmt.Errorf("money: malformed decimal128")
		}
		parsed, err := decimal.NewFromString(d.String())
		if err != nil {
			return fmt.Errorf("money: %w", err)
		}
		m.Decimal = parsed
	case bsontype.Double:
		m.Decimal = decimal.NewFromFloat(rv.Double())
	case bsontype.Int32:
		m.Decimal = decimal.NewFromInt32(rv.Int32())
	case bsontype.Int64:
		m.Decimal = decimal.NewFromInt(rv.Int64())
	case bsontype.Null, bsontype.Undefined:
		m.Decimal = decimal.Zero
	default:
		return fmt.Errorf("money: cannot decode bson type %s", t)
	}
	return nil
}
