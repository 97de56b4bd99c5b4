package openfoodfacts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"foodfollow/internal/domain"
)

// flexString accepts any JSON value. Strings keep their value and every other
// kind decodes as absent.
type flexString struct {
	Value string
	Valid bool
}

// flexCode is a flexString that also keeps number literals.
type flexCode struct {
	flexString
}

func (s *flexString) UnmarshalJSON(b []byte) error {
	*s = decodeFlex(b, false)
	return nil
}

func (c *flexCode) UnmarshalJSON(b []byte) error {
	c.flexString = decodeFlex(b, true)
	return nil
}

func decodeFlex(b []byte, numbers bool) flexString {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return flexString{}
	}
	switch {
	case b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return flexString{}
		}
		return flexString{Value: v, Valid: true}
	case numbers && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		return flexString{Value: string(b), Valid: true}
	}
	return flexString{}
}

// nutriments holds the raw nutriment values. Anything but a JSON object
// decodes as empty.
type nutriments map[string]json.RawMessage

func (n *nutriments) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		*n = nil
		return nil
	}
	*n = m
	return nil
}

func (s flexString) ptr() *string {
	if !s.Valid {
		return nil
	}
	v := s.Value
	return &v
}

// toNumber coerces a raw nutriment value. Numbers and numeric strings are
// accepted; anything else is unknown.
func toNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var f float64
	switch {
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		f = v
	default:
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil
		}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

type rawProduct struct {
	Code            flexCode   `json:"code"`
	ProductName     flexString `json:"product_name"`
	ProductNameFR   flexString `json:"product_name_fr"`
	ProductNameEN   flexString `json:"product_name_en"`
	Brands          flexString `json:"brands"`
	ImageURL        flexString `json:"image_url"`
	NutriScoreGrade flexString `json:"nutriscore_grade"`
	Nutriments      nutriments `json:"nutriments"`
}

// decodeProduct decodes one raw product. ok is false for anything that is not
// a JSON object.
func decodeProduct(raw json.RawMessage) (p rawProduct, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return rawProduct{}, false
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return rawProduct{}, false
	}
	return p, true
}

func (p rawProduct) displayName() string {
	for _, n := range []flexString{p.ProductName, p.ProductNameFR, p.ProductNameEN} {
		if name := strings.TrimSpace(n.Value); n.Valid && name != "" {
			return name
		}
	}
	if p.Code.Value == "" {
		return "Unknown product"
	}
	return "Unknown product " + p.Code.Value
}

func normalize(p rawProduct) domain.Product {
	out := domain.Product{
		Code:     p.Code.Value,
		Name:     p.displayName(),
		Brand:    p.Brands.ptr(),
		ImageURL: p.ImageURL.ptr(),
		Nutriments: domain.Nutriments{
			EnergyKcal100g:    toNumber(p.Nutriments["energy-kcal_100g"]),
			Proteins100g:      toNumber(p.Nutriments["proteins_100g"]),
			Carbohydrates100g: toNumber(p.Nutriments["carbohydrates_100g"]),
			Fat100g:           toNumber(p.Nutriments["fat_100g"]),
		},
	}
	if p.NutriScoreGrade.Valid {
		g := strings.ToUpper(p.NutriScoreGrade.Value)
		out.NutriScoreGrade = &g
	}
	return out
}
