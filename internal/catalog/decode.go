package catalog

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/review"
)

// decodeProductList decodes the {"products": [...]} envelope. Unknown keys
// anywhere in the payload are skipped so catalog-side additions never break
// the client.
func decodeProductList(body []byte) ([]Product, error) {
	var products []Product

	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "products" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			p, err := decodeProduct(d)
			if err != nil {
				return err
			}
			products = append(products, p)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return products, nil
}

// decodeProductBytes decodes a bare product object.
func decodeProductBytes(body []byte) (*Product, error) {
	p, err := decodeProduct(jx.DecodeBytes(body))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func decodeProduct(d *jx.Decoder) (Product, error) {
	var p Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			id, err := d.Int64()
			if err != nil {
				return errors.Wrap(err, "id")
			}
			p.ID = id
		case "title":
			return decodeInto(d, &p.Title, "title")
		case "description":
			return decodeInto(d, &p.Description, "description")
		case "price":
			num, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			price, err := decimal.NewFromString(num.String())
			if err != nil {
				return errors.Wrap(err, "price")
			}
			p.Price = price
		case "discountPercentage":
			v, err := d.Float64()
			if err != nil {
				return errors.Wrap(err, "discountPercentage")
			}
			p.DiscountPercentage = v
		case "rating":
			v, err := d.Float64()
			if err != nil {
				return errors.Wrap(err, "rating")
			}
			p.Rating = v
		case "stock":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "stock")
			}
			p.Stock = v
		case "category":
			return decodeInto(d, &p.Category, "category")
		case "thumbnail":
			return decodeInto(d, &p.Thumbnail, "thumbnail")
		case "images":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "images")
				}
				p.Images = append(p.Images, s)
				return nil
			})
		case "reviews":
			return d.Arr(func(d *jx.Decoder) error {
				r, err := decodeSeededReview(d)
				if err != nil {
					return err
				}
				p.Reviews = append(p.Reviews, r)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	return p, err
}

func decodeSeededReview(d *jx.Decoder) (review.Review, error) {
	var r review.Review
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "rating":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "review rating")
			}
			r.Rating = v
		case "comment":
			return decodeInto(d, &r.Comment, "review comment")
		case "reviewerName":
			return decodeInto(d, &r.ReviewerName, "reviewer name")
		case "date":
			return decodeInto(d, &r.Date, "review date")
		default:
			return d.Skip()
		}
		return nil
	})
	return r, err
}

// decodeCategories accepts both category response shapes: an array of plain
// strings, or an array of objects where name (preferred) or slug carries the
// category label.
func decodeCategories(body []byte) ([]string, error) {
	var categories []string

	d := jx.DecodeBytes(body)
	err := d.Arr(func(d *jx.Decoder) error {
		switch d.Next() {
		case jx.String:
			s, err := d.Str()
			if err != nil {
				return err
			}
			categories = append(categories, s)
			return nil
		case jx.Object:
			var name, slug string
			if err := d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "name":
					return decodeInto(d, &name, "category name")
				case "slug":
					return decodeInto(d, &slug, "category slug")
				default:
					return d.Skip()
				}
			}); err != nil {
				return err
			}
			if name == "" {
				name = slug
			}
			if name != "" {
				categories = append(categories, name)
			}
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func decodeInto(d *jx.Decoder, dst *string, field string) error {
	s, err := d.Str()
	if err != nil {
		return errors.Wrap(err, field)
	}
	*dst = s
	return nil
}
