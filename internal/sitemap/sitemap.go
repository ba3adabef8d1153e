package sitemap

import (
	"context"
	"encoding/xml"
	"strconv"
	"time"

	"github.com/fekuna/catalog-storefront/internal/category"
	catdto "github.com/fekuna/catalog-storefront/internal/category/dto"
	"github.com/fekuna/catalog-storefront/internal/model"
	"github.com/fekuna/catalog-storefront/internal/product"
	prodto "github.com/fekuna/catalog-storefront/internal/product/dto"
	"golang.org/x/sync/errgroup"
)

const xmlns = "http://www.sitemaps.org/schemas/sitemap/0.9"

type URL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type URLSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

type staticPage struct {
	path       string
	changeFreq string
	priority   float64
}

var staticPages = []staticPage{
	{"", "weekly", 1.0},
	{"/about", "monthly", 0.8},
	{"/products", "daily", 0.9},
	{"/contact", "monthly", 0.7},
	{"/catalogue-request", "monthly", 0.6},
}

type Builder struct {
	baseURL    string
	categories category.Repository
	products   product.Repository
	now        func() time.Time
}

func NewBuilder(baseURL string, categories category.Repository, products product.Repository) *Builder {
	return &Builder{
		baseURL:    baseURL,
		categories: categories,
		products:   products,
		now:        time.Now,
	}
}

// Build loads every active row of the four catalog tables in parallel and
// turns them into slug-path URLs. Rows whose parent is inactive are skipped.
func (b *Builder) Build(ctx context.Context) (*URLSet, error) {
	active := true
	levels := make([][]model.Category, len(model.Levels))
	var products []model.Product

	g, ctx := errgroup.WithContext(ctx)
	for i, level := range model.Levels {
		i, level := i, level
		g.Go(func() error {
			rows, _, err := b.categories.FindAll(ctx, &catdto.CategoryFilters{Level: level, IsActive: &active})
			levels[i] = rows
			return err
		})
	}
	g.Go(func() error {
		rows, _, err := b.products.FindAll(ctx, &prodto.ProductFilters{IsActive: &active})
		products = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set := &URLSet{Xmlns: xmlns}
	today := b.now().UTC().Format(time.DateOnly)
	for _, p := range staticPages {
		set.URLs = append(set.URLs, URL{
			Loc:        b.baseURL + p.path,
			LastMod:    today,
			ChangeFreq: p.changeFreq,
			Priority:   priority(p.priority),
		})
	}

	// paths[i] maps an id at level i to its /products/... path.
	paths := make([]map[string]string, len(model.Levels))
	for i, rows := range levels {
		paths[i] = make(map[string]string, len(rows))
		for _, c := range rows {
			prefix := "/products"
			if i > 0 {
				parent, ok := paths[i-1][deref(c.ParentID)]
				if !ok {
					continue
				}
				prefix = parent
			}
			paths[i][c.ID] = prefix + "/" + c.Slug
			set.URLs = append(set.URLs, URL{
				Loc:        b.baseURL + paths[i][c.ID],
				LastMod:    c.UpdatedAt.UTC().Format(time.DateOnly),
				ChangeFreq: "weekly",
				Priority:   priority(0.8 - 0.1*float64(i)),
			})
		}
	}

	for _, p := range products {
		prefix, ok := productPrefix(p, paths)
		if !ok {
			continue
		}
		set.URLs = append(set.URLs, URL{
			Loc:        b.baseURL + prefix + "/" + p.Slug,
			LastMod:    p.UpdatedAt.UTC().Format(time.DateOnly),
			ChangeFreq: "weekly",
			Priority:   priority(0.6),
		})
	}
	return set, nil
}

// productPrefix returns the path of the deepest category the product sits in.
func productPrefix(p model.Product, paths []map[string]string) (string, bool) {
	switch {
	case p.SuperSubCategoryID != nil:
		prefix, ok := paths[2][*p.SuperSubCategoryID]
		return prefix, ok
	case p.SubCategoryID != nil:
		prefix, ok := paths[1][*p.SubCategoryID]
		return prefix, ok
	default:
		prefix, ok := paths[0][p.CategoryID]
		return prefix, ok
	}
}

// Robots returns robots.txt pointing crawlers at the sitemap.
func (b *Builder) Robots() string {
	return "User-agent: *\n" +
		"Allow: /\n" +
		"Disallow: /admin\n" +
		"Disallow: /api/admin\n" +
		"\n" +
		"Sitemap: " + b.baseURL + "/sitemap.xml\n"
}

func priority(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
