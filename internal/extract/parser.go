package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"foody/indexer/internal/domain"
	"foody/indexer/internal/fingerprint"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidPrice = errors.New("invalid price")

var pricePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Parser turns rendered markup into listing and detail records.
// It never touches the network.
type Parser struct {
	baseURL   string
	selectors Selectors
	validate  *validator.Validate
}

func NewParser(baseURL string, selectors Selectors) *Parser {
	return &Parser{
		baseURL:   strings.TrimRight(baseURL, "/"),
		selectors: selectors.withDefaults(),
		validate:  validator.New(),
	}
}

// Selectors returns the effective selectors, defaults included.
func (p *Parser) Selectors() Selectors {
	return p.selectors
}

func (p *Parser) ParseListingPage(html string) (*domain.ListingPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &domain.ListingPage{
		Items:   make([]domain.ItemSummary, 0),
		HasNext: doc.Find(p.selectors.NextPage).Length() > 0,
	}

	doc.Find(p.selectors.ListItem).Each(func(i int, s *goquery.Selection) {
		item, err := p.extractSummary(s)
		if err != nil {
			log.Warnf("⚠️ Skipping listing item %d: %v", i, err)
			return
		}
		page.Items = append(page.Items, *item)
	})

	log.Debugf("Parsed listing page with %d items (next: %t)", len(page.Items), page.HasNext)
	return page, nil
}

func (p *Parser) extractSummary(s *goquery.Selection) (*domain.ItemSummary, error) {
	link, _ := s.Find(p.selectors.ItemLink).First().Attr("href")
	avatar, _ := s.Find(p.selectors.ItemAvatar).First().Attr("src")

	item := &domain.ItemSummary{
		Name:    cleanText(s.Find(p.selectors.ItemName).First().Text()),
		Address: fingerprint.NormalizeAddress(cleanText(s.Find(p.selectors.ItemAddress).First().Text())),
		Link:    p.absoluteURL(strings.TrimSpace(link)),
		Avatar:  strings.TrimSpace(avatar),
	}

	if err := p.validate.Struct(item); err != nil {
		return nil, fmt.Errorf("missing required field: %w", err)
	}
	return item, nil
}

func (p *Parser) ParseDetailPage(html string) (*domain.DetailPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &domain.DetailPage{
		Tag:  cleanText(doc.Find(p.selectors.Tag).First().Text()),
		Menu: make([]domain.MenuLine, 0),
	}

	doc.Find(p.selectors.MenuRow).Each(func(i int, row *goquery.Selection) {
		line, err := p.extractMenuLine(row)
		if err != nil {
			log.Debugf("Dropping menu row %d: %v", i, err)
			return
		}
		page.Menu = append(page.Menu, *line)
	})

	return page, nil
}

func (p *Parser) extractMenuLine(row *goquery.Selection) (*domain.MenuLine, error) {
	name := cleanText(row.Find(p.selectors.MenuName).First().Text())
	if name == "" {
		return nil, fmt.Errorf("menu row has no name")
	}

	price, err := ParsePrice(row.Find(p.selectors.MenuPrice).First().Text())
	if err != nil {
		return nil, fmt.Errorf("menu row %q: %w", name, err)
	}

	desc := cleanText(row.Find(p.selectors.MenuDesc).First().Text())
	if desc == "" {
		desc = domain.EmptyDescription
	}

	img, _ := row.Find(p.selectors.MenuImage).First().Attr("src")

	return &domain.MenuLine{
		Name:  name,
		Price: price,
		Desc:  desc,
		Img:   strings.TrimSpace(img),
	}, nil
}

// ParsePrice reads prices such as "45,000" or "45,000đ".
func ParsePrice(text string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\t', '\n', '\u00a0':
			return -1
		}
		return r
	}, text)
	cleaned = strings.TrimSuffix(cleaned, "đ")
	cleaned = strings.TrimSuffix(cleaned, "₫")

	if cleaned == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}

	if !pricePattern.MatchString(cleaned) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, text)
	}
	return price, nil
}

func (p *Parser) absoluteURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return p.baseURL + href
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
