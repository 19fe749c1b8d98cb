package extract

// Selectors locates the parts of the listing and detail markup.
// All values are CSS selectors understood by goquery.
type Selectors struct {
	ListItem    string `mapstructure:"list_item"`
	ItemLink    string `mapstructure:"item_link"`
	ItemAvatar  string `mapstructure:"item_avatar"`
	ItemName    string `mapstructure:"item_name"`
	ItemAddress string `mapstructure:"item_address"`
	NextPage    string `mapstructure:"next_page"`
	Tag         string `mapstructure:"tag"`
	MenuRow     string `mapstructure:"menu_row"`
	MenuName    string `mapstructure:"menu_name"`
	MenuPrice   string `mapstructure:"menu_price"`
	MenuDesc    string `mapstructure:"menu_desc"`
	MenuImage   string `mapstructure:"menu_image"`
}

// DefaultSelectors matches the delivery box of the foody.vn city pages.
func DefaultSelectors() Selectors {
	return Selectors{
		ListItem:    "#box-delivery > div:nth-of-type(2) > ul > li",
		ItemLink:    "a.avatar",
		ItemAvatar:  "a.avatar img",
		ItemName:    "span.none-quality-text",
		ItemAddress: "div.address",
		NextPage:    "#box-delivery > div.n-listitems > i.li-page.fa.fa-angle-right",
		Tag:         ".kind-restaurant",
		MenuRow:     "#restaurant-item > div > div .item-restaurant-row",
		MenuName:    ".item-restaurant-name",
		MenuPrice:   ".current-price",
		MenuDesc:    ".item-restaurant-desc",
		MenuImage:   ".inline img",
	}
}

// withDefaults fills every empty selector from DefaultSelectors.
func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.ListItem, d.ListItem)
	fill(&s.ItemLink, d.ItemLink)
	fill(&s.ItemAvatar, d.ItemAvatar)
	fill(&s.ItemName, d.ItemName)
	fill(&s.ItemAddress, d.ItemAddress)
	fill(&s.NextPage, d.NextPage)
	fill(&s.Tag, d.Tag)
	fill(&s.MenuRow, d.MenuRow)
	fill(&s.MenuName, d.MenuName)
	fill(&s.MenuPrice, d.MenuPrice)
	fill(&s.MenuDesc, d.MenuDesc)
	fill(&s.MenuImage, d.MenuImage)
	return s
}
