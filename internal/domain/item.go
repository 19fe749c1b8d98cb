package domain

import "sort"

// EmptyDescription is stored when a menu line has no description.
const EmptyDescription = "empty"

// ItemSummary is one entry of a listing page.
type ItemSummary struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Link    string `json:"link"`
	Avatar  string `json:"avatar"`
}

type MenuLine struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Desc  string  `json:"desc"`
	Img   string  `json:"img"`
}

// ItemBody is the document as it is written to the search index.
type ItemBody struct {
	Name    string     `json:"name"`
	Link    string     `json:"link"`
	Avatar  string     `json:"avatar"`
	Address string     `json:"address"`
	Tag     string     `json:"tag"`
	Menu    []MenuLine `json:"menu"`
}

// ItemDetail is the document of record, keyed by its fingerprint.
type ItemDetail struct {
	ID string `json:"id"`
	ItemBody
}

// SortMenu orders a menu by name ascending.
func SortMenu(menu []MenuLine) {
	sort.SliceStable(menu, func(i, j int) bool {
		return menu[i].Name < menu[j].Name
	})
}

// MenuFromMap flattens an accumulated name->line map into a sorted menu.
func MenuFromMap(lines map[string]MenuLine) []MenuLine {
	menu := make([]MenuLine, 0, len(lines))
	for _, line := range lines {
		menu = append(menu, line)
	}
	SortMenu(menu)
	return menu
}
