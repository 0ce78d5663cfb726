package pfr

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/ffdraft/draftboard/internal/provider"
)

// TableAliases lists the table ids each category has shipped under, in the
// order they are tried. The combined rushing/receiving table has appeared
// under both names depending on whether the player is primarily a runner or
// a receiver.
var TableAliases = map[provider.Category][]string{
	provider.CategoryPassing:   {"passing"},
	provider.CategoryRushing:   {"rushing_and_receiving", "receiving_and_rushing"},
	provider.CategoryReceiving: {"rushing_and_receiving", "receiving_and_rushing"},
}

// LocateTable returns the first table matching one of the category's aliases
// and the alias that matched. ok is false when none is present, which is an
// expected outcome (a receiver has no passing table).
func LocateTable(doc *goquery.Document, cat provider.Category) (table *goquery.Selection, alias string, ok bool) {
	for _, id := range TableAliases[cat] {
		t := doc.Find("table#" + id).First()
		if t.Length() > 0 {
			return t, id, true
		}
	}
	return nil, "", false
}

// LocateRows returns the body rows of the category's table, or an empty
// selection when the table is missing.
func LocateRows(doc *goquery.Document, cat provider.Category) *goquery.Selection {
	table, _, ok := LocateTable(doc, cat)
	if !ok {
		return doc.Selection.Slice(0, 0)
	}
	return table.Find("tbody").First().ChildrenFiltered("tr")
}
