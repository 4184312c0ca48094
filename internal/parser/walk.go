package parser

import (
	"github.com/PuerkitoBio/goquery"
)

// walkAncestors visits the ancestors of sel from nearest outward, at most
// maxDepth levels, stopping early when visit returns true
func walkAncestors(sel *goquery.Selection, maxDepth int, visit func(*goquery.Selection) bool) {
	current := sel.Parent()
	for depth := 0; depth < maxDepth && current.Length() > 0; depth++ {
		if visit(current) {
			return
		}
		current = current.Parent()
	}
}

// closestContainer returns the nearest cell, div or table enclosing sel
func closestContainer(sel *goquery.Selection) *goquery.Selection {
	return sel.Closest("td, div, table")
}
