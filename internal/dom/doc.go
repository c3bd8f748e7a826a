// Package dom holds the HTML tree helpers used to prepare a document before
// it is captured: parsing and rendering, deep cloning, element lookup,
// inline style propagation and construction of the small element shapes
// the publishing step inserts (image placeholders, headings, links).
//
// All helpers operate on golang.org/x/net/html nodes. None of them perform
// I/O, so none of them return errors except Parse and Render.
package dom
