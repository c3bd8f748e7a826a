// Package pipeline turns vault notes into HTML documents ready for capture.
//
// The stages mirror a note's trip to the browser:
//   - Markdown preprocessing (line endings, fence language names, ==highlight==)
//   - Markdown to HTML conversion via Goldmark, code highlighted with inline styles
//   - Sanitizing raw HTML notes with bluemonday
//   - Relative image and link paths rewritten to file:// URLs
//   - Snapshot stylesheet injected into the document head
//
// Rasterization and storage are handled by the root vaultshot package. This
// package only produces the tree that gets captured, and picks the capture
// targets out of it.
package pipeline
