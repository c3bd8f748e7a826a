package assets

// DefaultStyleName is the name of the built-in theme.
const DefaultStyleName = "default"

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a built-in theme by name.
// The name should not include the .css extension or path components.
// Returns ErrStyleNotFound if the style does not exist.
// Returns ErrInvalidAssetName if the name contains path separators or traversal.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// Styles lists the built-in theme names in lexical order.
func Styles() []string {
	return defaultLoader.Styles()
}
