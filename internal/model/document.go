package model

// Filenames recognized inside a remote document.
const (
	SettingsFile   = "settings.json"
	PackagesFile   = "packages.json"
	KeymapFile     = "keymap.cson"
	StylesFile     = "styles.less"
	InitCoffeeFile = "init.coffee"
	InitJSFile     = "init.js"
	SnippetsFile   = "snippets.cson"
)

// Document is a local copy of the remote multi-file document (a gist).
type Document struct {
	ID      string
	Files   map[string]string // filename -> content
	Version string            // history[0].version, issued by the store on each update
	URL     string            // human-facing page
}
