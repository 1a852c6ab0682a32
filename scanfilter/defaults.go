package scanfilter

// DefaultIgnorePatterns are names and globs skipped on every scan. Transcript
// archives travel on removable media and shared drives, so OS litter and
// editor droppings show up in practice.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// macOS
	".DS_Store",
	"__MACOSX",

	// Windows
	"Thumbs.db",
	"desktop.ini",
	"$RECYCLE.BIN",
	"System Volume Information",

	// Editor droppings and stray copies
	"*.swp",
	"*.swo",
	"*~",
	"*.bak",
	"*.tmp",
	"*.orig",
}
