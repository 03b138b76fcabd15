package constant

import _ "embed"

// AsciiArtLogo is the banner shown on the root command help.
//
//go:embed ascii.txt
var AsciiArtLogo string
