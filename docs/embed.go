// Package docs embeds the C-Next language reference for use by the CLI.
package docs

import _ "embed"

//go:embed lang.md
var LangGuide string
