// Package migrations embeds the schema so the server and catalogctl can apply
// it without shipping SQL files alongside the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
