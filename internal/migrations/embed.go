// Package migrations embeds the goose SQL migrations for the patienthub
// schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
