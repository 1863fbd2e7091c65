// Package migrations embeds the MySQL schema so feedctl can migrate without
// a checkout.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
