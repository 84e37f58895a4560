// Package schemas содержит JSON-схемы событий, которыми сервис
// обменивается через брокер. Схемы встраиваются в бинарник.
package schemas

import "embed"

//go:embed events
var SchemasFS embed.FS
