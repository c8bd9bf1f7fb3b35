// Package all enables every built-in progress backend. Import it for side
// effects from the binary's wiring layer:
//
//	import _ "colsplit/internal/storage/all"
package all

import (
	_ "colsplit/internal/storage/jsonfile"
	_ "colsplit/internal/storage/mssql"
	_ "colsplit/internal/storage/mysql"
	_ "colsplit/internal/storage/postgres"
	_ "colsplit/internal/storage/sqlite"
)
