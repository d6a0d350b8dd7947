// Package all registers every warehouse backend. Import it for side effects
// from binaries that select the backend at runtime.
package all

import (
	_ "moviedw/internal/warehouse/mssql"
	_ "moviedw/internal/warehouse/postgres"
	_ "moviedw/internal/warehouse/sqlite"
)
