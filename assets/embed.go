package assets

import (
	"embed"
	"io/fs"
)

//go:embed items.yaml sql
var FS embed.FS

// ItemsYAML returns the default item catalog.
func ItemsYAML() ([]byte, error) {
	return FS.ReadFile("items.yaml")
}

// Migrations returns the SQL migrations for a driver ("sqlite" or "postgres").
func Migrations(driver string) (fs.FS, error) {
	return fs.Sub(FS, "sql/"+driver)
}
