// Package db embeds the database schema.
package db

import _ "embed"

// Schema contains the DDL for restaurants, menu items and API keys.
//
//go:embed migrations/001_schema.sql
var Schema string
