package config

import "github.com/spf13/viper"

// Supported store drivers.
const (
	DriverSQLite = "sqlite"
	DriverNeo4j  = "neo4j"
)

// Store selects and configures the task store backend.
type Store struct {
	Driver string
	SQLite *SQLite
	Neo4j  *Neo4j
}

type SQLite struct {
	Path string
}

type Neo4j struct {
	URI      string
	Username string
	Password string
	// Database is empty for the server default.
	Database string
}

func getStoreConfig(v *viper.Viper) *Store {
	return &Store{
		Driver: v.GetString("store.driver"),
		SQLite: &SQLite{
			Path: v.GetString("store.sqlite.path"),
		},
		Neo4j: &Neo4j{
			URI:      v.GetString("store.neo4j.uri"),
			Username: v.GetString("store.neo4j.username"),
			Password: v.GetString("store.neo4j.password"),
			Database: v.GetString("store.neo4j.database"),
		},
	}
}
